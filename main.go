package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/handler"
	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/service"
	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/store"

	_ "github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/docs"
)

// @title           QuanLyThuChi API
// @version         1.0
// @description     API Server quản lý thu chi cá nhân cho Telegram/Zalo Bot.
// @BasePath        /
// @schemes   https http
func main() {
	_ = godotenv.Load()

	// 1. Kết nối DB
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Cannot connect to DB:", err)
	}
	fmt.Println("Connected to Database successfully!")

	// Giữ cho bot không ngủ (Render free tier)
	botURL := os.Getenv("BOT_URL")
	go keepAliveService(botURL, "BOT-Service")

	// 2. Init Store & Services
	pgStore := store.NewPostgresStore(db)
	if err := pgStore.InitSchema(); err != nil {
		log.Fatal("Failed to init schema:", err)
	}
	if err := pgStore.SeedDefaultCategories(); err != nil {
		log.Fatal("Failed to seed categories:", err)
	}

	cache := service.NewCategoryCache(pgStore)
	go cache.StartRefresher(10 * time.Minute)

	parser := service.NewParser(service.DefaultParserConfig())
	resolver := service.NewResolver(pgStore, cache, service.DefaultResolverConfig())

	aiParser, err := service.NewAIParser(context.Background())
	if err != nil {
		log.Printf("[AI] Không khởi tạo được Gemini client: %v. Chạy parser thường.", err)
	} else if !aiParser.Enabled() {
		log.Println("[AI] GEMINI_API_KEY chưa cấu hình. Chạy parser thường.")
	}

	h := handler.NewFinanceHandler(pgStore, parser, resolver, cache, aiParser)

	// 3. Router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /messages", h.HandleMessage)
	mux.HandleFunc("POST /learn", h.LearnKeyword)
	mux.HandleFunc("PUT /transactions/{id}/category", h.UpdateTransactionCategory)
	mux.HandleFunc("DELETE /transactions/last", h.UndoLastTransaction)
	mux.HandleFunc("GET /transactions", h.SearchTransactions)
	mux.HandleFunc("GET /report", h.GenerateReport)
	mux.HandleFunc("GET /insights", h.GetInsights)
	mux.HandleFunc("GET /categories", h.GetCategories)
	mux.HandleFunc("GET /users", h.GetUsers)

	mux.HandleFunc("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	// 4. Start Server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Println("Server running on port " + port)
	http.ListenAndServe(":"+port, enableCORS(mux))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// --- GIỮ BOT KHÔNG NGỦ ---
func keepAliveService(targetURL string, serviceName string) {
	if targetURL == "" {
		log.Printf("[%s] Không có URL để ping. Bỏ qua.", serviceName)
		return
	}

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	log.Printf("[%s] Đã kích hoạt chế độ Keep-Alive tới: %s", serviceName, targetURL)

	for range ticker.C {
		resp, err := http.Get(targetURL)
		if err != nil {
			log.Printf("[%s] Ping thất bại: %v", serviceName, err)
		} else {
			resp.Body.Close()
			log.Printf("[%s] Ping thành công! (Status: %s)", serviceName, resp.Status)
		}
	}
}
