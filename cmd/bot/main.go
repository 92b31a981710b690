package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

var apiURL string

func main() {
	_ = godotenv.Load()
	token := os.Getenv("TELEGRAM_TOKEN")
	apiURL = os.Getenv("API_URL")
	// Chạy ngầm nhiệm vụ Ping API cứ 10 phút/lần
	go keepAliveService(apiURL, "API-Service")
	webhookURL := os.Getenv("WEBHOOK_URL")
	if webhookURL == "" {
		webhookURL = os.Getenv("RENDER_EXTERNAL_URL")
	}
	port := os.Getenv("PORT")

	if port == "" {
		port = "8080"
	}
	if apiURL == "" {
		log.Println("[CONFIG WARN] API_URL is empty, defaulting to localhost (This will fail on Render!)")
		apiURL = "http://localhost:8080"
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Panic(err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	// Kênh nhận tin nhắn (Updates Channel)
	var updates tgbotapi.UpdatesChannel

	// --- LOGIC CHUYỂN ĐỔI WEBHOOK / POLLING ---
	if webhookURL != "" {
		// >>> CHẾ ĐỘ WEBHOOK (Chạy trên Render) <<<
		log.Printf("[MODE] Running in WEBHOOK mode. URL: %s", webhookURL)

		// Telegram yêu cầu đường dẫn phải HTTPS
		wh, _ := tgbotapi.NewWebhook(webhookURL + "/webhook")
		_, err = bot.Request(wh)
		if err != nil {
			log.Fatal("Lỗi thiết lập Webhook:", err)
		}

		info, err := bot.GetWebhookInfo()
		if err != nil {
			log.Fatal(err)
		}
		if info.LastErrorDate != 0 {
			log.Printf("Telegram Webhook Last Error: %s", info.LastErrorMessage)
		}

		updates = bot.ListenForWebhook("/webhook")

		// Server này vừa nhận Webhook từ Telegram, vừa health check cho Render
		go func() {
			http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("Bot is running in Webhook mode!"))
			})

			log.Printf("Listening on port %s for Webhook...", port)
			if err := http.ListenAndServe(":"+port, nil); err != nil {
				log.Fatal(err)
			}
		}()

	} else {
		// >>> CHẾ ĐỘ POLLING (Chạy Local) <<<
		log.Printf("[MODE] Running in POLLING mode (No WEBHOOK_URL found)")

		_, err = bot.Request(tgbotapi.DeleteWebhookConfig{})
		if err != nil {
			log.Printf("Lỗi xóa webhook: %v", err)
		}

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = bot.GetUpdatesChan(u)

		// Vẫn chạy một server ảo để health check (nếu chạy docker local)
		go func() {
			log.Printf("Listening on port %s (Dummy Server for Health Check)...", port)
			http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("Bot is running in Polling mode!"))
			})
			http.ListenAndServe(":"+port, nil)
		}()
	}

	// Gửi báo cáo chi tiêu mỗi tối 21h
	go startScheduler(bot)

	for update := range updates {
		if update.CallbackQuery != nil {
			go handleCallback(bot, update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}

		go func(update tgbotapi.Update) {
			text := update.Message.Text
			from := update.Message.From
			chatID := update.Message.Chat.ID

			log.Printf("[BOT RECV] User: %d, Text: %s", from.ID, text)

			switch {
			case text == "/start" || text == "/help":
				sendHelp(bot, chatID)
				return
			case text == "/today":
				handleReport(bot, chatID, from.ID, "today")
				return
			case text == "/month":
				handleReport(bot, chatID, from.ID, "month")
				return
			case text == "/undo":
				handleUndo(bot, chatID, from.ID)
				return
			case strings.Contains(strings.ToLower(text), "báo cáo"):
				handleReport(bot, chatID, from.ID, "month")
				return
			case strings.HasPrefix(strings.ToLower(text), "tìm "):
				handleSearch(bot, chatID, from.ID, strings.TrimSpace(text[len("tìm "):]))
				return
			}

			handleExpenseMessage(bot, update.Message)
		}(update)
	}
}

func sendHelp(bot *tgbotapi.BotAPI, chatID int64) {
	helpMsg := `👋 Chào bạn! Tôi là Bot quản lý thu chi.

📖 *HƯỚNG DẪN SỬ DỤNG:*

1️⃣ *Ghi chép chi tiêu:* nhắn tin tự nhiên
- 50k cafe
- 2tr tiền nhà
- ăn trưa 35k
- cafe 50 _(hiểu là 50 nghìn)_

2️⃣ *Tiện ích:*
- /today: chi tiêu hôm nay
- /month: báo cáo tháng này
- /undo: xóa giao dịch vừa ghi
- tìm trà sữa: tra cứu giao dịch theo từ khóa

💡 Khi bot không biết xếp vào nhóm nào, bạn chọn giúp 1 lần,
lần sau bot tự nhớ.`

	msg := tgbotapi.NewMessage(chatID, helpMsg)
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// handleExpenseMessage gửi tin nhắn lên API, nhận kết quả phân loại
// rồi trả lời user (kèm bàn phím chọn danh mục nếu cần)
func handleExpenseMessage(bot *tgbotapi.BotAPI, m *tgbotapi.Message) {
	req := model.MessageCreate{
		TelegramID: m.From.ID,
		Username:   m.From.UserName,
		FullName:   strings.TrimSpace(m.From.FirstName + " " + m.From.LastName),
		Text:       m.Text,
	}

	result, err := postMessage(req)
	if err != nil {
		log.Printf("[BOT ERROR] Call API /messages failed: %v", err)
		bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Lỗi hệ thống: Không thể lưu giao dịch."))
		return
	}

	if !result.Saved {
		reply := "🤔 " + result.Error + "\n\nGõ /help để xem hướng dẫn."
		bot.Send(tgbotapi.NewMessage(m.Chat.ID, reply))
		return
	}

	confirm := fmt.Sprintf("✅ Đã ghi: %s", formatAmountShort(result.Amount))
	if result.Note != "" {
		confirm += " - " + result.Note
	}
	confirm += fmt.Sprintf(" (%s)", result.CategoryName)
	confirm += fmt.Sprintf("\n💸 Hôm nay đã chi: %sđ", formatCurrency(result.TodayExpense))

	msg := tgbotapi.NewMessage(m.Chat.ID, confirm)
	if result.NeedsSelection && len(result.Categories) > 0 {
		msg.Text += "\n\n🏷 Khoản này thuộc nhóm nào? Chọn giúp mình nhé:"
		msg.ReplyMarkup = buildCategoryKeyboard(result.TransactionID, result.Note, result.Categories)
	}
	bot.Send(msg)
}

// handleCallback xử lý khi user bấm nút chọn danh mục
func handleCallback(bot *tgbotapi.BotAPI, cb *tgbotapi.CallbackQuery) {
	txID, catID, note, ok := parseCategoryCallback(cb.Data)
	if !ok {
		bot.Request(tgbotapi.NewCallback(cb.ID, ""))
		return
	}

	result, err := putTransactionCategory(txID, model.CategoryUpdateRequest{
		TelegramID: cb.From.ID,
		CategoryID: catID,
		Note:       note,
	})
	if err != nil {
		log.Printf("[BOT ERROR] Update category failed: %v", err)
		bot.Request(tgbotapi.NewCallback(cb.ID, "❌ Lỗi cập nhật danh mục"))
		return
	}

	bot.Request(tgbotapi.NewCallback(cb.ID, "Đã cập nhật: "+result.CategoryName))

	// Sửa lại tin nhắn cũ, bỏ bàn phím
	text := fmt.Sprintf("✅ Đã xếp vào nhóm: %s", result.CategoryName)
	if result.Learned {
		text += fmt.Sprintf("\n🧠 Bot đã nhớ: %q thuộc nhóm này", note)
	}
	text += fmt.Sprintf("\n💸 Hôm nay đã chi: %sđ", formatCurrency(result.TodayExpense))

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	bot.Send(edit)
}

func handleUndo(bot *tgbotapi.BotAPI, chatID, telegramID int64) {
	result, err := deleteLastTransaction(telegramID)
	if err != nil {
		log.Printf("[BOT ERROR] Undo failed: %v", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Lỗi hệ thống: Không thể xóa giao dịch."))
		return
	}
	if !result.Deleted {
		bot.Send(tgbotapi.NewMessage(chatID, "🤷 Không có giao dịch nào để xóa."))
		return
	}
	reply := fmt.Sprintf("🗑 Đã xóa giao dịch: %sđ", formatCurrency(result.Amount))
	if result.Note != "" {
		reply += " - " + result.Note
	}
	bot.Send(tgbotapi.NewMessage(chatID, reply))
}

// handleSearch tra cứu giao dịch tháng này theo từ khóa ("tìm trà sữa")
func handleSearch(bot *tgbotapi.BotAPI, chatID, telegramID int64, keyword string) {
	url := fmt.Sprintf("%s/transactions?telegram_id=%d&period=month&keyword=%s",
		apiURL, telegramID, neturl.QueryEscape(keyword))
	resp, err := http.Get(url)
	if err != nil {
		log.Printf("[BOT ERROR] Search failed: %v", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Lỗi tra cứu giao dịch"))
		return
	}
	defer resp.Body.Close()

	var out model.TransactionsOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("[BOT ERROR] Search decode failed: %v", err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Lỗi tra cứu giao dịch"))
		return
	}

	if len(out.Items) == 0 {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("🔍 Tháng này chưa có giao dịch nào khớp %q.", keyword)))
		return
	}

	text := fmt.Sprintf("🔍 Tìm %q trong tháng này: %d giao dịch, tổng %sđ\n", keyword, len(out.Items), formatCurrency(out.Total))
	for _, item := range out.Items {
		text += fmt.Sprintf("- %s: %s (%s)\n", item.CreatedAt.Format("02/01"), formatAmountShort(item.Amount), item.Note)
	}
	bot.Send(tgbotapi.NewMessage(chatID, text))
}

// --- LOGIC BÁO CÁO ---
func handleReport(bot *tgbotapi.BotAPI, chatID, telegramID int64, period string) {
	report, err := getReportData(telegramID, period)
	if err != nil {
		log.Printf("[BOT ERROR] Get %s report failed: %v", period, err)
		bot.Send(tgbotapi.NewMessage(chatID, "❌ Lỗi lấy báo cáo"))
		return
	}

	title := "Hôm nay"
	if period == "month" {
		title = "Tháng này"
	}

	msg := tgbotapi.NewMessage(chatID, buildSectionReport(title, report))
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// --- CÁC HÀM GỌI API ---

func postMessage(req model.MessageCreate) (*model.MessageResult, error) {
	data, _ := json.Marshal(req)
	resp, err := http.Post(apiURL+"/messages", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var result model.MessageResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func putTransactionCategory(txID int64, req model.CategoryUpdateRequest) (*model.CategoryUpdateResult, error) {
	data, _ := json.Marshal(req)
	url := fmt.Sprintf("%s/transactions/%d/category", apiURL, txID)
	httpReq, err := http.NewRequest(http.MethodPut, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var result model.CategoryUpdateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func deleteLastTransaction(telegramID int64) (*model.UndoResult, error) {
	url := fmt.Sprintf("%s/transactions/last?telegram_id=%d", apiURL, telegramID)
	httpReq, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var result model.UndoResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func getReportData(telegramID int64, period string) (*model.ReportOutput, error) {
	url := fmt.Sprintf("%s/report?telegram_id=%d&period=%s", apiURL, telegramID, period)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var r model.ReportOutput
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("Decode json error: %v", err)
	}
	return &r, nil
}

// --- LOGIC SCHEDULER GỬI BÁO CÁO ĐỊNH KỲ ---
func startScheduler(bot *tgbotapi.BotAPI) {
	// Múi giờ Việt Nam (UTC+7)
	loc := time.FixedZone("ICT", 7*3600)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for t := range ticker.C {
		localTime := t.In(loc)

		// 21h tối: gửi tổng kết chi tiêu trong ngày
		if localTime.Hour() == 21 && localTime.Minute() == 0 {
			log.Println("[SCHEDULER] Bắt đầu gửi báo cáo cuối ngày...")
			sendDailyReport(bot)
			// Ngủ 65 giây để tránh gửi lặp lại trong cùng 1 phút đó
			time.Sleep(65 * time.Second)
		}
	}
}

func sendDailyReport(bot *tgbotapi.BotAPI) {
	userResp, err := http.Get(apiURL + "/users")
	if err != nil {
		log.Printf("[SCHEDULER ERROR] Không thể lấy user list: %v", err)
		return
	}
	defer userResp.Body.Close()

	var telegramIDs []int64
	if err := json.NewDecoder(userResp.Body).Decode(&telegramIDs); err != nil {
		log.Printf("[SCHEDULER ERROR] Lỗi decode user list: %v", err)
		return
	}

	count := 0
	for _, tgID := range telegramIDs {
		report, err := getReportData(tgID, "today")
		if err != nil {
			log.Printf("[SCHEDULER ERROR] Báo cáo user %d thất bại: %v", tgID, err)
			continue
		}
		// Không chi tiêu gì thì khỏi làm phiền
		if report.TransactionCount == 0 {
			continue
		}

		msg := tgbotapi.NewMessage(tgID, "🌙 *TỔNG KẾT CUỐI NGÀY*\n\n"+buildSectionReport("Hôm nay", report))
		msg.ParseMode = "Markdown"
		if _, err := bot.Send(msg); err == nil {
			count++
		}
	}
	log.Printf("[SCHEDULER] Đã gửi báo cáo cho %d người dùng.", count)
}

// --- GIỮ BOT KHÔNG NGỦ ---
func keepAliveService(targetURL string, serviceName string) {
	if targetURL == "" {
		log.Printf("[%s] Không có URL để ping. Bỏ qua.", serviceName)
		return
	}

	// Ping mỗi 10 phút (Render ngủ sau 15 phút)
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	log.Printf("[%s] Đã kích hoạt chế độ Keep-Alive tới: %s", serviceName, targetURL)

	for range ticker.C {
		resp, err := http.Get(targetURL)
		if err != nil {
			log.Printf("[%s] Ping thất bại: %v", serviceName, err)
		} else {
			// Quan trọng: Phải đóng Body để tránh rò rỉ bộ nhớ
			resp.Body.Close()
			log.Printf("[%s] Ping thành công! (Status: %s)", serviceName, resp.Status)
		}
	}
}
