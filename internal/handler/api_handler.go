package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/service"
)

// FinanceStore là phần của store mà handler cần. Production là
// store.PostgresStore, test inject bản in-memory.
type FinanceStore interface {
	GetOrCreateUser(telegramID int64, zaloID, username, fullName string) (model.User, error)
	CreateTransaction(t model.Transaction) (int64, error)
	GetByPeriod(userID int64, start, end time.Time) ([]model.Transaction, error)
	GetLastTransaction(userID int64) (*model.Transaction, error)
	DeleteTransaction(id, userID int64) (*model.Transaction, error)
	UpdateTransactionCategory(txID, categoryID int64) error
	ListLearnedHints(userID int64, limit int) ([]model.LearnedHint, error)
	GetAllTelegramIDs() ([]int64, error)
}

type FinanceHandler struct {
	Store    FinanceStore
	Parser   *service.Parser
	Resolver *service.Resolver
	Cache    *service.CategoryCache
	AI       *service.AIParser
}

func NewFinanceHandler(s FinanceStore, p *service.Parser, r *service.Resolver, c *service.CategoryCache, ai *service.AIParser) *FinanceHandler {
	return &FinanceHandler{Store: s, Parser: p, Resolver: r, Cache: c, AI: ai}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// HandleMessage godoc
// @Summary      Xử lý tin nhắn chi tiêu
// @Description  Nhận tin nhắn tự nhiên từ bot (Telegram/Zalo), bóc tách số tiền + ghi chú,
// @Description  tự phân loại danh mục rồi lưu giao dịch.
// @Description
// @Description  ### 💡 VÍ DỤ TIN NHẮN:
// @Description  ```json
// @Description  {
// @Description      "telegram_id": 123456789,
// @Description      "username": "ducnguyen",
// @Description      "text": "50k cafe"
// @Description  }
// @Description  ```
// @Description
// @Description  Nếu không phân loại được (rơi vào "Khác"), response có needs_selection=true
// @Description  kèm danh sách danh mục để bot hiện bàn phím cho user chọn.
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        payload  body      model.MessageCreate  true  "Tin nhắn của user"
// @Success      200      {object}  model.MessageResult
// @Failure      400      {string}  string  "Lỗi dữ liệu đầu vào"
// @Failure      500      {string}  string  "Lỗi Server"
// @Router       /messages [post]
func (h *FinanceHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req model.MessageCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API ERROR] Decode JSON failed: %v", err)
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	log.Printf("[API INFO] Nhận tin nhắn từ tg=%d zalo=%s: %q", req.TelegramID, req.ZaloID, req.Text)

	user, err := h.Store.GetOrCreateUser(req.TelegramID, req.ZaloID, req.Username, req.FullName)
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Thử AI trước (nếu cấu hình), không được thì rơi về parser xác định
	if h.AI.Enabled() {
		if result, ok := h.handleWithAI(r, user, req.Text); ok {
			jsonResponse(w, http.StatusOK, result)
			return
		}
	}

	parsed := h.Parser.Parse(req.Text)
	if !parsed.IsValid {
		jsonResponse(w, http.StatusOK, model.MessageResult{
			Saved: false,
			Error: parsed.ErrorMessage,
		})
		return
	}

	category := h.Resolver.ResolveForUser(user.ID, parsed.Note)

	txID, err := h.Store.CreateTransaction(model.Transaction{
		UserID:     user.ID,
		Amount:     parsed.Amount,
		CategoryID: category.ID,
		Note:       parsed.Note,
		RawText:    parsed.RawText,
	})
	if err != nil {
		log.Printf("[API ERROR] DB CreateTransaction failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := model.MessageResult{
		Saved:         true,
		TransactionID: txID,
		Amount:        parsed.Amount,
		Note:          parsed.Note,
		CategoryID:    category.ID,
		CategoryName:  category.Name,
		TodayExpense:  h.todayExpense(user.ID),
		Source:        "parser",
	}
	if category.Name == model.OtherCategoryName && parsed.Note != "" {
		result.NeedsSelection = true
		result.Categories = h.Cache.All()
	}
	jsonResponse(w, http.StatusOK, result)
}

// handleWithAI gửi tin nhắn cho Gemini. ok = false nghĩa là AI không dùng được
// (lỗi mạng, không hiểu tin nhắn...) và caller phải chạy parser thường.
func (h *FinanceHandler) handleWithAI(r *http.Request, user model.User, text string) (model.MessageResult, bool) {
	hints, err := h.Store.ListLearnedHints(user.ID, 20)
	if err != nil {
		log.Printf("[API ERROR] ListLearnedHints failed: %v", err)
		hints = nil
	}

	aiRes, err := h.AI.Parse(r.Context(), text, hints)
	if err != nil {
		log.Printf("[API ERROR] AI parse failed, fallback parser: %v", err)
		return model.MessageResult{}, false
	}
	if !aiRes.Understood || len(aiRes.Transactions) == 0 {
		return model.MessageResult{}, false
	}

	var result model.MessageResult
	for i, aiTx := range aiRes.Transactions {
		if aiTx.Amount < 0 {
			aiTx.Amount = -aiTx.Amount
		}

		// Ưu tiên lịch sử user, rồi tới danh mục AI gợi ý, cuối cùng từ điển chung
		category, ok := h.Resolver.ResolveFromHistory(user.ID, aiTx.Note)
		if !ok {
			category, ok = h.Resolver.CategoryByName(aiTx.Category)
		}
		if !ok {
			category = h.Resolver.ResolveGlobal(aiTx.Note)
		}

		txID, err := h.Store.CreateTransaction(model.Transaction{
			UserID:     user.ID,
			Amount:     aiTx.Amount,
			CategoryID: category.ID,
			Note:       aiTx.Note,
			RawText:    text,
		})
		if err != nil {
			log.Printf("[API ERROR] DB CreateTransaction (AI) failed: %v", err)
			// Chưa lưu được gì thì rơi về parser; lưu dở rồi thì dừng,
			// fallback lúc này sẽ ghi trùng
			if i == 0 {
				return model.MessageResult{}, false
			}
			break
		}

		// Bot chỉ hiện 1 xác nhận, lấy giao dịch đầu tiên
		if i == 0 {
			result = model.MessageResult{
				Saved:         true,
				TransactionID: txID,
				Amount:        aiTx.Amount,
				Note:          aiTx.Note,
				CategoryID:    category.ID,
				CategoryName:  category.Name,
				Source:        "ai",
			}
			if category.Name == model.OtherCategoryName && aiTx.Note != "" {
				result.NeedsSelection = true
				result.Categories = h.Cache.All()
			}
		}
	}
	result.TodayExpense = h.todayExpense(user.ID)
	return result, true
}

// LearnKeyword godoc
// @Summary      Dạy bot một từ khóa
// @Description  Lưu mapping từ khóa -> danh mục cho riêng user này. Từ khóa dưới 2 ký tự
// @Description  bị bỏ qua (learned=false).
// @Tags         Learning
// @Accept       json
// @Produce      json
// @Param        payload  body      model.LearnRequest  true  "Từ khóa và danh mục"
// @Success      200      {object}  model.LearnResult
// @Failure      400      {string}  string  "Lỗi dữ liệu đầu vào"
// @Failure      500      {string}  string  "Lỗi Server"
// @Router       /learn [post]
func (h *FinanceHandler) LearnKeyword(w http.ResponseWriter, r *http.Request) {
	var req model.LearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API ERROR] Decode JSON failed: %v", err)
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetOrCreateUser(req.TelegramID, req.ZaloID, "", "")
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	learned, err := h.Resolver.Learn(user.ID, req.CategoryID, req.Keyword)
	if err != nil {
		log.Printf("[API ERROR] Learn keyword failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, model.LearnResult{Learned: learned})
}

// UpdateTransactionCategory godoc
// @Summary      Sửa danh mục giao dịch
// @Description  User bấm chọn danh mục trên bàn phím inline. Giao dịch được cập nhật
// @Description  và bot học luôn từ khóa (note) cho lần sau.
// @Tags         Transactions
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "ID giao dịch"
// @Param        payload  body      model.CategoryUpdateRequest  true  "Danh mục mới"
// @Success      200      {object}  model.CategoryUpdateResult
// @Failure      400      {string}  string  "Lỗi dữ liệu đầu vào"
// @Failure      500      {string}  string  "Lỗi Server"
// @Router       /transactions/{id}/category [put]
func (h *FinanceHandler) UpdateTransactionCategory(w http.ResponseWriter, r *http.Request) {
	txID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	var req model.CategoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[API ERROR] Decode JSON failed: %v", err)
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetOrCreateUser(req.TelegramID, req.ZaloID, "", "")
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.Store.UpdateTransactionCategory(txID, req.CategoryID); err != nil {
		log.Printf("[API ERROR] UpdateTransactionCategory failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	learned := false
	if req.Note != "" {
		learned, err = h.Resolver.Learn(user.ID, req.CategoryID, req.Note)
		if err != nil {
			// Giao dịch đã cập nhật xong, lỗi học từ khóa chỉ log
			log.Printf("[API ERROR] Learn keyword failed: %v", err)
		}
	}

	categoryName := ""
	for _, c := range h.Cache.All() {
		if c.ID == req.CategoryID {
			categoryName = c.Name
			break
		}
	}

	jsonResponse(w, http.StatusOK, model.CategoryUpdateResult{
		CategoryName: categoryName,
		Learned:      learned,
		TodayExpense: h.todayExpense(user.ID),
	})
}

// UndoLastTransaction godoc
// @Summary      Xóa giao dịch gần nhất
// @Description  Lệnh /undo của bot: xóa giao dịch mới nhất của user.
// @Tags         Transactions
// @Produce      json
// @Param        telegram_id  query     int     false  "Telegram ID"
// @Param        zalo_id      query     string  false  "Zalo ID"
// @Success      200          {object}  model.UndoResult
// @Failure      500          {string}  string  "Lỗi Server"
// @Router       /transactions/last [delete]
func (h *FinanceHandler) UndoLastTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	last, err := h.Store.GetLastTransaction(user.ID)
	if err != nil {
		log.Printf("[API ERROR] GetLastTransaction failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if last == nil {
		jsonResponse(w, http.StatusOK, model.UndoResult{Deleted: false})
		return
	}

	deleted, err := h.Store.DeleteTransaction(last.ID, user.ID)
	if err != nil {
		log.Printf("[API ERROR] DeleteTransaction failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if deleted == nil {
		jsonResponse(w, http.StatusOK, model.UndoResult{Deleted: false})
		return
	}
	jsonResponse(w, http.StatusOK, model.UndoResult{
		Deleted: true,
		Amount:  deleted.Amount,
		Note:    deleted.Note,
	})
}

// GenerateReport godoc
// @Summary      Báo cáo thu chi
// @Description  Tổng hợp thu/chi theo kỳ kèm breakdown từng danh mục.
// @Tags         Reports
// @Produce      json
// @Param        telegram_id  query     int     false  "Telegram ID"
// @Param        zalo_id      query     string  false  "Zalo ID"
// @Param        period       query     string  true   "Kỳ báo cáo: 'today', 'week' hoặc 'month'"
// @Success      200          {object}  model.ReportOutput
// @Failure      500          {string}  string  "Lỗi Server"
// @Router       /report [get]
func (h *FinanceHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	period := r.URL.Query().Get("period")
	start := periodStart(period, time.Now())

	txs, err := h.Store.GetByPeriod(user.ID, start, time.Now().Add(time.Second))
	if err != nil {
		log.Printf("[API ERROR] DB GetByPeriod failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := model.ReportOutput{
		Period:           period,
		StartDate:        start.Format("2006-01-02"),
		TransactionCount: len(txs),
	}

	types := h.categoryTypes()
	names := h.categoryNames()
	byCategory := map[string]*model.CategorySummary{}

	for _, t := range txs {
		name := names[t.CategoryID]
		if name == "" {
			name = model.OtherCategoryName
		}
		if types[t.CategoryID] == model.TypeIncome {
			report.TotalIncome += t.Amount
			continue
		}
		report.TotalExpense += t.Amount
		s, ok := byCategory[name]
		if !ok {
			s = &model.CategorySummary{CategoryName: name}
			byCategory[name] = s
		}
		s.Total += t.Amount
		s.Count++
	}

	// Breakdown theo thứ tự seed để báo cáo ổn định
	for _, c := range h.Cache.All() {
		if s, ok := byCategory[c.Name]; ok {
			report.Breakdown = append(report.Breakdown, *s)
			delete(byCategory, c.Name)
		}
	}
	for _, s := range byCategory {
		report.Breakdown = append(report.Breakdown, *s)
	}

	jsonResponse(w, http.StatusOK, report)
}

// GetInsights godoc
// @Summary      Phân tích chi tiêu
// @Description  So sánh tháng này với tháng trước, trung bình mỗi ngày và gợi ý tiết kiệm.
// @Tags         Reports
// @Produce      json
// @Param        telegram_id  query     int     false  "Telegram ID"
// @Param        zalo_id      query     string  false  "Zalo ID"
// @Success      200          {object}  model.InsightsOutput
// @Failure      500          {string}  string  "Lỗi Server"
// @Router       /insights [get]
func (h *FinanceHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	thisMonth, err := h.Store.GetByPeriod(user.ID, thisMonthStart, now.Add(time.Second))
	if err != nil {
		log.Printf("[API ERROR] DB GetByPeriod failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	lastMonth, err := h.Store.GetByPeriod(user.ID, lastMonthStart, thisMonthStart)
	if err != nil {
		log.Printf("[API ERROR] DB GetByPeriod failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	types := h.categoryTypes()
	names := h.categoryNames()

	out := model.InsightsOutput{}
	byCategory := map[string]*model.CategorySummary{}
	for _, t := range thisMonth {
		if types[t.CategoryID] == model.TypeIncome {
			continue
		}
		out.TotalThisMonth += t.Amount
		name := names[t.CategoryID]
		if name == "" {
			name = model.OtherCategoryName
		}
		s, ok := byCategory[name]
		if !ok {
			s = &model.CategorySummary{CategoryName: name}
			byCategory[name] = s
		}
		s.Total += t.Amount
		s.Count++
	}
	for _, t := range lastMonth {
		if types[t.CategoryID] != model.TypeIncome {
			out.TotalLastMonth += t.Amount
		}
	}

	out.DailyAverage = out.TotalThisMonth / float64(now.Day())

	switch {
	case out.TotalLastMonth == 0:
		out.Trend = "stable"
	case out.TotalThisMonth > out.TotalLastMonth*1.1:
		out.Trend = "up"
	case out.TotalThisMonth < out.TotalLastMonth*0.9:
		out.Trend = "down"
	default:
		out.Trend = "stable"
	}

	// Top 3 danh mục chi nhiều nhất
	for i := 0; i < 3; i++ {
		var best *model.CategorySummary
		for _, s := range byCategory {
			if best == nil || s.Total > best.Total {
				best = s
			}
		}
		if best == nil {
			break
		}
		out.TopCategories = append(out.TopCategories, *best)
		delete(byCategory, best.CategoryName)
	}

	switch out.Trend {
	case "up":
		out.Suggestion = "Tháng này bạn chi nhiều hơn tháng trước, thử đặt hạn mức cho danh mục chi nhiều nhất nhé."
	case "down":
		out.Suggestion = "Tuyệt vời, bạn đang chi ít hơn tháng trước! Giữ vững phong độ nhé."
	default:
		out.Suggestion = "Chi tiêu đang ổn định. Theo dõi đều đặn để không bị bất ngờ cuối tháng."
	}

	jsonResponse(w, http.StatusOK, out)
}

// SearchTransactions godoc
// @Summary      Tra cứu giao dịch
// @Description  Liệt kê giao dịch theo kỳ, lọc thêm theo từ khóa trong ghi chú
// @Description  (lệnh "tìm trà sữa" của bot).
// @Tags         Transactions
// @Produce      json
// @Param        telegram_id  query     int     false  "Telegram ID"
// @Param        zalo_id      query     string  false  "Zalo ID"
// @Param        period       query     string  false  "Kỳ: 'today', 'week' hoặc 'month' (mặc định month)"
// @Param        keyword      query     string  false  "Từ khóa lọc theo ghi chú"
// @Success      200          {object}  model.TransactionsOutput
// @Failure      500          {string}  string  "Lỗi Server"
// @Router       /transactions [get]
func (h *FinanceHandler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromQuery(r)
	if err != nil {
		log.Printf("[API ERROR] GetOrCreateUser failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	keyword := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("keyword")))

	txs, err := h.Store.GetByPeriod(user.ID, periodStart(period, time.Now()), time.Now().Add(time.Second))
	if err != nil {
		log.Printf("[API ERROR] DB GetByPeriod failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	names := h.categoryNames()
	out := model.TransactionsOutput{Period: period, Keyword: keyword}
	for _, t := range txs {
		if keyword != "" && !strings.Contains(strings.ToLower(t.Note), keyword) {
			continue
		}
		name := names[t.CategoryID]
		if name == "" {
			name = model.OtherCategoryName
		}
		out.Total += t.Amount
		out.Items = append(out.Items, model.TransactionItem{
			ID:           t.ID,
			Amount:       t.Amount,
			Note:         t.Note,
			CategoryName: name,
			CreatedAt:    t.CreatedAt,
		})
	}
	jsonResponse(w, http.StatusOK, out)
}

// GetCategories godoc
// @Summary      Danh sách danh mục
// @Tags         Categories
// @Produce      json
// @Success      200  {array}  model.Category
// @Router       /categories [get]
func (h *FinanceHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Cache.All())
}

// GetUsers trả về danh sách telegram_id (scheduler của bot dùng)
func (h *FinanceHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.GetAllTelegramIDs()
	if err != nil {
		log.Printf("[API ERROR] GetUsers failed: %v", err)
		http.Error(w, "Error fetching users", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, ids)
}

func (h *FinanceHandler) userFromQuery(r *http.Request) (model.User, error) {
	telegramID, _ := strconv.ParseInt(r.URL.Query().Get("telegram_id"), 10, 64)
	zaloID := r.URL.Query().Get("zalo_id")
	return h.Store.GetOrCreateUser(telegramID, zaloID, "", "")
}

// todayExpense tính tổng CHI hôm nay (bỏ qua giao dịch thuộc danh mục thu nhập).
// Lỗi DB chỉ log, trả 0 để không chặn response chính.
func (h *FinanceHandler) todayExpense(userID int64) float64 {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	txs, err := h.Store.GetByPeriod(userID, start, now.Add(time.Second))
	if err != nil {
		log.Printf("[API ERROR] todayExpense failed: %v", err)
		return 0
	}

	types := h.categoryTypes()
	total := 0.0
	for _, t := range txs {
		if types[t.CategoryID] != model.TypeIncome {
			total += t.Amount
		}
	}
	return total
}

func (h *FinanceHandler) categoryTypes() map[int64]model.TransactionType {
	m := make(map[int64]model.TransactionType)
	for _, c := range h.Cache.All() {
		m[c.ID] = c.Type
	}
	return m
}

func (h *FinanceHandler) categoryNames() map[int64]string {
	m := make(map[int64]string)
	for _, c := range h.Cache.All() {
		m[c.ID] = c.Name
	}
	return m
}

// periodStart tính mốc bắt đầu của kỳ báo cáo ("today", "week", "month")
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := now.AddDate(0, 0, -weekday+1)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
	default: // month
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
}
