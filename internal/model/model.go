package model

import (
	"strings"
	"time"
)

// TransactionType phân loại danh mục: EXPENSE (Chi) hoặc INCOME (Thu)
type TransactionType string

const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

// OtherCategoryName là danh mục mặc định khi không phân loại được.
// Danh mục này LUÔN tồn tại trong seed data.
const OtherCategoryName = "Khác"

// User hỗ trợ cả Telegram lẫn Zalo (một trong hai ID có thể rỗng)
type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id,omitempty"`
	ZaloID     string    `json:"zalo_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category nhóm giao dịch kèm từ khóa để tự nhận diện
type Category struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Keywords string          `json:"keywords"` // ngăn cách bởi dấu phẩy
	Type     TransactionType `json:"type"`
}

// KeywordsList tách chuỗi keywords thành danh sách chữ thường
func (c Category) KeywordsList() []string {
	if c.Keywords == "" {
		return nil
	}
	parts := strings.Split(c.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}

// Transaction tương ứng với bảng transactions trong DB
type Transaction struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Amount     float64   `json:"amount"`
	CategoryID int64     `json:"category_id"` // 0 = chưa phân loại
	Note       string    `json:"note"`
	RawText    string    `json:"raw_text"` // tin nhắn gốc của user
	CreatedAt  time.Time `json:"created_at"`
}

// UserKeyword là mapping từ khóa -> danh mục do từng user tự dạy bot.
// Unique theo (user_id, keyword); category_id luôn là lựa chọn mới nhất.
type UserKeyword struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Keyword    string    `json:"keyword"` // đã chuẩn hóa chữ thường
	CategoryID int64     `json:"category_id"`
	MatchCount int       `json:"match_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LearnedHint là cặp (từ khóa, tên danh mục) đưa vào prompt AI làm ngữ cảnh
type LearnedHint struct {
	Keyword      string `json:"keyword"`
	CategoryName string `json:"category_name"`
}

// ParsedMessage là kết quả bóc tách số tiền + ghi chú từ một tin nhắn.
// Nếu IsValid = false thì Amount = 0 và ErrorMessage được set.
type ParsedMessage struct {
	Amount       float64 `json:"amount"`
	Note         string  `json:"note"`
	RawText      string  `json:"raw_text"`
	IsValid      bool    `json:"is_valid"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// MessageCreate DTO cho POST /messages (bot gửi lên)
type MessageCreate struct {
	TelegramID int64  `json:"telegram_id,omitempty"`
	ZaloID     string `json:"zalo_id,omitempty"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Text       string `json:"text"`
}

// MessageResult DTO trả về sau khi xử lý một tin nhắn.
// NeedsSelection = true khi danh mục rơi vào "Khác" và note không rỗng,
// bot sẽ hiện bàn phím chọn danh mục để học.
type MessageResult struct {
	Saved          bool       `json:"saved"`
	Error          string     `json:"error,omitempty"`
	TransactionID  int64      `json:"transaction_id,omitempty"`
	Amount         float64    `json:"amount"`
	Note           string     `json:"note"`
	CategoryID     int64      `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	NeedsSelection bool       `json:"needs_selection"`
	Categories     []Category `json:"categories,omitempty"`
	TodayExpense   float64    `json:"today_expense"`
	Source         string     `json:"source,omitempty"` // "ai" hoặc "parser"
}

// LearnRequest DTO cho POST /learn
type LearnRequest struct {
	TelegramID int64  `json:"telegram_id,omitempty"`
	ZaloID     string `json:"zalo_id,omitempty"`
	CategoryID int64  `json:"category_id"`
	Keyword    string `json:"keyword"`
}

// LearnResult báo kết quả học từ khóa. Learned = false khi từ khóa quá ngắn.
type LearnResult struct {
	Learned bool `json:"learned"`
}

// CategoryUpdateRequest DTO cho PUT /transactions/{id}/category
type CategoryUpdateRequest struct {
	TelegramID int64  `json:"telegram_id,omitempty"`
	ZaloID     string `json:"zalo_id,omitempty"`
	CategoryID int64  `json:"category_id"`
	Note       string `json:"note,omitempty"` // từ khóa để bot học thêm
}

// CategoryUpdateResult DTO trả về sau khi user sửa danh mục
type CategoryUpdateResult struct {
	CategoryName string  `json:"category_name"`
	Learned      bool    `json:"learned"`
	TodayExpense float64 `json:"today_expense"`
}

// UndoResult DTO cho DELETE /transactions/last
type UndoResult struct {
	Deleted bool    `json:"deleted"`
	Amount  float64 `json:"amount,omitempty"`
	Note    string  `json:"note,omitempty"`
}

// TransactionItem là một dòng kết quả tra cứu giao dịch
type TransactionItem struct {
	ID           int64     `json:"id"`
	Amount       float64   `json:"amount"`
	Note         string    `json:"note"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// TransactionsOutput DTO cho GET /transactions (tra cứu theo kỳ + từ khóa)
type TransactionsOutput struct {
	Period  string            `json:"period"`
	Keyword string            `json:"keyword,omitempty"`
	Total   float64           `json:"total"`
	Items   []TransactionItem `json:"items"`
}

// CategorySummary tổng chi theo một danh mục
type CategorySummary struct {
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
}

// ReportOutput DTO cho GET /report
type ReportOutput struct {
	Period           string            `json:"period"` // today, week, month
	StartDate        string            `json:"start_date"`
	TotalExpense     float64           `json:"total_expense"`
	TotalIncome      float64           `json:"total_income"`
	TransactionCount int               `json:"transaction_count"`
	Breakdown        []CategorySummary `json:"breakdown"`
}

// InsightsOutput DTO cho GET /insights: so sánh chi tiêu tháng này/tháng trước
type InsightsOutput struct {
	TotalThisMonth float64           `json:"total_this_month"`
	TotalLastMonth float64           `json:"total_last_month"`
	DailyAverage   float64           `json:"daily_average"`
	Trend          string            `json:"trend"` // up, down, stable
	Suggestion     string            `json:"suggestion"`
	TopCategories  []CategorySummary `json:"top_categories"`
}

// DefaultCategories trả về bộ danh mục seed mặc định (17 nhóm, "Khác" cuối cùng).
// ID gán theo thứ tự insert trên DB mới; cũng dùng làm fallback khi cache rỗng.
func DefaultCategories() []Category {
	cats := []Category{
		// === Chi tiêu - sinh hoạt ===
		{Name: "Chợ/Siêu thị", Type: TypeExpense,
			Keywords: "chợ,siêu thị,big c,coopmart,winmart,lotte,aeon,đi chợ,thực phẩm,rau,thịt,cá,trứng,gạo"},
		{Name: "Ăn uống", Type: TypeExpense,
			Keywords: "cafe,cà phê,coffee,cơm,phở,bún,ăn,uống,trà sữa,milk tea,bia,rượu,nhậu,quán,restaurant,grab food,shopee food,bữa sáng,bữa trưa,bữa tối,ăn sáng,ăn trưa,ăn tối,bánh mì"},
		{Name: "Di chuyển", Type: TypeExpense,
			Keywords: "xăng,grab,uber,taxi,gửi xe,parking,xe máy,ô tô,car,bike,bus,xe buýt,đi lại,vé tàu,vé xe,be,gojek"},
		// === Chi phí phát sinh ===
		{Name: "Cho vay", Type: TypeExpense,
			Keywords: "cho vay,cho mượn,trả nợ,nợ"},
		{Name: "Mua sắm", Type: TypeExpense,
			Keywords: "quần áo,giày dép,đồ điện tử,shopee,lazada,tiki,amazon,mua,shopping,iphone,macbook,laptop"},
		{Name: "Giải trí", Type: TypeExpense,
			Keywords: "phim,movie,game,netflix,spotify,youtube,du lịch,travel,karaoke,bar,club,nhạc,concert"},
		{Name: "Làm đẹp", Type: TypeExpense,
			Keywords: "mỹ phẩm,spa,nail,tóc,cắt tóc,skincare,makeup,son,kem,dưỡng"},
		{Name: "Sức khỏe", Type: TypeExpense,
			Keywords: "thuốc,bệnh viện,khám bệnh,doctor,pharmacy,gym,thể dục,bảo hiểm y tế,vitamin"},
		{Name: "Từ thiện", Type: TypeExpense,
			Keywords: "từ thiện,quyên góp,donate,ủng hộ,giúp đỡ"},
		// === Chi phí cố định ===
		{Name: "Hóa đơn", Type: TypeExpense,
			Keywords: "điện,nước,internet,wifi,gas,4g,5g,điện thoại,bill,hóa đơn,tiền nhà,thuê nhà,rent"},
		{Name: "Người thân", Type: TypeExpense,
			Keywords: "bố,mẹ,cha,ba,má,con,vợ,chồng,anh,chị,em,gia đình,biếu,tặng,cho,người yêu,người iu,bạn gái,bạn trai,ông,bà"},
		// === Đầu tư - tiết kiệm ===
		{Name: "Đầu tư", Type: TypeExpense,
			Keywords: "đầu tư,invest,cổ phiếu,stock,crypto,bitcoin,chứng khoán,tiết kiệm,gửi tiết kiệm"},
		{Name: "Học tập", Type: TypeExpense,
			Keywords: "sách,book,khóa học,course,học phí,tuition,udemy,coursera,học"},
		// === Thu nhập ===
		{Name: "Lương", Type: TypeIncome,
			Keywords: "lương,salary,income,thu nhập,tiền công,wage"},
		{Name: "Thưởng", Type: TypeIncome,
			Keywords: "thưởng,bonus"},
		{Name: "Thu khác", Type: TypeIncome,
			Keywords: "được cho,được tặng,trả nợ,thu hồi"},
		// === Khác ===
		{Name: OtherCategoryName, Type: TypeExpense, Keywords: ""},
	}
	for i := range cats {
		cats[i].ID = int64(i + 1)
	}
	return cats
}
