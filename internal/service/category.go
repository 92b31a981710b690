package service

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// KeywordStore là kho từ khóa đã học của từng user. Production là bảng
// user_keywords trên Postgres (unique theo user_id + keyword), test thì
// inject bản in-memory.
type KeywordStore interface {
	// GetUserKeyword trả về nil, nil nếu chưa có mapping
	GetUserKeyword(userID int64, keyword string) (*model.UserKeyword, error)
	ListUserKeywords(userID int64) ([]model.UserKeyword, error)
	// UpsertUserKeyword ghi đè category_id và tăng match_count trong một câu
	// lệnh duy nhất để không mất update khi user sửa đồng thời
	UpsertUserKeyword(userID int64, keyword string, categoryID int64) error
}

// CategorySource cấp danh sách danh mục theo đúng thứ tự seed
type CategorySource interface {
	All() []model.Category
}

// GlobalMatcher là chiến lược so khớp từ khóa toàn cục. Mặc định là
// first-match-wins theo thứ tự seed; tách interface để sau này thay bằng
// ranking (từ khóa dài thắng, TF-IDF...) mà không đụng vào resolver.
type GlobalMatcher interface {
	Match(note string, categories []model.Category) (model.Category, bool)
}

// firstMatchStrategy: danh mục nào có từ khóa xuất hiện trong note trước thì
// thắng, không xếp hạng theo độ cụ thể.
type firstMatchStrategy struct{}

func (firstMatchStrategy) Match(note string, categories []model.Category) (model.Category, bool) {
	for _, c := range categories {
		for _, kw := range c.KeywordsList() {
			if kw != "" && strings.Contains(note, kw) {
				return c, true
			}
		}
	}
	return model.Category{}, false
}

// Stopwords tiếng Việt bị loại trước khi tính độ tương đồng
var similarityStopwords = map[string]struct{}{
	"được": {}, "đc": {}, "cái": {}, "con": {}, "cho": {}, "và": {},
	"với": {}, "của": {}, "là": {}, "có": {}, "này": {}, "đó": {},
}

// ResolverConfig chứa các ngưỡng của bước so khớp mờ. Đây là policy chỉnh
// được, không phải phần cứng của thuật toán.
type ResolverConfig struct {
	// Điểm Jaccard tối thiểu để nhận một từ khóa đã học
	SimilarityThreshold float64
	// Điểm sàn khi chuỗi này chứa chuỗi kia (tín hiệu mạnh dù ít từ trùng)
	SubstringFloor float64
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SimilarityThreshold: 0.5,
		SubstringFloor:      0.7,
	}
}

// Resolver phân loại ghi chú giao dịch theo 3 tầng:
//  1. từ khóa user đã dạy, khớp chính xác
//  2. từ khóa user đã dạy, khớp mờ (Jaccard + substring)
//  3. từ điển từ khóa toàn cục theo thứ tự seed
//
// Không tầng nào khớp thì về danh mục "Khác". Resolver không giữ state,
// an toàn khi gọi đồng thời.
type Resolver struct {
	keywords   KeywordStore
	categories CategorySource
	matcher    GlobalMatcher
	cfg        ResolverConfig
}

func NewResolver(keywords KeywordStore, categories CategorySource, cfg ResolverConfig) *Resolver {
	return &Resolver{
		keywords:   keywords,
		categories: categories,
		matcher:    firstMatchStrategy{},
		cfg:        cfg,
	}
}

// ResolveForUser ưu tiên lịch sử học của user rồi mới tới từ điển toàn cục.
// Lỗi đọc kho từ khóa không làm hỏng request: chỉ log rồi rơi xuống tầng sau.
func (r *Resolver) ResolveForUser(userID int64, note string) model.Category {
	if c, ok := r.ResolveFromHistory(userID, note); ok {
		return c
	}
	return r.ResolveGlobal(note)
}

// ResolveFromHistory chỉ tra trong các từ khóa user đã dạy (tầng 1 + 2).
// Trả về ok = false khi không có gì đạt ngưỡng.
func (r *Resolver) ResolveFromHistory(userID int64, note string) (model.Category, bool) {
	noteLower := strings.ToLower(strings.TrimSpace(note))
	if noteLower == "" || r.keywords == nil {
		return model.Category{}, false
	}

	// Tầng 1: khớp chính xác, "user đã nói rồi thì nghe user"
	uk, err := r.keywords.GetUserKeyword(userID, noteLower)
	if err != nil {
		log.Printf("[RESOLVER] Đọc user keyword thất bại (user=%d): %v", userID, err)
	} else if uk != nil {
		if c, ok := r.categoryByID(uk.CategoryID); ok {
			return c, true
		}
	}

	// Tầng 2: quét toàn bộ từ khóa đã học, lấy điểm cao nhất
	learned, err := r.keywords.ListUserKeywords(userID)
	if err != nil {
		log.Printf("[RESOLVER] Liệt kê user keywords thất bại (user=%d): %v", userID, err)
		return model.Category{}, false
	}

	var best *model.UserKeyword
	bestScore := 0.0
	for i := range learned {
		score := wordSimilarity(noteLower, learned[i].Keyword)
		if strings.Contains(noteLower, learned[i].Keyword) || strings.Contains(learned[i].Keyword, noteLower) {
			if score < r.cfg.SubstringFloor {
				score = r.cfg.SubstringFloor
			}
		}
		if score > bestScore {
			bestScore = score
			best = &learned[i]
		}
	}
	if best != nil && bestScore >= r.cfg.SimilarityThreshold {
		if c, ok := r.categoryByID(best.CategoryID); ok {
			return c, true
		}
	}
	return model.Category{}, false
}

// ResolveGlobal tra từ điển từ khóa toàn cục, không dùng lịch sử user.
// Không bao giờ thất bại: không khớp thì trả về "Khác".
func (r *Resolver) ResolveGlobal(note string) model.Category {
	noteLower := strings.ToLower(strings.TrimSpace(note))
	cats := r.categories.All()
	if noteLower != "" {
		if c, ok := r.matcher.Match(noteLower, cats); ok {
			return c
		}
	}
	return otherCategory(cats)
}

// Learn lưu lựa chọn danh mục của user cho một từ khóa. Trả về false (không
// phải error) khi từ khóa quá ngắn: chuyện thường gặp, không phải sự cố.
// Lỗi storage trả về qua error, caller tự lo retry/báo user.
func (r *Resolver) Learn(userID, categoryID int64, keyword string) (bool, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if utf8.RuneCountInString(keyword) < 2 {
		return false, nil
	}
	if err := r.keywords.UpsertUserKeyword(userID, keyword, categoryID); err != nil {
		return false, err
	}
	return true, nil
}

// CategoryByName tìm danh mục theo tên (AI trả về tên chứ không phải ID)
func (r *Resolver) CategoryByName(name string) (model.Category, bool) {
	for _, c := range r.categories.All() {
		if c.Name == name {
			return c, true
		}
	}
	return model.Category{}, false
}

func (r *Resolver) categoryByID(id int64) (model.Category, bool) {
	for _, c := range r.categories.All() {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

func otherCategory(cats []model.Category) model.Category {
	for _, c := range cats {
		if c.Name == model.OtherCategoryName {
			return c
		}
	}
	// Seed luôn có "Khác"; nhánh này chỉ chạy khi cache lẫn DB đều trống
	return model.Category{Name: model.OtherCategoryName, Type: model.TypeExpense}
}

// wordSimilarity tính Jaccard trên tập từ (đã bỏ stopwords), trả về 0..1
func wordSimilarity(a, b string) float64 {
	wordsA := contentWords(a)
	wordsB := contentWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func contentWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, stop := similarityStopwords[w]; !stop {
			words[w] = struct{}{}
		}
	}
	return words
}
