package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// fakeKeywordStore là bản in-memory của bảng user_keywords
type fakeKeywordStore struct {
	keywords map[string]*model.UserKeyword // key = keyword (test chỉ dùng 1 user)
	err      error
}

func newFakeKeywordStore() *fakeKeywordStore {
	return &fakeKeywordStore{keywords: make(map[string]*model.UserKeyword)}
}

func (f *fakeKeywordStore) GetUserKeyword(userID int64, keyword string) (*model.UserKeyword, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords[keyword], nil
}

func (f *fakeKeywordStore) ListUserKeywords(userID int64) ([]model.UserKeyword, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.UserKeyword
	for _, uk := range f.keywords {
		out = append(out, *uk)
	}
	return out, nil
}

func (f *fakeKeywordStore) UpsertUserKeyword(userID int64, keyword string, categoryID int64) error {
	if f.err != nil {
		return f.err
	}
	if uk, ok := f.keywords[keyword]; ok {
		uk.CategoryID = categoryID
		uk.MatchCount++
		return nil
	}
	f.keywords[keyword] = &model.UserKeyword{
		UserID: userID, Keyword: keyword, CategoryID: categoryID, MatchCount: 1,
	}
	return nil
}

// staticCategories thay cho CategoryCache trong test
type staticCategories struct {
	cats []model.Category
}

func (s staticCategories) All() []model.Category { return s.cats }

func seedCategories() CategorySource {
	return staticCategories{cats: model.DefaultCategories()}
}

func categoryID(t *testing.T, name string) int64 {
	t.Helper()
	for _, c := range model.DefaultCategories() {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("không tìm thấy danh mục %q trong seed", name)
	return 0
}

const testUserID = int64(7)

func TestResolveGlobal(t *testing.T) {
	r := NewResolver(newFakeKeywordStore(), seedCategories(), DefaultResolverConfig())

	tests := []struct {
		name string
		note string
		want string
	}{
		{"Từ khóa ăn uống", "ăn phở bò", "Ăn uống"},
		{"Từ khóa đi chợ (danh mục đầu thắng)", "đi chợ mua rau", "Chợ/Siêu thị"},
		{"Từ khóa di chuyển", "grab về nhà", "Di chuyển"},
		// "xăng" chứa "ăn" nên bị nhóm Ăn uống (đứng trước) ăn mất,
		// hành vi first-match theo thứ tự seed
		{"Substring thắng theo thứ tự danh mục", "đổ xăng", "Ăn uống"},
		{"Không phân biệt hoa thường", "CAFE Highlands", "Ăn uống"},
		{"Không khớp gì", "xyz qwt", "Khác"},
		{"Ghi chú rỗng", "", "Khác"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveGlobal(tt.note)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestResolveFromHistoryExactMatch(t *testing.T) {
	store := newFakeKeywordStore()
	r := NewResolver(store, seedCategories(), DefaultResolverConfig())

	// User dạy: "cafe nguyên liệu" là Mua sắm, dù từ điển chung nói Ăn uống
	muaSam := categoryID(t, "Mua sắm")
	learned, err := r.Learn(testUserID, muaSam, "cafe nguyên liệu")
	require.NoError(t, err)
	require.True(t, learned)

	got, ok := r.ResolveFromHistory(testUserID, "cafe nguyên liệu")
	require.True(t, ok)
	assert.Equal(t, "Mua sắm", got.Name)

	// ResolveForUser phải ưu tiên lịch sử hơn từ điển chung
	assert.Equal(t, "Mua sắm", r.ResolveForUser(testUserID, "cafe nguyên liệu").Name)
}

func TestResolveFromHistoryFuzzyMatch(t *testing.T) {
	store := newFakeKeywordStore()
	r := NewResolver(store, seedCategories(), DefaultResolverConfig())

	giaiTri := categoryID(t, "Giải trí")
	_, err := r.Learn(testUserID, giaiTri, "vé xem bóng đá sân mỹ đình")
	require.NoError(t, err)

	// Substring của từ khóa đã học: điểm sàn 0.7 vượt ngưỡng 0.5
	got, ok := r.ResolveFromHistory(testUserID, "vé xem bóng đá")
	require.True(t, ok)
	assert.Equal(t, "Giải trí", got.Name)

	// Không liên quan: không đạt ngưỡng
	_, ok = r.ResolveFromHistory(testUserID, "tiền thuốc cảm cúm")
	assert.False(t, ok)
}

func TestResolveFromHistoryStopwords(t *testing.T) {
	store := newFakeKeywordStore()
	r := NewResolver(store, seedCategories(), DefaultResolverConfig())

	nguoiThan := categoryID(t, "Người thân")
	_, err := r.Learn(testUserID, nguoiThan, "quà cho mẹ")
	require.NoError(t, err)

	// "cho", "của", "và" là stopword, chỉ còn "quà" và "mẹ" được tính điểm
	got, ok := r.ResolveFromHistory(testUserID, "quà và mẹ")
	require.True(t, ok)
	assert.Equal(t, "Người thân", got.Name)
}

func TestResolverStoreErrorDegradesToGlobal(t *testing.T) {
	store := newFakeKeywordStore()
	store.err = errors.New("db down")
	r := NewResolver(store, seedCategories(), DefaultResolverConfig())

	// Kho từ khóa hỏng thì vẫn phân loại được bằng từ điển chung
	got := r.ResolveForUser(testUserID, "ăn phở")
	assert.Equal(t, "Ăn uống", got.Name)

	got = r.ResolveForUser(testUserID, "xyz qwt")
	assert.Equal(t, "Khác", got.Name)
}

func TestLearn(t *testing.T) {
	store := newFakeKeywordStore()
	r := NewResolver(store, seedCategories(), DefaultResolverConfig())
	anUong := categoryID(t, "Ăn uống")

	t.Run("Từ khóa hợp lệ", func(t *testing.T) {
		learned, err := r.Learn(testUserID, anUong, "bánh tráng trộn")
		require.NoError(t, err)
		assert.True(t, learned)
	})

	t.Run("Từ khóa 2 ký tự tiếng Việt vẫn hợp lệ", func(t *testing.T) {
		learned, err := r.Learn(testUserID, anUong, "ăn")
		require.NoError(t, err)
		assert.True(t, learned)
	})

	t.Run("Từ khóa 1 ký tự bị từ chối, không phải lỗi", func(t *testing.T) {
		learned, err := r.Learn(testUserID, anUong, "a")
		require.NoError(t, err)
		assert.False(t, learned)
		assert.Nil(t, store.keywords["a"])
	})

	t.Run("Chuẩn hóa chữ thường và trim", func(t *testing.T) {
		learned, err := r.Learn(testUserID, anUong, "  Trà Sữa  ")
		require.NoError(t, err)
		assert.True(t, learned)
		assert.NotNil(t, store.keywords["trà sữa"])
	})

	t.Run("Học lại thì ghi đè danh mục và tăng match_count", func(t *testing.T) {
		muaSam := categoryID(t, "Mua sắm")
		_, err := r.Learn(testUserID, anUong, "grab")
		require.NoError(t, err)
		_, err = r.Learn(testUserID, muaSam, "grab")
		require.NoError(t, err)

		uk := store.keywords["grab"]
		require.NotNil(t, uk)
		assert.Equal(t, muaSam, uk.CategoryID)
		assert.Equal(t, 2, uk.MatchCount)
	})

	t.Run("Lỗi storage trả về qua error", func(t *testing.T) {
		bad := newFakeKeywordStore()
		bad.err = errors.New("db down")
		rBad := NewResolver(bad, seedCategories(), DefaultResolverConfig())

		learned, err := rBad.Learn(testUserID, anUong, "cơm gà")
		assert.Error(t, err)
		assert.False(t, learned)
	})
}

func TestCategoryByName(t *testing.T) {
	r := NewResolver(newFakeKeywordStore(), seedCategories(), DefaultResolverConfig())

	c, ok := r.CategoryByName("Ăn uống")
	require.True(t, ok)
	assert.Equal(t, model.TypeExpense, c.Type)

	_, ok = r.CategoryByName("Không tồn tại")
	assert.False(t, ok)
}

func TestOtherCategoryFallbackWhenEmpty(t *testing.T) {
	// Cache lẫn DB đều trống: resolver vẫn phải trả về "Khác"
	r := NewResolver(newFakeKeywordStore(), staticCategories{}, DefaultResolverConfig())

	got := r.ResolveGlobal("ăn phở")
	assert.Equal(t, model.OtherCategoryName, got.Name)
}

func TestWordSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"Giống hệt", "trà sữa", "trà sữa", 1.0},
		{"Giao một nửa", "trà sữa", "trà đá", 1.0 / 3.0},
		{"Không giao", "cơm gà", "vé phim", 0},
		{"Chỉ toàn stopword", "được cho và", "trà sữa", 0},
		{"Chuỗi rỗng", "", "trà sữa", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, wordSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
