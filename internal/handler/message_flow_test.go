package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/service"
)

// fakeStore là bản in-memory của FinanceStore cho test handler
type fakeStore struct {
	txs    []model.Transaction
	nextID int64
}

func (f *fakeStore) GetOrCreateUser(telegramID int64, zaloID, username, fullName string) (model.User, error) {
	return model.User{ID: 1, TelegramID: telegramID, ZaloID: zaloID}, nil
}

func (f *fakeStore) CreateTransaction(t model.Transaction) (int64, error) {
	f.nextID++
	t.ID = f.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	f.txs = append(f.txs, t)
	return t.ID, nil
}

func (f *fakeStore) GetByPeriod(userID int64, start, end time.Time) ([]model.Transaction, error) {
	return f.txs, nil
}

func (f *fakeStore) GetLastTransaction(userID int64) (*model.Transaction, error) {
	if len(f.txs) == 0 {
		return nil, nil
	}
	t := f.txs[len(f.txs)-1]
	return &t, nil
}

func (f *fakeStore) DeleteTransaction(id, userID int64) (*model.Transaction, error) {
	for i, t := range f.txs {
		if t.ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateTransactionCategory(txID, categoryID int64) error {
	for i := range f.txs {
		if f.txs[i].ID == txID {
			f.txs[i].CategoryID = categoryID
		}
	}
	return nil
}

func (f *fakeStore) ListLearnedHints(userID int64, limit int) ([]model.LearnedHint, error) {
	return nil, nil
}

func (f *fakeStore) GetAllTelegramIDs() ([]int64, error) {
	return []int64{123}, nil
}

// fakeKeywords là kho từ khóa rỗng (user chưa dạy gì)
type fakeKeywords struct {
	learned map[string]int64
}

func (f *fakeKeywords) GetUserKeyword(userID int64, keyword string) (*model.UserKeyword, error) {
	if id, ok := f.learned[keyword]; ok {
		return &model.UserKeyword{UserID: userID, Keyword: keyword, CategoryID: id}, nil
	}
	return nil, nil
}

func (f *fakeKeywords) ListUserKeywords(userID int64) ([]model.UserKeyword, error) {
	return nil, nil
}

func (f *fakeKeywords) UpsertUserKeyword(userID int64, keyword string, categoryID int64) error {
	if f.learned == nil {
		f.learned = make(map[string]int64)
	}
	f.learned[keyword] = categoryID
	return nil
}

func newTestHandler() (*FinanceHandler, *fakeStore, *fakeKeywords) {
	store := &fakeStore{}
	keywords := &fakeKeywords{}
	cache := service.NewCategoryCache(nil) // chưa refresh: dùng seed mặc định
	resolver := service.NewResolver(keywords, cache, service.DefaultResolverConfig())
	h := NewFinanceHandler(store, service.NewParser(service.DefaultParserConfig()), resolver, cache, nil)
	return h, store, keywords
}

func postMessage(t *testing.T, h *FinanceHandler, text string) model.MessageResult {
	t.Helper()
	body, _ := json.Marshal(model.MessageCreate{TelegramID: 123, Text: text})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result model.MessageResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	return result
}

func TestHandleMessageNeedsSelection(t *testing.T) {
	h, store, _ := newTestHandler()

	// Ghi chú không khớp từ khóa nào: rơi vào "Khác" và phải hỏi lại user
	result := postMessage(t, h, "50k xyzqq")

	assert.True(t, result.Saved)
	assert.Equal(t, float64(50000), result.Amount)
	assert.Equal(t, "xyzqq", result.Note)
	assert.Equal(t, model.OtherCategoryName, result.CategoryName)
	assert.True(t, result.NeedsSelection)
	assert.Len(t, result.Categories, len(model.DefaultCategories()))
	assert.Equal(t, "parser", result.Source)
	require.Len(t, store.txs, 1)
	assert.Equal(t, "50k xyzqq", store.txs[0].RawText)
}

func TestHandleMessageAutoCategorized(t *testing.T) {
	h, _, _ := newTestHandler()

	result := postMessage(t, h, "50k cafe")

	assert.True(t, result.Saved)
	assert.Equal(t, "Ăn uống", result.CategoryName)
	assert.False(t, result.NeedsSelection)
	assert.Empty(t, result.Categories)
	assert.Equal(t, float64(50000), result.TodayExpense)
}

func TestHandleMessageNoAmountKhongLuu(t *testing.T) {
	h, store, _ := newTestHandler()

	result := postMessage(t, h, "hello world")

	assert.False(t, result.Saved)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, store.txs)
}

func TestHandleMessageKhacWithoutNoteNoSelection(t *testing.T) {
	h, _, _ := newTestHandler()

	// Không có ghi chú thì không có gì để học: lưu vào "Khác" và không hỏi lại
	result := postMessage(t, h, "75k")

	assert.True(t, result.Saved)
	assert.Equal(t, model.OtherCategoryName, result.CategoryName)
	assert.False(t, result.NeedsSelection)
}

func TestUpdateTransactionCategoryLearnsKeyword(t *testing.T) {
	h, store, keywords := newTestHandler()

	saved := postMessage(t, h, "50k xyzqq")
	require.True(t, saved.NeedsSelection)

	muaSamID := int64(5) // "Mua sắm" trong seed
	body, _ := json.Marshal(model.CategoryUpdateRequest{
		TelegramID: 123,
		CategoryID: muaSamID,
		Note:       "xyzqq",
	})
	req := httptest.NewRequest(http.MethodPut, "/transactions/1/category", bytes.NewReader(body))
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.UpdateTransactionCategory(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result model.CategoryUpdateResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))

	assert.Equal(t, "Mua sắm", result.CategoryName)
	assert.True(t, result.Learned)
	assert.Equal(t, muaSamID, store.txs[0].CategoryID)
	assert.Equal(t, muaSamID, keywords.learned["xyzqq"])

	// Lần sau cùng ghi chú đó thì tự xếp đúng nhóm, không hỏi lại
	again := postMessage(t, h, "30k xyzqq")
	assert.Equal(t, "Mua sắm", again.CategoryName)
	assert.False(t, again.NeedsSelection)
}

func TestSearchTransactions(t *testing.T) {
	h, store, _ := newTestHandler()
	now := time.Now()
	store.txs = []model.Transaction{
		{ID: 1, UserID: 1, Amount: 30000, CategoryID: 2, Note: "trà sữa gong cha", CreatedAt: now},
		{ID: 2, UserID: 1, Amount: 50000, CategoryID: 2, Note: "cơm trưa", CreatedAt: now},
		{ID: 3, UserID: 1, Amount: 45000, CategoryID: 2, Note: "Trà sữa toco", CreatedAt: now},
	}

	req := httptest.NewRequest(http.MethodGet, "/transactions?telegram_id=123&period=month&keyword=trà+sữa", nil)
	w := httptest.NewRecorder()
	h.SearchTransactions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out model.TransactionsOutput
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))

	// Lọc không phân biệt hoa thường, cộng tổng các giao dịch khớp
	require.Len(t, out.Items, 2)
	assert.Equal(t, float64(75000), out.Total)
	assert.Equal(t, "Ăn uống", out.Items[0].CategoryName)
	assert.Equal(t, "month", out.Period)
}
