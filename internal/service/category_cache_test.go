package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

type fakeCategoryLister struct {
	cats []model.Category
	err  error
}

func (f *fakeCategoryLister) ListCategories() ([]model.Category, error) {
	return f.cats, f.err
}

func TestCategoryCacheFallbackBeforeFirstLoad(t *testing.T) {
	cache := NewCategoryCache(&fakeCategoryLister{})

	// Chưa refresh lần nào: trả về bộ seed mặc định, không bao giờ rỗng
	cats := cache.All()
	assert.Equal(t, len(model.DefaultCategories()), len(cats))
	assert.Equal(t, model.OtherCategoryName, cats[len(cats)-1].Name)
}

func TestCategoryCacheRefresh(t *testing.T) {
	lister := &fakeCategoryLister{
		cats: []model.Category{
			{ID: 1, Name: "Ăn uống", Type: model.TypeExpense},
			{ID: 2, Name: "Khác", Type: model.TypeExpense},
		},
	}
	cache := NewCategoryCache(lister)
	cache.Refresh()

	cats := cache.All()
	assert.Len(t, cats, 2)
	assert.Equal(t, "Ăn uống", cats[0].Name)
}

func TestCategoryCacheKeepsDataOnError(t *testing.T) {
	lister := &fakeCategoryLister{
		cats: []model.Category{{ID: 1, Name: "Ăn uống", Type: model.TypeExpense}},
	}
	cache := NewCategoryCache(lister)
	cache.Refresh()

	// DB hỏng ở lần refresh sau: giữ nguyên dữ liệu cũ
	lister.err = errors.New("db down")
	cache.Refresh()

	assert.Len(t, cache.All(), 1)
}

func TestCategoryCacheIgnoresEmptyResult(t *testing.T) {
	lister := &fakeCategoryLister{
		cats: []model.Category{{ID: 1, Name: "Ăn uống", Type: model.TypeExpense}},
	}
	cache := NewCategoryCache(lister)
	cache.Refresh()

	// DB trả về rỗng (chưa seed xong): không thay cache
	lister.cats = nil
	cache.Refresh()

	assert.Len(t, cache.All(), 1)
}
