package service

import (
	"log"
	"sync"
	"time"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// CategoryLister là phần của store mà cache cần
type CategoryLister interface {
	ListCategories() ([]model.Category, error)
}

// CategoryCache giữ danh sách danh mục trong RAM. Danh mục seed một lần lúc
// khởi động và gần như bất biến, nên mọi request đọc từ cache thay vì query
// DB; một goroutine nền refresh định kỳ cho chắc.
type CategoryCache struct {
	mu         sync.RWMutex
	categories []model.Category
	store      CategoryLister
}

func NewCategoryCache(store CategoryLister) *CategoryCache {
	return &CategoryCache{store: store}
}

// StartRefresher nạp danh mục ngay rồi refresh định kỳ.
// Gọi 1 lần duy nhất dưới dạng goroutine ở main.go.
func (c *CategoryCache) StartRefresher(interval time.Duration) {
	// Nạp ngay khi khởi động để có dữ liệu liền
	c.Refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		c.Refresh()
	}
}

// Refresh đọc lại danh mục từ DB và thay vào cache
func (c *CategoryCache) Refresh() {
	cats, err := c.store.ListCategories()
	if err != nil {
		log.Printf("[CACHE ERROR] Không thể nạp danh mục: %v", err)
		return
	}
	if len(cats) == 0 {
		// DB chưa seed xong thì giữ nguyên cache/fallback
		return
	}

	c.mu.Lock()
	c.categories = cats
	c.mu.Unlock()

	log.Printf("[CACHE] Đã nạp %d danh mục", len(cats))
}

// All trả về danh mục theo thứ tự seed. Trước lần nạp đầu tiên trả về bộ
// seed mặc định để resolver không bao giờ thiếu danh mục "Khác".
func (c *CategoryCache) All() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.categories) == 0 {
		return model.DefaultCategories()
	}
	return c.categories
}
