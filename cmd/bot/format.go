package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// Telegram giới hạn callback data 64 byte
const maxCallbackBytes = 64

// Hàm build string cho một phần báo cáo (Hôm nay hoặc Tháng này)
func buildSectionReport(title string, r *model.ReportOutput) string {
	text := fmt.Sprintf("📅 *%s:*\n", title)
	text += fmt.Sprintf("   📈 Thu: %s đ\n", formatCurrency(r.TotalIncome))
	text += fmt.Sprintf("   📉 Chi: %s đ\n", formatCurrency(r.TotalExpense))
	text += fmt.Sprintf("   🧾 Số giao dịch: %d\n", r.TransactionCount)

	if len(r.Breakdown) > 0 {
		text += "   - Chi theo nhóm:\n"
		for _, s := range r.Breakdown {
			text += fmt.Sprintf("     + %s: %s đ (%d lần)\n", s.CategoryName, formatCurrency(s.Total), s.Count)
		}
	}
	return text
}

// Hàm định dạng tiền tệ: 1000000 -> 1,000,000
func formatCurrency(amount float64) string {
	// Chuyển sang int để bỏ phần thập phân nếu là số nguyên
	s := fmt.Sprintf("%.0f", amount)
	// Logic thêm dấu phẩy
	if len(s) <= 3 {
		return s
	}
	var result []byte
	count := 0
	for i := len(s) - 1; i >= 0; i-- {
		count++
		result = append([]byte{s[i]}, result...)
		if count%3 == 0 && i > 0 && s[i-1] != '-' {
			result = append([]byte{','}, result...)
		}
	}
	return string(result)
}

// formatAmountShort viết gọn kiểu người Việt nhắn tin: 50000 -> "50k", 1500000 -> "1.5tr"
func formatAmountShort(amount float64) string {
	switch {
	case amount >= 1_000_000:
		v := amount / 1_000_000
		return trimZero(v) + "tr"
	case amount >= 1_000:
		v := amount / 1_000
		return trimZero(v) + "k"
	default:
		return trimZero(amount)
	}
}

func trimZero(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

// buildCategoryKeyboard tạo bàn phím inline chọn danh mục, 3 nút mỗi hàng
func buildCategoryKeyboard(txID int64, note string, categories []model.Category) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, c := range categories {
		btn := tgbotapi.NewInlineKeyboardButtonData(c.Name, categoryCallbackData(txID, c.ID, note))
		row = append(row, btn)
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// categoryCallbackData đóng gói "cat:{txID}:{catID}:{note}", cắt note cho vừa
// giới hạn 64 byte của Telegram (cắt tại ranh giới ký tự UTF-8)
func categoryCallbackData(txID, catID int64, note string) string {
	prefix := fmt.Sprintf("cat:%d:%d:", txID, catID)
	budget := maxCallbackBytes - len(prefix)
	if budget < 0 {
		budget = 0
	}
	return prefix + truncateUTF8(note, budget)
}

func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

// parseCategoryCallback giải mã callback data. ok = false với data lạ
// (nút của phiên bản bot cũ chẳng hạn)
func parseCategoryCallback(data string) (txID, catID int64, note string, ok bool) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) < 3 || parts[0] != "cat" {
		return 0, 0, "", false
	}
	txID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, "", false
	}
	catID, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, "", false
	}
	if len(parts) == 4 {
		note = parts[3]
	}
	return txID, catID, note, true
}
