package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParserParse(t *testing.T) {
	p := NewParser(DefaultParserConfig())

	tests := []struct {
		name         string
		input        string
		wantAmount   float64
		wantNote     string
		wantValid    bool
		wantErrorMsg string
	}{
		// =================================================================
		// NHÓM 1: CÚ PHÁP CƠ BẢN (SỐ TIỀN ĐỨNG ĐẦU)
		// =================================================================
		{
			name:       "Đơn vị k",
			input:      "50k cafe",
			wantAmount: 50000, wantNote: "cafe", wantValid: true,
		},
		{
			name:       "Đơn vị tr",
			input:      "2tr tiền nhà",
			wantAmount: 2000000, wantNote: "tiền nhà", wantValid: true,
		},
		{
			name:       "Đơn vị m",
			input:      "10m lương",
			wantAmount: 10000000, wantNote: "lương", wantValid: true,
		},
		{
			name:       "Đơn vị viết đầy đủ: nghìn",
			input:      "50nghìn gửi xe",
			wantAmount: 50000, wantNote: "gửi xe", wantValid: true,
		},
		{
			name:       "Đơn vị viết đầy đủ: triệu (phải ăn trước 'tr')",
			input:      "3triệu học phí",
			wantAmount: 3000000, wantNote: "học phí", wantValid: true,
		},
		{
			name:       "Đơn vị viết hoa",
			input:      "50K cafe",
			wantAmount: 50000, wantNote: "cafe", wantValid: true,
		},
		{
			name:       "Không có ghi chú",
			input:      "50k",
			wantAmount: 50000, wantNote: "", wantValid: true,
		},

		// =================================================================
		// NHÓM 2: SỐ THẬP PHÂN VÀ DẤU
		// =================================================================
		{
			name:       "Thập phân dùng dấu chấm",
			input:      "1.5m điện",
			wantAmount: 1500000, wantNote: "điện", wantValid: true,
		},
		{
			name:       "Thập phân dùng dấu phẩy",
			input:      "1,5m điện",
			wantAmount: 1500000, wantNote: "điện", wantValid: true,
		},
		{
			name:       "Dấu cộng không đổi dấu số tiền",
			input:      "+100k lương",
			wantAmount: 100000, wantNote: "lương", wantValid: true,
		},
		{
			name:       "Dấu trừ không đổi dấu số tiền",
			input:      "-20k trà đá",
			wantAmount: 20000, wantNote: "trà đá", wantValid: true,
		},

		// =================================================================
		// NHÓM 3: QUY ƯỚC SỐ NHỎ = NGHÌN ĐỒNG
		// =================================================================
		{
			name:       "Số nhỏ không đơn vị hiểu là nghìn",
			input:      "350 ăn sáng",
			wantAmount: 350000, wantNote: "ăn sáng", wantValid: true,
		},
		{
			name:       "Biên dưới: 999 vẫn nhân nghìn",
			input:      "999 ăn vặt",
			wantAmount: 999000, wantNote: "ăn vặt", wantValid: true,
		},
		{
			name:       "Biên trên: 1000 giữ nguyên",
			input:      "1000 gửi xe",
			wantAmount: 1000, wantNote: "gửi xe", wantValid: true,
		},
		{
			name:       "Số lớn không đơn vị giữ nguyên",
			input:      "50000 trà sữa",
			wantAmount: 50000, wantNote: "trà sữa", wantValid: true,
		},
		{
			name:       "Hậu tố phải dính liền số, không ăn chữ đầu ghi chú",
			input:      "100 trà đá",
			wantAmount: 100000, wantNote: "trà đá", wantValid: true,
		},
		{
			name:       "Ghi chú bắt đầu bằng chữ m cũng không bị ăn",
			input:      "200 mua rau",
			wantAmount: 200000, wantNote: "mua rau", wantValid: true,
		},
		{
			name:       "Có đơn vị thì không nhân: 0k hợp lệ",
			input:      "0k test",
			wantAmount: 0, wantNote: "test", wantValid: true,
		},

		// =================================================================
		// NHÓM 4: SỐ TIỀN ĐỨNG CUỐI CÂU
		// =================================================================
		{
			name:       "Ghi chú trước, số sau",
			input:      "cafe 50",
			wantAmount: 50000, wantNote: "cafe", wantValid: true,
		},
		{
			name:       "Số sau có đơn vị",
			input:      "ăn trưa 35k",
			wantAmount: 35000, wantNote: "ăn trưa", wantValid: true,
		},
		{
			name:       "Số trong ghi chú không bị nhận nhầm, lấy cụm số cuối",
			input:      "lương tháng 12 15tr",
			wantAmount: 15000000, wantNote: "lương tháng 12", wantValid: true,
		},
		{
			name:       "Ghi chú chứa ký tự lạ",
			input:      "up x7u colorvs 350",
			wantAmount: 350000, wantNote: "up x7u colorvs", wantValid: true,
		},

		// =================================================================
		// NHÓM 5: INPUT KHÔNG HỢP LỆ
		// =================================================================
		{
			name:         "Tin nhắn trống",
			input:        "",
			wantValid:    false,
			wantErrorMsg: "Tin nhắn trống",
		},
		{
			name:         "Toàn khoảng trắng",
			input:        "   ",
			wantValid:    false,
			wantErrorMsg: "Tin nhắn trống",
		},
		{
			name:      "Không có số",
			input:     "hello world",
			wantValid: false,
		},
		{
			name:      "Số dính liền chữ không tính là số tiền",
			input:     "mua iphone15",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.input)

			assert.Equal(t, tt.wantValid, got.IsValid)
			if tt.wantValid {
				assert.Equal(t, tt.wantAmount, got.Amount)
				assert.Equal(t, tt.wantNote, got.Note)
				assert.Empty(t, got.ErrorMessage)
			} else {
				assert.NotEmpty(t, got.ErrorMessage)
				if tt.wantErrorMsg != "" {
					assert.Equal(t, tt.wantErrorMsg, got.ErrorMessage)
				}
			}
		})
	}
}

func TestParserKeepsRawText(t *testing.T) {
	p := NewParser(DefaultParserConfig())

	got := p.Parse("  50k cafe sữa  ")
	assert.True(t, got.IsValid)
	// RawText giữ tin nhắn sau khi trim, kể cả khi parse được
	assert.Equal(t, "50k cafe sữa", got.RawText)

	bad := p.Parse("hello world")
	assert.False(t, bad.IsValid)
	assert.Equal(t, "hello world", bad.RawText)
	// Note giữ nguyên text để bot còn hiện lại cho user
	assert.Equal(t, "hello world", bad.Note)
}

func TestParserConfigurableThreshold(t *testing.T) {
	// Ngưỡng 100: chỉ số dưới 100 mới nhân
	p := NewParser(ParserConfig{SmallNumberThreshold: 100, SmallNumberMultiplier: 1000})

	got := p.Parse("50 cafe")
	assert.Equal(t, float64(50000), got.Amount)

	got = p.Parse("350 cafe")
	assert.Equal(t, float64(350), got.Amount)
}
