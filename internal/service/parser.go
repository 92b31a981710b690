package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// Cú pháp hỗ trợ:
//   "50k cafe"            -> amount=50000, note="cafe"
//   "2tr tiền nhà"        -> amount=2000000, note="tiền nhà"
//   "1,5m điện"           -> amount=1500000, note="điện"
//   "+100k lương"         -> amount=100000, note="lương" (dấu +/- chỉ là cú pháp)
//   "cafe 50"             -> amount=50000, note="cafe" (số tiền đứng cuối cũng được)
//   "lương tháng 12 15tr" -> amount=15000000, note="lương tháng 12"
//
// Lưu ý: hậu tố dài phải đứng trước trong alternation (triệu trước tr, nghìn trước k)
// để "3triệu x" không bị tách nhầm thành "3" + "tr". Hậu tố phải dính liền số:
// "50000 trà sữa" là 50000 + ghi chú "trà sữa", không được lấy "tr" của "trà".
var (
	// Số tiền đứng đầu câu, phần còn lại là ghi chú
	leadingAmountRe = regexp.MustCompile(`(?i)^([+-])?(\d+(?:[.,]\d+)?)(triệu|nghìn|tr|m|k)?\s*(.*)$`)
	// Số tiền đứng cuối câu, phía trước là ghi chú. Prefix greedy nên số tiền
	// luôn là cụm số CUỐI CÙNG, và phải tách khỏi ghi chú bằng khoảng trắng.
	trailingAmountRe = regexp.MustCompile(`(?i)^(?:(.*\S)\s+)?([+-])?(\d+(?:[.,]\d+)?)\s*(triệu|nghìn|tr|m|k)?$`)
)

// ParserConfig gom các quy ước locale của parser thành tham số đặt tên được,
// thay vì hằng số magic nằm rải trong code.
type ParserConfig struct {
	// Số trần nhỏ hơn ngưỡng này được hiểu là nghìn đồng: "350" = 350k.
	// Ở VN không ai ghi giao dịch 350 đồng.
	SmallNumberThreshold  float64
	SmallNumberMultiplier float64
}

// DefaultParserConfig là quy ước cho VND
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		SmallNumberThreshold:  1000,
		SmallNumberMultiplier: 1000,
	}
}

// Parser bóc tách số tiền + ghi chú từ tin nhắn tự nhiên.
// Hàm thuần, không I/O, gọi đồng thời thoải mái.
type Parser struct {
	cfg ParserConfig
}

func NewParser(cfg ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// Parse xử lý một tin nhắn và trả về ParsedMessage.
// Không bao giờ panic/error: tin nhắn không hiểu được thì IsValid = false.
func (p *Parser) Parse(text string) model.ParsedMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ParsedMessage{
			RawText:      text,
			ErrorMessage: "Tin nhắn trống",
		}
	}

	var sign, numberStr, suffix, note string
	if m := leadingAmountRe.FindStringSubmatch(text); m != nil {
		sign, numberStr, suffix, note = m[1], m[2], m[3], m[4]
	} else if m := trailingAmountRe.FindStringSubmatch(text); m != nil {
		note, sign, numberStr, suffix = m[1], m[2], m[3], m[4]
	} else {
		return model.ParsedMessage{
			Note:         text,
			RawText:      text,
			ErrorMessage: "Không nhận dạng được số tiền. Hãy gõ theo format: 50k cafe",
		}
	}

	// Dấu +/- được chấp nhận trong cú pháp nhưng không đổi dấu số tiền:
	// thu hay chi do loại danh mục quyết định, amount luôn không âm.
	_ = sign

	// Cả . và , đều là dấu thập phân
	numberStr = strings.ReplaceAll(numberStr, ",", ".")
	amount, err := strconv.ParseFloat(numberStr, 64)
	if err != nil {
		return model.ParsedMessage{
			Note:         text,
			RawText:      text,
			ErrorMessage: "Số tiền không hợp lệ",
		}
	}

	switch strings.ToLower(suffix) {
	case "k", "nghìn":
		amount *= 1_000
	case "tr", "m", "triệu":
		amount *= 1_000_000
	default:
		// Không có hậu tố: số nhỏ hơn ngưỡng được hiểu là nghìn.
		// "0k" không rơi vào nhánh này vì đã có hậu tố.
		if amount < p.cfg.SmallNumberThreshold {
			amount *= p.cfg.SmallNumberMultiplier
		}
	}

	return model.ParsedMessage{
		Amount:  amount,
		Note:    strings.TrimSpace(note),
		RawText: text,
		IsValid: true,
	}
}
