package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

// AITransaction là một giao dịch do Gemini bóc tách
type AITransaction struct {
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
	Category string  `json:"category"` // tên danh mục, không phải ID
	Type     string  `json:"type"`     // "expense" hoặc "income"
}

// AIParseResult là JSON Gemini trả về. Understood = false nghĩa là AI chịu,
// caller phải rơi về parser thường.
type AIParseResult struct {
	Transactions []AITransaction `json:"transactions"`
	Understood   bool            `json:"understood"`
	Message      string          `json:"message,omitempty"`
}

const aiSystemPrompt = `Bạn là một trợ lý phân tích chi tiêu thông minh. Nhiệm vụ của bạn là trích xuất thông tin giao dịch tài chính từ tin nhắn tiếng Việt tự nhiên.

QUAN TRỌNG - Quy tắc parse:
1. Số tiền có thể ở BẤT KỲ vị trí nào trong câu (đầu, giữa, cuối)
2. Hậu tố tiền: k/K = nghìn (x1000), tr/m/M = triệu (x1000000)
3. Nếu số tiền KHÔNG có hậu tố và < 1000, mặc định là NGHÌN ĐỒNG: "350" = 350,000đ
4. Nếu có nhiều giao dịch, tách thành nhiều items
5. Mặc định là CHI (expense), chỉ THU (income) nếu rõ ràng là thu nhập (bán, nhận, lương...)

Trả về JSON:
{
  "transactions": [
    {"amount": <number>, "note": "<mô tả ngắn gọn>", "category": "<tên danh mục>", "type": "expense" hoặc "income"}
  ],
  "understood": true/false,
  "message": "<lý do nếu không hiểu>"
}

NẾU KHÔNG TÌM THẤY SỐ TIỀN trong tin nhắn -> understood=false
`

// AIParser gọi Gemini để parse tin nhắn trước khi rơi về parser thường.
// Đây là collaborator tùy chọn: không có GEMINI_API_KEY thì Enabled() = false
// và toàn bộ pipeline chạy bằng parser xác định.
type AIParser struct {
	client *genai.Client
	model  string
}

// NewAIParser trả về nil, nil khi AI không được cấu hình, không phải lỗi.
func NewAIParser(ctx context.Context) (*AIParser, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &AIParser{client: client, model: "gemini-2.0-flash"}, nil
}

// Enabled an toàn với receiver nil để caller khỏi phải check hai lần
func (a *AIParser) Enabled() bool {
	return a != nil && a.client != nil
}

// Parse gửi tin nhắn cho Gemini kèm các từ khóa user đã dạy làm ngữ cảnh.
// Mọi lỗi (mạng, JSON hỏng...) trả về qua error để caller fallback.
func (a *AIParser) Parse(ctx context.Context, text string, hints []model.LearnedHint) (AIParseResult, error) {
	if !a.Enabled() {
		return AIParseResult{}, fmt.Errorf("AI chưa được cấu hình")
	}

	var prompt strings.Builder
	prompt.WriteString(aiSystemPrompt)

	// Danh mục cho AI chọn lấy từ seed để khỏi lệch tên với DB
	names := make([]string, 0, len(model.DefaultCategories()))
	for _, c := range model.DefaultCategories() {
		names = append(names, c.Name)
	}
	prompt.WriteString("\nDanh mục có sẵn: " + strings.Join(names, ", ") + "\n")

	if len(hints) > 0 {
		prompt.WriteString("\nTừ khóa user này đã dạy bot (ưu tiên dùng):\n")
		for _, h := range hints {
			prompt.WriteString(fmt.Sprintf("- %q -> %s\n", h.Keyword, h.CategoryName))
		}
	}

	prompt.WriteString(fmt.Sprintf(
		"\n---\n\nPhân tích tin nhắn chi tiêu sau và trả về JSON:\n\nTin nhắn: %q\n\nChỉ trả về JSON, không giải thích thêm.", text))

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt.String()), nil)
	if err != nil {
		return AIParseResult{}, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return AIParseResult{}, fmt.Errorf("AI trả về response rỗng")
	}

	rawText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			rawText += part.Text
		}
	}

	result, err := parseAIResponse(rawText)
	if err != nil {
		log.Printf("[AI ERROR] Không parse được response: %v. Raw: %s", err, rawText)
		return AIParseResult{}, err
	}
	return result, nil
}

// parseAIResponse bóc JSON khỏi response, chịu được markdown fence
// (Gemini rất thích bọc ```json ... ```)
func parseAIResponse(raw string) (AIParseResult, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var result AIParseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// Thử vớt cụm {...} trong response lẫn chữ
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start >= 0 && end > start {
			if err2 := json.Unmarshal([]byte(raw[start:end+1]), &result); err2 == nil {
				return result, nil
			}
		}
		return AIParseResult{}, err
	}
	return result, nil
}
