package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"spendsense/internal/core"
)

// DefaultModel is the Gemini model used when the config does not override it.
const DefaultModel = "gemini-2.5-flash"

const extractPrompt = "You are a bank SMS parser for a personal finance tracker.\n\n" +
	"Task:\n" +
	"- Extract the transaction described by the SMS message below.\n" +
	"- Output STRICT JSON only (no comments, no trailing text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"amount\": number, the transaction amount, always positive\n" +
	"- \"type\": string, \"DEBIT\" or \"CREDIT\"\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"merchant\": string, the counterparty or payee\n" +
	"- \"bankName\": string, the sending bank\n" +
	"- \"refNo\": string, the transaction reference number\n" +
	"- \"suggestedPurpose\": string, a short human-readable purpose\n\n" +
	"Rules:\n" +
	"- \"debited\", \"spent\", \"paid\" mean DEBIT; \"credited\", \"received\" mean CREDIT.\n" +
	"- Strip currency symbols and thousands separators from the amount.\n" +
	"- Two-digit years are 20xx.\n" +
	"- If a field cannot be determined, use an empty string (or 0 for amount).\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"{\" and end with \"}\".\n\n" +
	"Message:\n"

// GeminiExtractor calls the Gemini API to parse SMS messages. The zero
// value is not usable; construct with NewGeminiExtractor.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor builds the client from ambient credentials
// (GEMINI_API_KEY). Model may be empty to use DefaultModel.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// extractPayload mirrors the JSON object the model is instructed to emit.
type extractPayload struct {
	Amount           float64 `json:"amount"`
	Type             string  `json:"type"`
	Date             string  `json:"date"`
	Merchant         string  `json:"merchant"`
	BankName         string  `json:"bankName"`
	RefNo            string  `json:"refNo"`
	SuggestedPurpose string  `json:"suggestedPurpose"`
}

func (e *GeminiExtractor) Extract(ctx context.Context, message string) (core.Draft, error) {
	if strings.TrimSpace(message) == "" {
		return core.Draft{}, ErrEmptyMessage
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: extractPrompt + message}},
		},
	}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return core.Draft{}, fmt.Errorf("%w: generate content: %v", ErrExtraction, err)
	}
	raw := resp.Text()
	if raw == "" {
		return core.Draft{}, fmt.Errorf("%w: empty response from model", ErrExtraction)
	}
	return DecodePayload(raw, message)
}

// DecodePayload parses the model's reply, tolerating Markdown fences the
// model was told not to emit, and converts it into a draft.
func DecodePayload(raw, message string) (core.Draft, error) {
	var p extractPayload
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &p); err != nil {
		return core.Draft{}, fmt.Errorf("%w: unmarshal reply: %v", ErrExtraction, err)
	}

	d := core.Draft{
		Bank:             p.BankName,
		RefNo:            p.RefNo,
		Merchant:         p.Merchant,
		SuggestedPurpose: p.SuggestedPurpose,
		RawSMS:           message,
		Amount:           core.Money{Cents: core.CentsFromFloat(p.Amount)},
	}
	switch strings.ToUpper(strings.TrimSpace(p.Type)) {
	case string(core.Credit):
		d.Direction = core.Credit
	default:
		d.Direction = core.Debit
	}
	if date, err := core.ParseDate(p.Date); err == nil {
		d.Date = date
	}
	return d, nil
}

// cleanModelJSON strips code fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
