package recognition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartcart/backend/internal/domain"
)

// modelAnswer is the JSON object the model is asked to produce.
// Pointer fields tell a missing key apart from a zero value.
type modelAnswer struct {
	ProductName   *string  `json:"productName"`
	Confidence    *float64 `json:"confidence"`
	IsGroceryItem *bool    `json:"isGroceryItem"`
}

// ParseRecognition extracts a RecognitionResult from the model's text answer.
// productName and confidence are required; a missing isGroceryItem counts as false.
// Confidence is clamped to [0, 1].
func ParseRecognition(text string) (*domain.RecognitionResult, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: answer is not JSON", domain.ErrRecognitionUnavailable)
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("%w: malformed answer: %v", domain.ErrRecognitionUnavailable, err)
	}

	if answer.ProductName == nil || strings.TrimSpace(*answer.ProductName) == "" {
		return nil, fmt.Errorf("%w: answer has no productName", domain.ErrRecognitionUnavailable)
	}
	if answer.Confidence == nil {
		return nil, fmt.Errorf("%w: answer has no confidence", domain.ErrRecognitionUnavailable)
	}

	return &domain.RecognitionResult{
		Label:         *answer.ProductName,
		Confidence:    domain.ClampConfidence(*answer.Confidence),
		IsGroceryItem: answer.IsGroceryItem != nil && *answer.IsGroceryItem,
	}, nil
}

// extractJSONObject returns the outermost {...} span of text, tolerating
// markdown fences or prose around it
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
