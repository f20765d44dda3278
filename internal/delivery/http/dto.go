package http

import (
	"time"

	"github.com/smartcart/backend/internal/domain"
)

// identifyRequest is the body of POST /identify-product
type identifyRequest struct {
	Image    string `json:"image" binding:"required"`
	Quantity int    `json:"quantity"`
}

// identifyResponse reports the terminal status of one scan
type identifyResponse struct {
	Recognized           bool               `json:"recognized"`
	Outcome              domain.OutcomeKind `json:"outcome,omitempty"`
	ScanID               string             `json:"scanId"`
	State                domain.ScanState   `json:"state"`
	Product              *domain.Product    `json:"product,omitempty"`
	Label                string             `json:"label,omitempty"`
	Confidence           *float64           `json:"confidence,omitempty"`
	IsGroceryItem        *bool              `json:"isGroceryItem,omitempty"`
	MatchScore           *float64           `json:"matchScore,omitempty"`
	Suggestion           string             `json:"suggestion,omitempty"`
	Message              string             `json:"message"`
	RequiresConfirmation bool               `json:"requiresConfirmation"`
	CartLine             *domain.CartLine   `json:"cartLine,omitempty"`
}

// newIdentifyResponse flattens a scan result for the client.
// recognized is true only for a Confident outcome, including a confirmed scan.
// Otherwise suggestion carries the product name when product is set, or the
// raw label when nothing matched. A confirmation prompt sets requiresConfirmation.
func newIdentifyResponse(result *domain.ScanResult) identifyResponse {
	resp := identifyResponse{
		ScanID:   result.ScanID,
		State:    result.State,
		Message:  result.Message(),
		CartLine: result.CartLine,
	}

	if r := result.Recognition; r != nil {
		confidence := r.Confidence
		grocery := r.IsGroceryItem
		resp.Label = r.Label
		resp.Confidence = &confidence
		resp.IsGroceryItem = &grocery
	}

	if result.Outcome == nil {
		return resp
	}
	resp.Outcome = result.Outcome.Kind()

	var score float64
	switch o := result.Outcome.(type) {
	case domain.Confident:
		resp.Recognized = true
		resp.Product = productPtr(o.Product)
		score = o.Score
	case domain.BestGuess:
		resp.Product = productPtr(o.Product)
		resp.Suggestion = o.Product.Name
		score = o.Score
	case domain.NeedsConfirmation:
		resp.RequiresConfirmation = true
		resp.Product = productPtr(o.Product)
		resp.Suggestion = o.Product.Name
		notGrocery := false
		resp.IsGroceryItem = &notGrocery
		score = o.Score
	case domain.NoMatch:
		resp.Suggestion = o.Label
		return resp
	}
	resp.MatchScore = &score
	return resp
}

func productPtr(p domain.Product) *domain.Product {
	return &p
}

// addToCartRequest is the body of POST /cart
type addToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

// updateQuantityRequest is the body of PATCH /cart/:id
type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// devTokenRequest is the body of POST /dev/token
type devTokenRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    int64     `json:"userId"`
}
