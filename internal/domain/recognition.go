package domain

// RecognitionResult is the vision service's best guess for one frame.
// It is produced per scan and never persisted.
type RecognitionResult struct {
	Label         string  `json:"label"`
	Confidence    float64 `json:"confidence"` // always within [0, 1]
	IsGroceryItem bool    `json:"isGroceryItem"`
}

// Frame is a shaped still image ready for the recognition service
type Frame struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

// ClampConfidence bounds a raw upstream confidence to [0, 1]
func ClampConfidence(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
