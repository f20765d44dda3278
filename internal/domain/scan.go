package domain

// ScanState is a step of the per-user scan state machine
type ScanState string

const (
	ScanIdle                 ScanState = "idle"
	ScanCapturing            ScanState = "capturing"
	ScanRecognizing          ScanState = "recognizing"
	ScanMatching             ScanState = "matching"
	ScanAddedConfident       ScanState = "added_confident"
	ScanAddedBestGuess       ScanState = "added_best_guess"
	ScanAwaitingConfirmation ScanState = "awaiting_confirmation"
	ScanRejected             ScanState = "rejected"
	ScanFailed               ScanState = "failed"
)

// InFlight reports whether a scan in this state still owns the user's scan slot
func (s ScanState) InFlight() bool {
	switch s {
	case ScanCapturing, ScanRecognizing, ScanMatching:
		return true
	}
	return false
}

// ScanResult is the terminal status of one scan attempt
type ScanResult struct {
	ScanID      string
	State       ScanState
	Recognition *RecognitionResult
	Outcome     MatchOutcome
	CartLine    *CartLine
	Quantity    int
}

// Message is the human-readable status shown for a scan result
func (r *ScanResult) Message() string {
	switch o := r.Outcome.(type) {
	case Confident:
		return "Added " + o.Product.Name + " to your cart"
	case BestGuess:
		return "We think this is " + o.Product.Name + ". It was added to your cart, please double-check"
	case NeedsConfirmation:
		return o.Label + " does not look like a grocery item. Add " + o.Product.Name + " anyway?"
	case NoMatch:
		return "Could not find '" + o.Label + "' in catalog"
	}
	if r.State == ScanIdle {
		return "Scan cancelled"
	}
	return ""
}

// ScanStatus is the current scan state for a user
type ScanStatus struct {
	State  ScanState `json:"state"`
	ScanID string    `json:"scanId,omitempty"`
}
