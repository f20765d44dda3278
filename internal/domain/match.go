package domain

// MatchOutcome is the result of matching one recognition against the catalog.
// The concrete type is exactly one of Confident, NeedsConfirmation, BestGuess or NoMatch.
type MatchOutcome interface {
	isMatchOutcome()
	// Kind returns the wire name of the outcome
	Kind() OutcomeKind
}

// OutcomeKind names a MatchOutcome variant
type OutcomeKind string

const (
	OutcomeConfident         OutcomeKind = "confident"
	OutcomeNeedsConfirmation OutcomeKind = "needs_confirmation"
	OutcomeBestGuess         OutcomeKind = "best_guess"
	OutcomeNoMatch           OutcomeKind = "no_match"
)

// Confident means the product is added without asking
type Confident struct {
	Product Product
	Score   float64
}

// NeedsConfirmation means the item was recognized but flagged as non-grocery.
// The cart must not change until the user confirms.
type NeedsConfirmation struct {
	Product Product
	Label   string
	Score   float64
}

// BestGuess means recognition confidence was low but a catalog entry still matched.
// The product is added and the user is told it was a guess.
type BestGuess struct {
	Product Product
	Label   string
	Score   float64
}

// NoMatch means no catalog entry resembles the label
type NoMatch struct {
	Label string
}

func (Confident) isMatchOutcome()         {}
func (NeedsConfirmation) isMatchOutcome() {}
func (BestGuess) isMatchOutcome()         {}
func (NoMatch) isMatchOutcome()           {}

func (Confident) Kind() OutcomeKind         { return OutcomeConfident }
func (NeedsConfirmation) Kind() OutcomeKind { return OutcomeNeedsConfirmation }
func (BestGuess) Kind() OutcomeKind         { return OutcomeBestGuess }
func (NoMatch) Kind() OutcomeKind           { return OutcomeNoMatch }

// MatchResult is the best catalog candidate for a label
type MatchResult struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}
