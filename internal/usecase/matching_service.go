package usecase

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/smartcart/backend/internal/domain"
)

// Default decision thresholds
const (
	defaultMinConfidence = 0.6 // recognition confidence needed to skip the best-guess path
	defaultMinMatchScore = 0.3 // match score must exceed this to count as a match
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidence      float64
	MinMatchScore      float64
	EnableDebugLogging bool
}

// MatchingService resolves recognized labels to catalog products
type MatchingService struct {
	minConfidence      float64
	minMatchScore      float64
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	minConfidence := config.MinConfidence
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}

	minScore := config.MinMatchScore
	if minScore <= 0 {
		minScore = defaultMinMatchScore
	}

	return &MatchingService{
		minConfidence:      minConfidence,
		minMatchScore:      minScore,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Decide turns a recognition result into a MatchOutcome.
//
//	confidence >= min, match, grocery     -> Confident
//	confidence >= min, match, not grocery -> NeedsConfirmation
//	confidence <  min, match              -> BestGuess
//	no match                              -> NoMatch
func (s *MatchingService) Decide(result *domain.RecognitionResult, products []domain.Product) domain.MatchOutcome {
	if result == nil {
		return domain.NoMatch{}
	}

	match := s.FindBestMatch(result.Label, products)
	if match == nil {
		if s.enableDebugLogging {
			log.Printf("[MATCH] No catalog match for %q", result.Label)
		}
		return domain.NoMatch{Label: result.Label}
	}

	confidence := domain.ClampConfidence(result.Confidence)
	switch {
	case confidence >= s.minConfidence && result.IsGroceryItem:
		return domain.Confident{Product: match.Product, Score: match.Score}
	case confidence >= s.minConfidence:
		return domain.NeedsConfirmation{Product: match.Product, Label: result.Label, Score: match.Score}
	default:
		return domain.BestGuess{Product: match.Product, Label: result.Label, Score: match.Score}
	}
}

// FindBestMatch returns the highest scoring catalog product for label, or nil
// when no candidate scores above the acceptance threshold.
// Equal scores resolve to the lowest product ID.
func (s *MatchingService) FindBestMatch(label string, products []domain.Product) *domain.MatchResult {
	if len(products) == 0 {
		return nil
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Searching %d products for: %q", len(products), label)
	}

	var best *domain.MatchResult
	for _, product := range products {
		score := Score(label, product.Name)
		if score == 0 {
			continue
		}

		if s.enableDebugLogging {
			log.Printf("[MATCH] Candidate: %q | Score: %.3f", product.Name, score)
		}

		if best == nil || score > best.Score || (score == best.Score && product.ID < best.Product.ID) {
			best = &domain.MatchResult{Product: product, Score: score}
		}
	}

	if best == nil || best.Score <= s.minMatchScore {
		return nil
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Best match: %q (score: %.3f)", best.Product.Name, best.Score)
	}

	return best
}

// Score is the symmetric substring similarity of a label and a product name.
// It is zero unless one lower-cased string contains the other, and otherwise
// min(len)/max(len) measured in runes.
func Score(label, name string) float64 {
	l := strings.ToLower(label)
	n := strings.ToLower(name)
	if l == "" || n == "" {
		return 0
	}

	if !strings.Contains(l, n) && !strings.Contains(n, l) {
		return 0
	}

	ll := utf8.RuneCountInString(l)
	nl := utf8.RuneCountInString(n)
	if ll > nl {
		return float64(nl) / float64(ll)
	}
	return float64(ll) / float64(nl)
}
