package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/smartcart/backend/internal/domain"
)

// ScanService runs the capture -> recognize -> match -> cart pipeline.
// Each user has at most one scan in flight and at most one scan awaiting confirmation.
type ScanService struct {
	frames     domain.FramePreparer
	recognizer domain.RecognitionClient
	products   domain.ProductSource
	carts      domain.CartMutator
	matcher    *MatchingService

	mu       sync.Mutex
	sessions map[int64]*scanSession
}

type scanSession struct {
	state   domain.ScanState
	scanID  string
	pending *pendingConfirmation
}

type pendingConfirmation struct {
	product     domain.Product
	label       string
	score       float64
	quantity    int
	recognition *domain.RecognitionResult
}

// NewScanService creates a new scan service with dependencies
func NewScanService(
	frames domain.FramePreparer,
	recognizer domain.RecognitionClient,
	products domain.ProductSource,
	carts domain.CartMutator,
	matcher *MatchingService,
) *ScanService {
	return &ScanService{
		frames:     frames,
		recognizer: recognizer,
		products:   products,
		carts:      carts,
		matcher:    matcher,
		sessions:   make(map[int64]*scanSession),
	}
}

// Scan runs one scan attempt for userID. The cart is touched only for
// Confident and BestGuess outcomes; NeedsConfirmation parks the product until Resume.
func (s *ScanService) Scan(ctx context.Context, userID int64, payload string, quantity int) (*domain.ScanResult, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthorized
	}
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	scanID, err := s.begin(userID)
	if err != nil {
		return nil, err
	}

	result, err := s.run(ctx, userID, scanID, payload, quantity)
	if err != nil {
		// Failed is terminal for this attempt; the user is back at Idle and may retry
		log.Printf("[SCAN] %s user=%d -> %s: %v", scanID, userID, domain.ScanFailed, err)
		s.finish(userID, scanID, domain.ScanIdle, nil)
		return nil, err
	}

	return result, nil
}

func (s *ScanService) run(ctx context.Context, userID int64, scanID, payload string, quantity int) (*domain.ScanResult, error) {
	frame, err := s.frames.Prepare(payload)
	if err != nil {
		return nil, err
	}

	s.transition(userID, scanID, domain.ScanRecognizing)
	recognition, err := s.recognizer.Identify(ctx, frame)
	if err != nil {
		if !errors.Is(err, domain.ErrRecognitionUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, err)
		}
		return nil, err
	}
	recognition.Confidence = domain.ClampConfidence(recognition.Confidence)

	log.Printf("[SCAN] %s user=%d recognized %q (confidence %.2f, grocery %v)",
		scanID, userID, recognition.Label, recognition.Confidence, recognition.IsGroceryItem)

	s.transition(userID, scanID, domain.ScanMatching)
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.ScanResult{
		ScanID:      scanID,
		Recognition: recognition,
		Outcome:     s.matcher.Decide(recognition, products),
		Quantity:    quantity,
	}

	switch outcome := result.Outcome.(type) {
	case domain.Confident:
		line, err := s.carts.Add(ctx, userID, outcome.Product.ID, quantity)
		if err != nil {
			return nil, err
		}
		result.CartLine = line
		result.State = domain.ScanAddedConfident
		s.finish(userID, scanID, result.State, nil)

	case domain.BestGuess:
		line, err := s.carts.Add(ctx, userID, outcome.Product.ID, quantity)
		if err != nil {
			return nil, err
		}
		result.CartLine = line
		result.State = domain.ScanAddedBestGuess
		s.finish(userID, scanID, result.State, nil)

	case domain.NeedsConfirmation:
		result.State = domain.ScanAwaitingConfirmation
		s.finish(userID, scanID, result.State, &pendingConfirmation{
			product:     outcome.Product,
			label:       outcome.Label,
			score:       outcome.Score,
			quantity:    quantity,
			recognition: recognition,
		})

	case domain.NoMatch:
		result.State = domain.ScanRejected
		s.finish(userID, scanID, result.State, nil)

	default:
		return nil, fmt.Errorf("unhandled match outcome %T", outcome)
	}

	log.Printf("[SCAN] %s user=%d -> %s", scanID, userID, result.State)
	return result, nil
}

// Resume applies the user's decision to a scan awaiting confirmation.
// Confirm adds the product and ends in AddedConfident; cancel leaves the cart
// unchanged and returns the user to Idle.
func (s *ScanService) Resume(ctx context.Context, userID int64, scanID string, confirmed bool) (*domain.ScanResult, error) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok || session.state != domain.ScanAwaitingConfirmation || session.scanID != scanID || session.pending == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoPendingConfirmation
	}
	pending := session.pending

	if !confirmed {
		session.state = domain.ScanIdle
		session.pending = nil
		s.mu.Unlock()
		log.Printf("[SCAN] %s user=%d cancelled", scanID, userID)
		return &domain.ScanResult{
			ScanID:      scanID,
			State:       domain.ScanIdle,
			Recognition: pending.recognition,
			Quantity:    pending.quantity,
		}, nil
	}

	// Hold the slot while the cart is written so a concurrent resume or scan is refused
	session.state = domain.ScanMatching
	s.mu.Unlock()

	line, err := s.carts.Add(ctx, userID, pending.product.ID, pending.quantity)
	if err != nil {
		s.finish(userID, scanID, domain.ScanAwaitingConfirmation, pending)
		return nil, err
	}

	s.finish(userID, scanID, domain.ScanAddedConfident, nil)
	log.Printf("[SCAN] %s user=%d confirmed -> %s", scanID, userID, domain.ScanAddedConfident)

	return &domain.ScanResult{
		ScanID:      scanID,
		State:       domain.ScanAddedConfident,
		Recognition: pending.recognition,
		Outcome:     domain.Confident{Product: pending.product, Score: pending.score},
		CartLine:    line,
		Quantity:    pending.quantity,
	}, nil
}

// State returns the user's current scan state
func (s *ScanService) State(userID int64) domain.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return domain.ScanStatus{State: domain.ScanIdle}
	}
	return domain.ScanStatus{State: session.state, ScanID: session.scanID}
}

// begin claims the user's scan slot. A scan awaiting confirmation is superseded.
func (s *ScanService) begin(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		session = &scanSession{state: domain.ScanIdle}
		s.sessions[userID] = session
	}

	if session.state.InFlight() {
		return "", domain.ErrScanInProgress
	}
	if session.state == domain.ScanAwaitingConfirmation {
		log.Printf("[SCAN] %s user=%d superseded before confirmation", session.scanID, userID)
	}

	session.scanID = uuid.NewString()
	session.state = domain.ScanCapturing
	session.pending = nil
	return session.scanID, nil
}

func (s *ScanService) transition(userID int64, scanID string, state domain.ScanState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[userID]; ok && session.scanID == scanID {
		session.state = state
	}
}

func (s *ScanService) finish(userID int64, scanID string, state domain.ScanState, pending *pendingConfirmation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[userID]; ok && session.scanID == scanID {
		session.state = state
		session.pending = pending
	}
}
