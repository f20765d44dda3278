package usecase

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"github.com/smartcart/backend/internal/domain"
)

// CartService applies cart mutations on behalf of a user
type CartService struct {
	carts    domain.CartStore
	products domain.ProductCatalog
}

// NewCartService creates a new cart service with dependencies
func NewCartService(carts domain.CartStore, products domain.ProductCatalog) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// Add creates a cart line or increments the existing one for (userID, productID)
func (s *CartService) Add(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthorized
	}
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	line, err := s.carts.AddOrIncrement(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	log.Printf("[CART] user=%d product=%d quantity=%d (line %d)", userID, productID, line.Quantity, line.ID)
	return line, nil
}

// List returns the user's cart joined with products and priced
func (s *CartService) List(ctx context.Context, userID int64) (*domain.CartSummary, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartLineWithProduct, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			// Lines for products that left the catalog are not shown
			continue
		}
		items = append(items, domain.CartLineWithProduct{
			ID:       line.ID,
			Quantity: line.Quantity,
			Product:  *product,
		})
	}

	return domain.NewCartSummary(items), nil
}

// Line returns one of the user's cart lines joined with its product
func (s *CartService) Line(ctx context.Context, userID, lineID int64) (*domain.CartLineWithProduct, error) {
	line, err := s.ownedLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}

	return &domain.CartLineWithProduct{
		ID:       line.ID,
		Quantity: line.Quantity,
		Product:  *product,
		Subtotal: product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}, nil
}

// UpdateQuantity sets a line's quantity. Zero removes the line and returns nil.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) (*domain.CartLine, error) {
	if quantity < 0 || quantity > domain.MaxLineQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return nil, err
	}

	line, err := s.carts.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		return nil, nil
	}
	return line, nil
}

// Remove deletes one of the user's cart lines
func (s *CartService) Remove(ctx context.Context, userID, lineID int64) error {
	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return err
	}
	return s.carts.Delete(ctx, lineID)
}

// Clear removes every line in the user's cart
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, userID)
}

func (s *CartService) ownedLine(ctx context.Context, userID, lineID int64) (*domain.CartLine, error) {
	line, err := s.carts.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return line, nil
}
