// Package memory provides in-process implementations of the catalog and cart stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smartcart/backend/internal/domain"
)

// Store keeps products and cart lines in maps guarded by one RWMutex.
// It satisfies both domain.ProductCatalog and domain.CartStore.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]domain.Product
	lines      map[int64]domain.CartLine
	nextProdID int64
	nextLineID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		lines:      make(map[int64]domain.CartLine),
		nextProdID: 1,
		nextLineID: 1,
	}
}

// List returns every product ordered by ID
func (s *Store) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetByID returns the product with the given ID
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// GetByBarcode returns the product carrying barcode
func (s *Store) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

// Create assigns the next ID to product and stores it
func (s *Store) Create(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.Barcode == product.Barcode {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateBarcode, product.Barcode)
		}
	}

	if product.ID == 0 {
		product.ID = s.nextProdID
	}
	if product.ID >= s.nextProdID {
		s.nextProdID = product.ID + 1
	}
	s.products[product.ID] = *product
	return nil
}

// Count returns the number of products
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

// AddOrIncrement adds quantity to the user's line for productID, creating it if absent
func (s *Store) AddOrIncrement(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, line := range s.lines {
		if line.UserID == userID && line.ProductID == productID {
			if quantity > domain.MaxLineQuantity-line.Quantity {
				return nil, domain.ErrInvalidQuantity
			}
			line.Quantity += quantity
			s.lines[id] = line
			return &line, nil
		}
	}

	if quantity > domain.MaxLineQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	line := domain.CartLine{
		ID:        s.nextLineID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	s.nextLineID++
	s.lines[line.ID] = line
	return &line, nil
}

// Get returns the cart line with the given ID
func (s *Store) Get(ctx context.Context, id int64) (*domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	line, ok := s.lines[id]
	if !ok {
		return nil, domain.ErrCartLineNotFound
	}
	return &line, nil
}

// ListByUser returns the user's cart lines ordered by ID
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.CartLine, 0)
	for _, line := range s.lines {
		if line.UserID == userID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

// SetQuantity replaces a line's quantity; quantity <= 0 deletes the line and returns nil
func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) (*domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok {
		return nil, domain.ErrCartLineNotFound
	}
	if quantity <= 0 {
		delete(s.lines, id)
		return nil, nil
	}
	line.Quantity = quantity
	s.lines[id] = line
	return &line, nil
}

// Delete removes a cart line
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[id]; !ok {
		return domain.ErrCartLineNotFound
	}
	delete(s.lines, id)
	return nil
}

// Clear removes every line belonging to userID
func (s *Store) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, line := range s.lines {
		if line.UserID == userID {
			delete(s.lines, id)
		}
	}
	return nil
}
