package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FramePreparer turns a client image payload into a shaped Frame
type FramePreparer interface {
	Prepare(payload string) (*Frame, error)
}

// RecognitionClient labels a single still image
type RecognitionClient interface {
	Identify(ctx context.Context, frame *Frame) (*RecognitionResult, error)
}

// ProductCatalog is the read side of the product store plus seeding
// Create fails with ErrDuplicateBarcode when the barcode is taken.
type ProductCatalog interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Count(ctx context.Context) (int64, error)
}

// CartStore persists cart lines.
// AddOrIncrement must be atomic per (userID, productID).
type CartStore interface {
	// AddOrIncrement fails with ErrInvalidQuantity, leaving the line unchanged,
	// when the result would exceed MaxLineQuantity
	AddOrIncrement(ctx context.Context, userID, productID int64, quantity int) (*CartLine, error)
	Get(ctx context.Context, id int64) (*CartLine, error)
	ListByUser(ctx context.Context, userID int64) ([]CartLine, error)
	// SetQuantity replaces the quantity; a quantity <= 0 deletes the line
	SetQuantity(ctx context.Context, id int64, quantity int) (*CartLine, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context, userID int64) error
}

// CartMutator is the cart operation the scan pipeline depends on
type CartMutator interface {
	Add(ctx context.Context, userID, productID int64, quantity int) (*CartLine, error)
}

// ProductSource supplies the candidate set for matching
type ProductSource interface {
	ListProducts(ctx context.Context) ([]Product, error)
}
