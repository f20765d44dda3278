// Package sqlite persists the catalog and carts with gorm on SQLite.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/smartcart/backend/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// productRow is the products table
type productRow struct {
	ID       int64           `gorm:"primarykey"`
	Name     string          `gorm:"size:200;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Barcode  string          `gorm:"size:32;uniqueIndex"`
	ImageURL *string         `gorm:"size:500"`
}

func (productRow) TableName() string {
	return "products"
}

// cartLineRow is the cart_items table; (user_id, product_id) is unique
type cartLineRow struct {
	ID        int64 `gorm:"primarykey"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int   `gorm:"not null"`
}

func (cartLineRow) TableName() string {
	return "cart_items"
}

// Store implements domain.ProductCatalog and domain.CartStore
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and migrates the schema
func Open(path string, debug bool) (*Store, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; serialize through a single connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store, err := NewStore(db)
	if err != nil {
		return nil, err
	}

	log.Printf("[STORAGE] SQLite database ready at %s", path)
	return store, nil
}

// NewStore wraps an open gorm handle and migrates the schema
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&productRow{}, &cartLineRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// List returns every product ordered by ID
func (s *Store) List(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

// GetByID returns the product with the given ID
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

// GetByBarcode returns the lowest-ID product carrying barcode
func (s *Store) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).Order("id").First(&row, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

// Create inserts product and writes the assigned ID back
func (s *Store) Create(ctx context.Context, product *domain.Product) error {
	row := productRow{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Barcode:  product.Barcode,
		ImageURL: product.ImageURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&productRow{}).Where("barcode = ?", row.Barcode).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domain.ErrDuplicateBarcode
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, domain.ErrDuplicateBarcode) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateBarcode, product.Barcode)
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = row.ID
	return nil
}

// Count returns the number of products
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// AddOrIncrement upserts on (user_id, product_id) so concurrent adds never
// create a second line
func (s *Store) AddOrIncrement(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	var row cartLineRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current cartLineRow
		err := tx.Select("quantity").Where("user_id = ? AND product_id = ?", userID, productID).Take(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if quantity > domain.MaxLineQuantity-current.Quantity {
			return domain.ErrInvalidQuantity
		}

		insert := cartLineRow{UserID: userID, ProductID: productID, Quantity: quantity}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + ?", quantity),
			}),
		}).Create(&insert).Error; err != nil {
			return err
		}
		return tx.First(&row, "user_id = ? AND product_id = ?", userID, productID).Error
	})
	if errors.Is(err, domain.ErrInvalidQuantity) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	line := row.toDomain()
	return &line, nil
}

// Get returns the cart line with the given ID
func (s *Store) Get(ctx context.Context, id int64) (*domain.CartLine, error) {
	var row cartLineRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	line := row.toDomain()
	return &line, nil
}

// ListByUser returns the user's cart lines ordered by ID
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	var rows []cartLineRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	lines := make([]domain.CartLine, len(rows))
	for i, row := range rows {
		lines[i] = row.toDomain()
	}
	return lines, nil
}

// SetQuantity replaces a line's quantity; quantity <= 0 deletes the line and returns nil
func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	result := s.db.WithContext(ctx).Model(&cartLineRow{}).Where("id = ?", id).Update("quantity", quantity)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrCartLineNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a cart line
func (s *Store) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&cartLineRow{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

// Clear removes every line belonging to userID
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&cartLineRow{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Barcode:  r.Barcode,
		ImageURL: r.ImageURL,
	}
}

func (r cartLineRow) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
	}
}
