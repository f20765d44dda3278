package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smartcart/backend/internal/domain"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	for _, p := range []domain.Product{
		{Name: "Whole Milk", Price: decimal.RequireFromString("4.99"), Barcode: "20001"},
		{Name: "Bananas", Price: decimal.RequireFromString("1.29"), Barcode: "20002"},
	} {
		p := p
		if err := s.Create(ctx, &p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	return s
}

func TestStore_Products(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	products, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 2 || products[0].ID != 1 || products[1].ID != 2 {
		t.Fatalf("List() = %+v, want IDs 1 and 2 in order", products)
	}

	p, err := s.GetByID(ctx, 2)
	if err != nil || p.Name != "Bananas" {
		t.Errorf("GetByID(2) = %+v, %v", p, err)
	}

	p, err = s.GetByBarcode(ctx, "20001")
	if err != nil || p.ID != 1 {
		t.Errorf("GetByBarcode(20001) = %+v, %v", p, err)
	}

	if _, err := s.GetByID(ctx, 99); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("GetByID(99) error = %v, want %v", err, domain.ErrProductNotFound)
	}
	if _, err := s.GetByBarcode(ctx, "99999"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("GetByBarcode(99999) error = %v, want %v", err, domain.ErrProductNotFound)
	}

	count, _ := s.Count(ctx)
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestStore_AddOrIncrement(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	first, err := s.AddOrIncrement(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("AddOrIncrement() error = %v", err)
	}
	second, err := s.AddOrIncrement(ctx, 1, 1, 2)
	if err != nil {
		t.Fatalf("AddOrIncrement() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("line IDs differ: %d vs %d", first.ID, second.ID)
	}
	if second.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", second.Quantity)
	}

	other, _ := s.AddOrIncrement(ctx, 2, 1, 1)
	if other.ID == first.ID {
		t.Errorf("different users share line %d", other.ID)
	}

	lines, _ := s.ListByUser(ctx, 1)
	if len(lines) != 1 {
		t.Errorf("ListByUser(1) returned %d lines, want 1", len(lines))
	}
}

func TestStore_DuplicateBarcode(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	dup := domain.Product{Name: "Skim Milk", Price: decimal.RequireFromString("3.99"), Barcode: "20001"}
	if err := s.Create(ctx, &dup); !errors.Is(err, domain.ErrDuplicateBarcode) {
		t.Errorf("Create() error = %v, want %v", err, domain.ErrDuplicateBarcode)
	}
	if count, _ := s.Count(ctx); count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestStore_AddOrIncrement_QuantityCap(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	if _, err := s.AddOrIncrement(ctx, 1, 1, domain.MaxLineQuantity+1); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("oversized add error = %v, want %v", err, domain.ErrInvalidQuantity)
	}

	line, err := s.AddOrIncrement(ctx, 1, 1, domain.MaxLineQuantity)
	if err != nil {
		t.Fatalf("AddOrIncrement(max) error = %v", err)
	}
	if _, err := s.AddOrIncrement(ctx, 1, 1, 1); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("increment past cap error = %v, want %v", err, domain.ErrInvalidQuantity)
	}

	got, _ := s.Get(ctx, line.ID)
	if got.Quantity != domain.MaxLineQuantity {
		t.Errorf("Quantity = %d, want unchanged %d", got.Quantity, domain.MaxLineQuantity)
	}
}

func TestStore_AddOrIncrement_Concurrent(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddOrIncrement(ctx, 7, 2, 1); err != nil {
				t.Errorf("AddOrIncrement() error = %v", err)
			}
		}()
	}
	wg.Wait()

	lines, _ := s.ListByUser(ctx, 7)
	if len(lines) != 1 || lines[0].Quantity != 50 {
		t.Errorf("ListByUser(7) = %+v, want one line with quantity 50", lines)
	}
}

func TestStore_SetQuantityDeleteClear(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	line, _ := s.AddOrIncrement(ctx, 1, 1, 1)
	other, _ := s.AddOrIncrement(ctx, 1, 2, 1)
	s.AddOrIncrement(ctx, 2, 1, 4)

	updated, err := s.SetQuantity(ctx, line.ID, 5)
	if err != nil || updated.Quantity != 5 {
		t.Errorf("SetQuantity(5) = %+v, %v", updated, err)
	}

	removed, err := s.SetQuantity(ctx, line.ID, 0)
	if err != nil || removed != nil {
		t.Errorf("SetQuantity(0) = %+v, %v; want nil, nil", removed, err)
	}
	if _, err := s.Get(ctx, line.ID); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Errorf("Get() after zero quantity error = %v", err)
	}

	if err := s.Delete(ctx, other.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, other.ID); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, domain.ErrCartLineNotFound)
	}

	if err := s.Clear(ctx, 2); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if lines, _ := s.ListByUser(ctx, 2); len(lines) != 0 {
		t.Errorf("ListByUser(2) after Clear = %d lines", len(lines))
	}
}
