package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcart/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalls  int
	setCalls  int
	deletions []string
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, key)
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockStore is a mock implementation of domain.ProductCatalog and domain.CartStore
type MockStore struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	lines     map[int64]*domain.CartLine
	nextLine  int64
	listCalls int
	listError error
	addError  error
	// listGate, when set, blocks List until it is closed
	listGate chan struct{}
}

func NewMockStore(products ...domain.Product) *MockStore {
	m := &MockStore{
		products: make(map[int64]domain.Product),
		lines:    make(map[int64]*domain.CartLine),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MockStore) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	m.listCalls++
	gate := m.listGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockStore) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockStore) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = int64(len(m.products) + 1)
	m.products[product.ID] = *product
	return nil
}

func (m *MockStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m *MockStore) AddOrIncrement(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addError != nil {
		return nil, m.addError
	}
	for _, line := range m.lines {
		if line.UserID == userID && line.ProductID == productID {
			if quantity > domain.MaxLineQuantity-line.Quantity {
				return nil, domain.ErrInvalidQuantity
			}
			line.Quantity += quantity
			out := *line
			return &out, nil
		}
	}
	m.nextLine++
	line := &domain.CartLine{ID: m.nextLine, UserID: userID, ProductID: productID, Quantity: quantity}
	m.lines[line.ID] = line
	out := *line
	return &out, nil
}

func (m *MockStore) Get(ctx context.Context, id int64) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[id]; ok {
		out := *line
		return &out, nil
	}
	return nil, domain.ErrCartLineNotFound
}

func (m *MockStore) ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var lines []domain.CartLine
	for _, line := range m.lines {
		if line.UserID == userID {
			lines = append(lines, *line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (m *MockStore) SetQuantity(ctx context.Context, id int64, quantity int) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return nil, domain.ErrCartLineNotFound
	}
	if quantity <= 0 {
		delete(m.lines, id)
		return nil, nil
	}
	line.Quantity = quantity
	out := *line
	return &out, nil
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[id]; !ok {
		return domain.ErrCartLineNotFound
	}
	delete(m.lines, id)
	return nil
}

func (m *MockStore) Clear(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, line := range m.lines {
		if line.UserID == userID {
			delete(m.lines, id)
		}
	}
	return nil
}

func (m *MockStore) setAddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addError = err
}

func (m *MockStore) lineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// MockFramePreparer is a mock implementation of domain.FramePreparer
type MockFramePreparer struct {
	err error
}

func (m *MockFramePreparer) Prepare(payload string) (*domain.Frame, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Frame{Data: []byte(payload), MediaType: "image/jpeg", Width: 1, Height: 1}, nil
}

// MockRecognitionClient is a mock implementation of domain.RecognitionClient
type MockRecognitionClient struct {
	mu     sync.Mutex
	result *domain.RecognitionResult
	err    error
	calls  int
	// started receives once per call; release, when set, blocks the call until closed
	started chan struct{}
	release chan struct{}
}

func (m *MockRecognitionClient) Identify(ctx context.Context, frame *domain.Frame) (*domain.RecognitionResult, error) {
	m.mu.Lock()
	m.calls++
	result, err := m.result, m.err
	started, release := m.started, m.release
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	if err != nil {
		return nil, err
	}
	out := *result
	return &out, nil
}

func (m *MockRecognitionClient) respond(result *domain.RecognitionResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.err = err
}
