package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/macrolens/scanner/internal/domain"
	"github.com/macrolens/scanner/internal/infrastructure/cache"
)

// MockRemoteClient is a mock implementation of domain.RemoteClient
type MockRemoteClient struct {
	mu         sync.Mutex
	products   map[string]domain.Product
	catalog    []domain.Product
	fetchErr   error
	catalogErr error
	addErr     error
	added      []domain.Product
	online     atomic.Bool
	release    chan struct{} // when set, FetchOne waits for it

	fetchCalls   atomic.Int32
	catalogCalls atomic.Int32
	pingCalls    atomic.Int32
}

func NewMockRemoteClient(products ...domain.Product) *MockRemoteClient {
	m := &MockRemoteClient{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.Barcode] = p
	}
	m.online.Store(true)
	return m
}

func (m *MockRemoteClient) FetchOne(ctx context.Context, barcode string) (*domain.Product, error) {
	m.fetchCalls.Add(1)
	if m.release != nil {
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	p, ok := m.products[barcode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Allergens = append(domain.Allergens{}, p.Allergens...)
	return &p, nil
}

func (m *MockRemoteClient) FetchAll(ctx context.Context) ([]domain.Product, error) {
	m.catalogCalls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return append([]domain.Product(nil), m.catalog...), nil
}

func (m *MockRemoteClient) Ping(ctx context.Context) bool {
	m.pingCalls.Add(1)
	return m.online.Load()
}

func (m *MockRemoteClient) AddProduct(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, *product)
	return nil
}

// failingStore wraps a MemoryStore and fails selected operations
type failingStore struct {
	*cache.MemoryStore
	getErr    error
	upsertErr error
	batchErr  error
	scanErr   error
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, barcode)
}

func (s *failingStore) Upsert(ctx context.Context, product *domain.Product) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.MemoryStore.Upsert(ctx, product)
}

func (s *failingStore) UpsertBatch(ctx context.Context, products []domain.Product) (int, error) {
	if s.batchErr != nil {
		return 0, s.batchErr
	}
	return s.MemoryStore.UpsertBatch(ctx, products)
}

func (s *failingStore) RecordScan(ctx context.Context, event domain.ScanEvent) error {
	if s.scanErr != nil {
		return s.scanErr
	}
	return s.MemoryStore.RecordScan(ctx, event)
}

func sparklingWater() domain.Product {
	return domain.Product{
		Barcode: "096619036530", Name: "Sparkling Water", Brand: "Kirkland", Category: "beverages",
		Allergens: domain.Allergens{}, HealthScore: 85, IsHealthy: true,
	}
}

func oatMilk() domain.Product {
	return domain.Product{
		Barcode: "123456", Name: "Oat Milk", Category: "dairy-alternatives",
		Calories: 120, Protein: 3, Carbs: 16, Sugar: 7, Fats: 5, Fiber: 2, Sodium: 100,
		Allergens: domain.NewAllergens("oats"), HealthScore: 90, IsHealthy: true,
	}
}

func cookies() domain.Product {
	return domain.Product{
		Barcode: "9876543210", Name: "Chocolate Chip Cookies", Brand: "Crumbs", Category: "snacks",
		Calories: 480, Protein: 5, Carbs: 65, Sugar: 32, Fats: 22, Fiber: 2,
		Allergens: domain.NewAllergens("gluten", "dairy", "eggs"), HealthScore: 48, IsHealthy: false,
	}
}
