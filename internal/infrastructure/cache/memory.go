package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/macrolens/scanner/internal/domain"
)

// MemoryStore is a thread-safe in-memory domain.ProductStore.
// Nothing survives a restart; use it for tests and ephemeral runs.
type MemoryStore struct {
	products    map[string]domain.Product
	scans       []domain.ScanEvent
	preferences map[string]string
	mutex       sync.RWMutex
	now         func() time.Time
}

var _ domain.ProductStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[string]domain.Product),
		preferences: make(map[string]string),
		now:         time.Now,
	}
}

// Get retrieves a product by barcode
func (c *MemoryStore) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	p, exists := c.products[barcode]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return clone(p), nil
}

// Upsert stores a full copy of the product, replacing any previous record
func (c *MemoryStore) Upsert(ctx context.Context, product *domain.Product) error {
	if product == nil || product.Barcode == "" {
		return domain.ErrValidation
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	row := *clone(*product)
	row.CachedAt = c.now().UTC()
	c.products[row.Barcode] = row
	return nil
}

// UpsertBatch applies every product under a single write lock
func (c *MemoryStore) UpsertBatch(ctx context.Context, products []domain.Product) (int, error) {
	for i := range products {
		if products[i].Barcode == "" {
			return 0, domain.ErrValidation
		}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	cachedAt := c.now().UTC()
	for i := range products {
		row := *clone(products[i])
		row.CachedAt = cachedAt
		c.products[row.Barcode] = row
	}
	return len(products), nil
}

// RecordScan appends a scan event
func (c *MemoryStore) RecordScan(ctx context.Context, event domain.ScanEvent) error {
	if event.Barcode == "" {
		return domain.ErrValidation
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if event.ScannedAt.IsZero() {
		event.ScannedAt = c.now()
	}
	event.ScannedAt = event.ScannedAt.UTC()
	c.scans = append(c.scans, event)
	return nil
}

// FindAlternatives returns the best-scoring products of a category
func (c *MemoryStore) FindAlternatives(ctx context.Context, category, excludeBarcode string, minHealthScore, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	if category == "" || limit <= 0 {
		return out, nil
	}

	c.mutex.RLock()
	for _, p := range c.products {
		if p.Category == category && p.Barcode != excludeBarcode && p.HealthScore >= minHealthScore {
			out = append(out, *clone(p))
		}
	}
	c.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].HealthScore != out[j].HealthScore {
			return out[i].HealthScore > out[j].HealthScore
		}
		return out[i].Barcode < out[j].Barcode
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of cached products
func (c *MemoryStore) Count(ctx context.Context) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.products), nil
}

// List returns cached products ordered by name
func (c *MemoryStore) List(ctx context.Context, limit int) ([]domain.Product, error) {
	c.mutex.RLock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *clone(p))
	}
	c.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Barcode < out[j].Barcode
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ScanStats aggregates the scan log
func (c *MemoryStore) ScanStats(ctx context.Context) (*domain.ScanStats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := &domain.ScanStats{TotalScans: len(c.scans)}
	for _, s := range c.scans {
		if s.IsHealthy {
			stats.HealthyScans++
		}
		if s.HasAllergen {
			stats.AllergenWarnings++
		}
	}
	return stats, nil
}

// History returns the newest scans first
func (c *MemoryStore) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := []domain.HistoryEntry{}
	for i := len(c.scans) - 1; i >= 0 && len(out) < limit; i-- {
		entry := domain.HistoryEntry{ScanEvent: c.scans[i]}
		if p, ok := c.products[entry.Barcode]; ok {
			entry.Name = p.Name
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScannedAt.After(out[j].ScannedAt)
	})
	return out, nil
}

// GetPreference returns a stored preference
func (c *MemoryStore) GetPreference(ctx context.Context, key string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	v, ok := c.preferences[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// SetPreference stores a preference
func (c *MemoryStore) SetPreference(ctx context.Context, key, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.preferences[key] = value
	return nil
}

// Close is a no-op
func (c *MemoryStore) Close() error {
	return nil
}

// Size returns the current number of products (for debugging/monitoring)
func (c *MemoryStore) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.products)
}

// clone copies a product so callers never share the allergen slice with
// the stored record.
func clone(p domain.Product) *domain.Product {
	p.Allergens = append(domain.Allergens{}, p.Allergens...)
	return &p
}
