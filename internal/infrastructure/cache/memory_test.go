package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/macrolens/scanner/internal/domain"
)

func product(barcode, category string, score int) domain.Product {
	return domain.Product{
		Barcode:     barcode,
		Name:        "Product " + barcode,
		Category:    category,
		Allergens:   domain.NewAllergens("dairy"),
		HealthScore: score,
		IsHealthy:   score >= domain.DefaultHealthyThreshold,
	}
}

func TestMemoryStore_UpsertAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		product *domain.Product
		wantErr error
	}{
		{
			name:    "stores product",
			product: &domain.Product{Barcode: "123456", Name: "Oat Milk", HealthScore: 90},
		},
		{
			name:    "rejects nil product",
			product: nil,
			wantErr: domain.ErrValidation,
		},
		{
			name:    "rejects empty barcode",
			product: &domain.Product{Name: "nameless"},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Upsert(ctx, tt.product)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upsert() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got, err := store.Get(ctx, tt.product.Barcode)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Name != tt.product.Name || got.HealthScore != tt.product.HealthScore {
				t.Errorf("Get() = %+v, want %+v", got, tt.product)
			}
			if got.CachedAt.IsZero() {
				t.Error("CachedAt not stamped")
			}
		})
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nonexistent")
	if err != domain.ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := product("1", "dairy", 70)
	store.Upsert(ctx, &p)
	p.Allergens[0] = "mutated"

	got, _ := store.Get(ctx, "1")
	got.Allergens[0] = "also-mutated"

	again, _ := store.Get(ctx, "1")
	if again.Allergens[0] != "dairy" {
		t.Errorf("stored allergens changed through an alias: %v", again.Allergens)
	}
}

func TestMemoryStore_UpsertBatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := []domain.Product{product("1", "a", 10), product("2", "a", 20), product("1", "a", 30)}
	n, err := store.UpsertBatch(ctx, batch)
	if err != nil {
		t.Fatalf("UpsertBatch() error = %v", err)
	}
	if n != 3 {
		t.Errorf("UpsertBatch() = %d, want 3", n)
	}
	if store.Size() != 2 {
		t.Errorf("Size() = %d, want 2", store.Size())
	}
	got, _ := store.Get(ctx, "1")
	if got.HealthScore != 30 {
		t.Errorf("last record in batch should win, got score %d", got.HealthScore)
	}

	_, err = store.UpsertBatch(ctx, []domain.Product{product("9", "a", 1), {}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpsertBatch() error = %v, want ErrValidation", err)
	}
	if _, err := store.Get(ctx, "9"); err != domain.ErrNotFound {
		t.Error("invalid batch must not be partially applied")
	}
}

func TestMemoryStore_FindAlternatives(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.UpsertBatch(ctx, []domain.Product{
		product("self", "snacks", 99),
		product("low", "snacks", 40),
		product("b", "snacks", 75),
		product("a", "snacks", 75),
		product("top", "snacks", 90),
		product("c", "snacks", 61),
		product("dairy", "dairy", 100),
	})

	got, _ := store.FindAlternatives(ctx, "snacks", "self", 60, 3)
	want := []string{"top", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("FindAlternatives() returned %d items, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Barcode != want[i] {
			t.Errorf("FindAlternatives()[%d] = %s, want %s", i, p.Barcode, want[i])
		}
	}

	none, _ := store.FindAlternatives(ctx, "", "self", 0, 3)
	if len(none) != 0 {
		t.Errorf("empty category returned %d items", len(none))
	}
}

func TestMemoryStore_ScansAndStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := product("1", "dairy", 70)
	store.Upsert(ctx, &p)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.RecordScan(ctx, domain.ScanEvent{Barcode: "1", ScannedAt: base, IsHealthy: true})
	store.RecordScan(ctx, domain.ScanEvent{Barcode: "2", ScannedAt: base.Add(time.Second), HasAllergen: true})

	if err := store.RecordScan(ctx, domain.ScanEvent{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("RecordScan() error = %v, want ErrValidation", err)
	}

	stats, _ := store.ScanStats(ctx)
	if *stats != (domain.ScanStats{TotalScans: 2, HealthyScans: 1, AllergenWarnings: 1}) {
		t.Errorf("ScanStats() = %+v", stats)
	}

	history, _ := store.History(ctx, 10)
	if len(history) != 2 {
		t.Fatalf("History() returned %d entries, want 2", len(history))
	}
	if history[0].Barcode != "2" || history[1].Name != "Product 1" {
		t.Errorf("History() = %+v", history)
	}
}

func TestMemoryStore_Preferences(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetPreference(ctx, "allergens"); err != domain.ErrNotFound {
		t.Errorf("GetPreference() error = %v, want ErrNotFound", err)
	}
	store.SetPreference(ctx, "allergens", "nuts")
	if v, _ := store.GetPreference(ctx, "allergens"); v != "nuts" {
		t.Errorf("GetPreference() = %q, want nuts", v)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := []domain.Product{product("seed", "a", 1)}
	store.UpsertBatch(ctx, seed)

	batch := make([]domain.Product, 100)
	for i := range batch {
		batch[i] = product(fmt.Sprintf("bulk-%d", i), "a", i)
	}

	var wg sync.WaitGroup
	bad := make(chan int, 1000)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n, _ := store.Count(ctx)
				if n != 1 && n != 101 {
					bad <- n
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.UpsertBatch(ctx, batch)
	}()
	wg.Wait()
	close(bad)

	for n := range bad {
		t.Errorf("reader observed partial batch: %d products", n)
	}
}
