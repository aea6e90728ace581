package usecase

import (
	"context"
	"testing"

	"github.com/macrolens/scanner/internal/domain"
	"github.com/macrolens/scanner/internal/infrastructure/cache"
)

func TestAlternativeFinder_FindAlternatives(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()
	store.UpsertBatch(ctx, []domain.Product{
		{Barcode: "c1", Category: "cereal", HealthScore: 62},
		{Barcode: "c2", Category: "cereal", HealthScore: 91},
		{Barcode: "c3", Category: "cereal", HealthScore: 59},
		{Barcode: "c4", Category: "cereal", HealthScore: 74},
	})

	testCases := []struct {
		name    string
		product *domain.Product
		limit   int
		want    []string
	}{
		{
			name:    "healthiest first",
			product: &domain.Product{Barcode: "x", Category: "cereal", HealthScore: 20},
			limit:   3,
			want:    []string{"c2", "c4", "c1"},
		},
		{
			name:    "limit respected",
			product: &domain.Product{Barcode: "x", Category: "cereal"},
			limit:   1,
			want:    []string{"c2"},
		},
		{
			name:    "excludes the product itself",
			product: &domain.Product{Barcode: "c2", Category: "cereal"},
			limit:   3,
			want:    []string{"c4", "c1"},
		},
		{
			name:    "no category",
			product: &domain.Product{Barcode: "x"},
			limit:   3,
			want:    []string{},
		},
		{
			name:    "unknown category",
			product: &domain.Product{Barcode: "x", Category: "soup"},
			limit:   3,
			want:    []string{},
		},
		{
			name:    "nil product",
			product: nil,
			limit:   3,
			want:    []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			finder := NewAlternativeFinder(store, 60, tc.limit, nil)
			got := finder.FindAlternatives(ctx, tc.product)
			if got == nil {
				t.Fatal("FindAlternatives() returned nil, want empty slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("FindAlternatives() returned %d items, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i].Barcode != tc.want[i] {
					t.Errorf("FindAlternatives()[%d] = %s, want %s", i, got[i].Barcode, tc.want[i])
				}
			}
		})
	}
}

func TestAlternativeFinder_Defaults(t *testing.T) {
	finder := NewAlternativeFinder(cache.NewMemoryStore(), 0, 0, nil)
	if finder.threshold != domain.DefaultHealthyThreshold {
		t.Errorf("threshold = %d, want %d", finder.threshold, domain.DefaultHealthyThreshold)
	}
	if finder.limit != DefaultAlternativesLimit {
		t.Errorf("limit = %d, want %d", finder.limit, DefaultAlternativesLimit)
	}
}
