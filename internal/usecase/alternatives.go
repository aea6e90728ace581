package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/macrolens/scanner/internal/domain"
)

// Default alternative lookup settings
const (
	DefaultAlternativesLimit = 3
)

// AlternativeFinder suggests healthier products from the same category
type AlternativeFinder struct {
	store     domain.ProductStore
	threshold int
	limit     int
	logger    *zap.Logger
}

// NewAlternativeFinder creates a finder. Non-positive settings fall back
// to the defaults.
func NewAlternativeFinder(store domain.ProductStore, threshold, limit int, logger *zap.Logger) *AlternativeFinder {
	if threshold <= 0 {
		threshold = domain.DefaultHealthyThreshold
	}
	if limit <= 0 {
		limit = DefaultAlternativesLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlternativeFinder{
		store:     store,
		threshold: threshold,
		limit:     limit,
		logger:    logger.Named("alternatives"),
	}
}

// FindAlternatives returns up to limit cached products sharing the
// product's category, healthiest first. It never returns the product
// itself and never fails: lookup errors yield an empty list.
func (f *AlternativeFinder) FindAlternatives(ctx context.Context, product *domain.Product) []domain.Product {
	out := []domain.Product{}
	if product == nil || product.Category == "" {
		return out
	}

	candidates, err := f.store.FindAlternatives(ctx, product.Category, product.Barcode, f.threshold, f.limit)
	if err != nil {
		f.logger.Warn("alternative lookup failed",
			zap.String("barcode", product.Barcode),
			zap.String("category", product.Category),
			zap.Error(err))
		return out
	}

	for _, c := range candidates {
		if c.Barcode == product.Barcode || c.HealthScore < f.threshold {
			continue
		}
		out = append(out, c)
		if len(out) == f.limit {
			break
		}
	}
	return out
}
