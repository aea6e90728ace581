package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/macrolens/scanner/internal/domain"
)

const (
	allergensPreferenceKey = "allergens"

	// DefaultHistoryLimit is how many scans the history view returns
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ProfileService manages the user's allergen profile and scan log views
type ProfileService struct {
	store  domain.ProductStore
	logger *zap.Logger
}

// NewProfileService creates a profile service
func NewProfileService(store domain.ProductStore, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, logger: logger.Named("profile")}
}

// Allergens returns the saved allergen profile. An unset profile is empty.
func (s *ProfileService) Allergens(ctx context.Context) (domain.Allergens, error) {
	raw, err := s.store.GetPreference(ctx, allergensPreferenceKey)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Allergens{}, nil
	}
	if err != nil {
		return domain.Allergens{}, err
	}
	return domain.ParseAllergens(raw), nil
}

// SetAllergens replaces the allergen profile and returns the stored form
func (s *ProfileService) SetAllergens(ctx context.Context, tokens []string) (domain.Allergens, error) {
	allergens := domain.NewAllergens(tokens...)
	if err := s.store.SetPreference(ctx, allergensPreferenceKey, allergens.String()); err != nil {
		return nil, fmt.Errorf("save allergen profile: %w", err)
	}
	s.logger.Info("allergen profile updated", zap.Strings("allergens", allergens))
	return allergens, nil
}

// Stats summarizes the scan log
func (s *ProfileService) Stats(ctx context.Context) (*domain.ScanStats, error) {
	return s.store.ScanStats(ctx)
}

// History returns recent scans, newest first. Non-positive limits use
// DefaultHistoryLimit.
func (s *ProfileService) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.History(ctx, limit)
}

// Products lists cached products by name
func (s *ProfileService) Products(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.store.List(ctx, limit)
}
