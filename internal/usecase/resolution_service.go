package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/macrolens/scanner/internal/domain"
)

// ResolutionServiceConfig holds configuration for barcode resolution
type ResolutionServiceConfig struct {
	HealthyThreshold int
	// RemoteTimeout bounds a remote lookup, write-through included. It
	// keeps running after the caller gives up.
	RemoteTimeout time.Duration
}

// ResolutionService resolves a barcode to a product, preferring the remote
// store when reachable and falling back to the local cache
type ResolutionService struct {
	store        domain.ProductStore
	remote       domain.RemoteClient
	monitor      *ConnectivityMonitor
	alternatives *AlternativeFinder
	profile      *ProfileService
	threshold    int
	timeout      time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewResolutionService creates a new resolution service with dependencies
func NewResolutionService(
	store domain.ProductStore,
	remote domain.RemoteClient,
	monitor *ConnectivityMonitor,
	alternatives *AlternativeFinder,
	profile *ProfileService,
	config ResolutionServiceConfig,
	logger *zap.Logger,
) *ResolutionService {
	threshold := config.HealthyThreshold
	if threshold <= 0 {
		threshold = domain.DefaultHealthyThreshold
	}
	timeout := config.RemoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResolutionService{
		store:        store,
		remote:       remote,
		monitor:      monitor,
		alternatives: alternatives,
		profile:      profile,
		threshold:    threshold,
		timeout:      timeout,
		logger:       logger.Named("resolution"),
		now:          time.Now,
	}
}

type remoteOutcome struct {
	product *domain.Product
	err     error
}

// Resolve looks up a barcode. It never returns an error: every failure
// path ends in a not_found result. When ctx ends before a verdict the
// result is marked Canceled and no scan is recorded.
func (s *ResolutionService) Resolve(ctx context.Context, raw string) domain.ResolutionResult {
	barcode, err := NormalizeBarcode(raw)
	if err != nil {
		s.logger.Debug("rejected barcode", zap.String("input", raw), zap.Error(err))
		return notFound(strings.TrimSpace(raw))
	}

	product, provenance := s.lookup(ctx, barcode)
	if ctx.Err() != nil {
		s.logger.Debug("resolution canceled", zap.String("barcode", barcode))
		result := notFound(barcode)
		result.Canceled = true
		return result
	}
	if product == nil {
		return notFound(barcode)
	}

	result := domain.ResolutionResult{
		Barcode:          barcode,
		Product:          product,
		Provenance:       provenance,
		Alternatives:     []domain.Product{},
		AllergenWarnings: domain.Allergens{},
	}

	profile, err := s.profile.Allergens(ctx)
	if err != nil {
		s.logger.Warn("could not load allergen profile", zap.Error(err))
	}
	result.AllergenWarnings = product.Allergens.Intersect(profile)

	event := domain.ScanEvent{
		Barcode:     barcode,
		ScannedAt:   s.now(),
		IsHealthy:   product.IsHealthy,
		HasAllergen: len(result.AllergenWarnings) > 0,
	}
	if err := s.store.RecordScan(ctx, event); err != nil {
		s.logger.Warn("failed to record scan", zap.String("barcode", barcode), zap.Error(err))
	}

	if !product.IsHealthy {
		result.Alternatives = s.alternatives.FindAlternatives(ctx, product)
	}

	s.logger.Debug("resolved",
		zap.String("barcode", barcode),
		zap.String("provenance", string(provenance)),
		zap.Int("health_score", product.HealthScore))
	return result
}

// lookup tries the remote store when online, then the cache
func (s *ResolutionService) lookup(ctx context.Context, barcode string) (*domain.Product, domain.Provenance) {
	if s.monitor.IsOnline(ctx) {
		product, err := s.fetchRemote(ctx, barcode)
		switch {
		case err == nil:
			s.monitor.MarkOnline()
			return product, domain.ProvenanceRemote
		case ctx.Err() != nil:
			return nil, domain.ProvenanceNotFound
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
			s.logger.Debug("remote has no product", zap.String("barcode", barcode), zap.Error(err))
		default:
			s.monitor.MarkOffline()
			s.logger.Info("remote lookup failed, using cache", zap.String("barcode", barcode), zap.Error(err))
		}
	}

	cached, err := s.store.Get(ctx, barcode)
	switch {
	case err == nil:
		return cached, domain.ProvenanceCache
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.logger.Warn("cache read failed", zap.String("barcode", barcode), zap.Error(err))
	}
	return nil, domain.ProvenanceNotFound
}

// fetchRemote runs the remote call and the write-through in their own
// goroutine under a detached deadline, so a caller that leaves early does
// not abort a write that is already in flight.
func (s *ResolutionService) fetchRemote(ctx context.Context, barcode string) (*domain.Product, error) {
	done := make(chan remoteOutcome, 1)

	go func() {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		product, err := s.remote.FetchOne(fetchCtx, barcode)
		if err == nil {
			// Cache under the key lookups use, whatever form the remote echoes
			product.Barcode = barcode
			product.Normalize(s.threshold)
			if werr := s.store.Upsert(fetchCtx, product); werr != nil {
				s.logger.Warn("write-through failed", zap.String("barcode", barcode), zap.Error(werr))
			}
		}
		done <- remoteOutcome{product: product, err: err}
	}()

	select {
	case out := <-done:
		return out.product, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func notFound(barcode string) domain.ResolutionResult {
	return domain.ResolutionResult{
		Barcode:          barcode,
		Provenance:       domain.ProvenanceNotFound,
		Alternatives:     []domain.Product{},
		AllergenWarnings: domain.Allergens{},
	}
}
