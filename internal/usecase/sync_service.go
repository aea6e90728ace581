package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/macrolens/scanner/internal/domain"
)

// SyncService mirrors the remote catalog into the local cache
type SyncService struct {
	store     domain.ProductStore
	remote    domain.RemoteClient
	monitor   *ConnectivityMonitor
	threshold int
	logger    *zap.Logger
	now       func() time.Time

	runs singleflight.Group
}

// NewSyncService creates a new sync service
func NewSyncService(
	store domain.ProductStore,
	remote domain.RemoteClient,
	monitor *ConnectivityMonitor,
	healthyThreshold int,
	logger *zap.Logger,
) *SyncService {
	if healthyThreshold <= 0 {
		healthyThreshold = domain.DefaultHealthyThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		store:     store,
		remote:    remote,
		monitor:   monitor,
		threshold: healthyThreshold,
		logger:    logger.Named("sync"),
		now:       time.Now,
	}
}

// SyncAll fetches the full catalog and upserts it in one batch. Calls that
// overlap a running sync share its report. If ctx ends first the caller
// gets a failed report while the shared run finishes in the background.
func (s *SyncService) SyncAll(ctx context.Context) domain.SyncReport {
	ch := s.runs.DoChan("sync", func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.SyncReport)
	case <-ctx.Done():
		return domain.SyncReport{
			Failed:    true,
			Error:     ctx.Err().Error(),
			StartedAt: s.now(),
		}
	}
}

func (s *SyncService) run(ctx context.Context) domain.SyncReport {
	report := domain.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID))
	logger.Info("sync started")

	finish := func(err error) domain.SyncReport {
		report.Duration = s.now().Sub(report.StartedAt)
		if err != nil {
			report.Failed = true
			report.Upserted = 0
			report.Error = err.Error()
			logger.Warn("sync failed", zap.Error(err), zap.Duration("duration", report.Duration))
			return report
		}
		logger.Info("sync finished",
			zap.Int("fetched", report.Fetched),
			zap.Int("upserted", report.Upserted),
			zap.Int("skipped", report.Skipped),
			zap.Duration("duration", report.Duration))
		return report
	}

	products, err := s.remote.FetchAll(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNetwork) {
			s.monitor.MarkOffline()
		}
		return finish(err)
	}
	s.monitor.MarkOnline()
	report.Fetched = len(products)

	batch, skipped := s.prepare(products)
	report.Skipped = skipped

	n, err := s.store.UpsertBatch(ctx, batch)
	if err != nil {
		return finish(fmt.Errorf("apply catalog: %w", err))
	}
	report.Upserted = n
	return finish(nil)
}

// prepare drops records whose barcode does not normalize and keeps the last occurrence
// of each barcode at the position it was first seen
func (s *SyncService) prepare(products []domain.Product) (batch []domain.Product, skipped int) {
	index := make(map[string]int, len(products))
	batch = make([]domain.Product, 0, len(products))
	for _, p := range products {
		barcode, err := NormalizeBarcode(p.Barcode)
		if err != nil {
			s.logger.Debug("skipping catalog record", zap.String("barcode", p.Barcode), zap.Error(err))
			skipped++
			continue
		}
		p.Barcode = barcode
		p.Normalize(s.threshold)
		if i, ok := index[p.Barcode]; ok {
			batch[i] = p
			continue
		}
		index[p.Barcode] = len(batch)
		batch = append(batch, p)
	}
	return batch, skipped
}

// Run syncs on every tick until ctx ends
func (s *SyncService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncAll(ctx)
		}
	}
}

// Submit sends a new product to the remote catalog and caches it locally.
// A negative HealthScore is derived from the nutrients.
func (s *SyncService) Submit(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("%w: product is required", domain.ErrValidation)
	}
	barcode, err := NormalizeBarcode(product.Barcode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}

	p := *product
	p.Barcode = barcode
	derive := p.HealthScore < 0
	p.Normalize(s.threshold)
	if derive {
		p.HealthScore = domain.ScoreNutrients(&p)
		p.IsHealthy = p.HealthScore >= s.threshold
	}

	if err := s.remote.AddProduct(ctx, &p); err != nil {
		if errors.Is(err, domain.ErrNetwork) {
			s.monitor.MarkOffline()
		}
		return err
	}
	s.monitor.MarkOnline()

	if err := s.store.Upsert(ctx, &p); err != nil {
		s.logger.Warn("product added remotely but not cached", zap.String("barcode", barcode), zap.Error(err))
	}
	*product = p
	return nil
}
