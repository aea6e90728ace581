package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/macrolens/scanner/internal/domain"
)

// RecordScan appends a scan event. A zero ScannedAt is stamped with now.
func (s *Store) RecordScan(ctx context.Context, event domain.ScanEvent) error {
	if event.Barcode == "" {
		return fmt.Errorf("%w: scan barcode is required", domain.ErrValidation)
	}
	if event.ScannedAt.IsZero() {
		event.ScannedAt = s.now()
	}
	event.ScannedAt = event.ScannedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO scan_history (barcode, scanned_at, is_healthy, has_allergen)
		VALUES (:barcode, :scanned_at, :is_healthy, :has_allergen)
	`, &event)
	if err != nil {
		return fmt.Errorf("%w: record scan %s: %v", domain.ErrStorage, event.Barcode, err)
	}
	return nil
}

// ScanStats aggregates the scan log.
func (s *Store) ScanStats(ctx context.Context) (*domain.ScanStats, error) {
	var stats domain.ScanStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_scans,
			COALESCE(SUM(is_healthy), 0) AS healthy_scans,
			COALESCE(SUM(has_allergen), 0) AS allergen_warnings
		FROM scan_history
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: scan stats: %v", domain.ErrStorage, err)
	}
	return &stats, nil
}

// History returns the most recent scans, newest first, with product names
// where the product is cached.
func (s *Store) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	entries := []domain.HistoryEntry{}
	if limit <= 0 {
		return entries, nil
	}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT sh.barcode, COALESCE(p.name, '') AS name, sh.scanned_at, sh.is_healthy, sh.has_allergen
		FROM scan_history sh
		LEFT JOIN products p ON sh.barcode = p.barcode
		ORDER BY sh.scanned_at DESC, sh.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: scan history: %v", domain.ErrStorage, err)
	}
	return entries, nil
}

// GetPreference returns a stored preference, or domain.ErrNotFound.
func (s *Store) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT preference_value FROM user_preferences WHERE preference_key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: get preference %s: %v", domain.ErrStorage, key, err)
	}
	return value, nil
}

// SetPreference stores or replaces a preference.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (preference_key, preference_value) VALUES (?, ?)
		ON CONFLICT(preference_key) DO UPDATE SET preference_value = excluded.preference_value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: set preference %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}
