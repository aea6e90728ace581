package domain

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Product is a cached nutrition record keyed by barcode.
// Nutrient values are per 100g/ml.
type Product struct {
	Barcode       string    `json:"barcode" db:"barcode"`
	Name          string    `json:"name" db:"name"`
	Brand         string    `json:"brand,omitempty" db:"brand"`
	Category      string    `json:"category,omitempty" db:"category"`
	Calories      int       `json:"calories" db:"calories"`
	Protein       float64   `json:"protein" db:"protein"`
	Carbs         float64   `json:"carbs" db:"carbs"`
	Sugar         float64   `json:"sugar" db:"sugar"`
	Fats          float64   `json:"fats" db:"fats"`
	SaturatedFats float64   `json:"saturated_fats" db:"saturated_fats"`
	Fiber         float64   `json:"fiber" db:"fiber"`
	Sodium        float64   `json:"sodium" db:"sodium"`
	Allergens     Allergens `json:"allergens" db:"allergens"`
	HealthScore   int       `json:"health_score" db:"health_score"`
	IsHealthy     bool      `json:"is_healthy" db:"is_healthy"`
	CachedAt      time.Time `json:"cached_at,omitempty" db:"cached_at"`
}

// Allergens is a set of lowercase allergen tokens kept sorted and unique,
// so two sets with the same members compare equal.
type Allergens []string

// NewAllergens normalizes tokens into an Allergens set.
func NewAllergens(tokens ...string) Allergens {
	seen := make(map[string]struct{}, len(tokens))
	out := make(Allergens, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ParseAllergens splits a comma-separated allergen list.
func ParseAllergens(s string) Allergens {
	if s == "" {
		return Allergens{}
	}
	return NewAllergens(strings.Split(s, ",")...)
}

// String returns the comma-joined form used for storage.
func (a Allergens) String() string {
	return strings.Join(a, ",")
}

// Contains reports whether token is in the set.
func (a Allergens) Contains(token string) bool {
	i := sort.SearchStrings(a, token)
	return i < len(a) && a[i] == token
}

// Intersect returns the allergens present in both sets.
func (a Allergens) Intersect(other Allergens) Allergens {
	out := Allergens{}
	for _, t := range a {
		if other.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (a Allergens) Value() (driver.Value, error) {
	return NewAllergens(a...).String(), nil
}

// Scan implements sql.Scanner.
func (a *Allergens) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Allergens{}
	case string:
		*a = ParseAllergens(v)
	case []byte:
		*a = ParseAllergens(string(v))
	default:
		return fmt.Errorf("allergens: unsupported type %T", src)
	}
	return nil
}

// Provenance tags where a resolution result came from.
type Provenance string

const (
	ProvenanceRemote   Provenance = "remote"
	ProvenanceCache    Provenance = "cache"
	ProvenanceNotFound Provenance = "not_found"
)

// ResolutionResult is the terminal outcome of resolving a barcode.
type ResolutionResult struct {
	Barcode          string     `json:"barcode"`
	Product          *Product   `json:"product,omitempty"`
	Provenance       Provenance `json:"provenance"`
	Alternatives     []Product  `json:"alternatives"`
	AllergenWarnings Allergens  `json:"allergenWarnings"`
	Canceled         bool       `json:"canceled,omitempty"`
}

// Found reports whether a product was resolved.
func (r ResolutionResult) Found() bool {
	return r.Product != nil && r.Provenance != ProvenanceNotFound
}

// ScanEvent is an append-only record of a successful resolution.
type ScanEvent struct {
	Barcode     string    `json:"barcode" db:"barcode"`
	ScannedAt   time.Time `json:"scannedAt" db:"scanned_at"`
	IsHealthy   bool      `json:"isHealthy" db:"is_healthy"`
	HasAllergen bool      `json:"hasAllergen" db:"has_allergen"`
}

// HistoryEntry is a scan joined with the cached product name.
type HistoryEntry struct {
	ScanEvent
	Name string `json:"name" db:"name"`
}

// ScanStats summarizes the scan log.
type ScanStats struct {
	TotalScans       int `json:"totalScans" db:"total_scans"`
	HealthyScans     int `json:"healthyScans" db:"healthy_scans"`
	AllergenWarnings int `json:"allergenWarnings" db:"allergen_warnings"`
}

// SyncReport describes one catalog sync run.
type SyncReport struct {
	RunID     string        `json:"runId"`
	Fetched   int           `json:"fetched"`
	Upserted  int           `json:"upserted"`
	Skipped   int           `json:"skipped"`
	Failed    bool          `json:"failed"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}
