package domain

import "context"

// ProductStore is the local persistent cache. It owns every persisted
// product, scan event and user preference.
type ProductStore interface {
	Get(ctx context.Context, barcode string) (*Product, error)
	Upsert(ctx context.Context, product *Product) error
	// UpsertBatch applies all records in one unit: readers see either none
	// or all of them.
	UpsertBatch(ctx context.Context, products []Product) (int, error)
	RecordScan(ctx context.Context, event ScanEvent) error
	FindAlternatives(ctx context.Context, category, excludeBarcode string, minHealthScore, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit int) ([]Product, error)
	ScanStats(ctx context.Context) (*ScanStats, error)
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
	Close() error
}

// RemoteClient talks to the authoritative product API. Every call is
// bounded by a timeout; timeouts surface as ErrNetwork.
type RemoteClient interface {
	FetchOne(ctx context.Context, barcode string) (*Product, error)
	FetchAll(ctx context.Context) ([]Product, error)
	Ping(ctx context.Context) bool
	AddProduct(ctx context.Context, product *Product) error
}
