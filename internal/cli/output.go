package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/macrolens/scanner/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Barcode not found, sync failed, remote refused
	ExitCommandError = 2 // Bad flags, unreadable config, store cannot open
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// writeJSON encodes v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-12s%s\n", label+":", value)
}

func grams(v float64) string {
	return fmt.Sprintf("%.1f g", v)
}

// RenderResult writes a resolution result as plain text
func RenderResult(w io.Writer, r domain.ResolutionResult) {
	field(w, "Barcode", r.Barcode)
	switch {
	case r.Canceled:
		field(w, "Source", "canceled")
		return
	case !r.Found():
		field(w, "Source", "not found")
		fmt.Fprintln(w, "No product found for this barcode.")
		return
	}

	p := r.Product
	source := string(r.Provenance)
	if r.Provenance == domain.ProvenanceCache {
		source = "cache (offline)"
	}
	field(w, "Source", source)

	name := p.Name
	if p.Brand != "" {
		name += " (" + p.Brand + ")"
	}
	field(w, "Product", name)
	if p.Category != "" {
		field(w, "Category", p.Category)
	}
	field(w, "Calories", fmt.Sprintf("%d kcal", p.Calories))
	field(w, "Protein", grams(p.Protein))
	field(w, "Carbs", grams(p.Carbs))
	field(w, "Sugar", grams(p.Sugar))
	field(w, "Fats", grams(p.Fats))
	field(w, "Sat. fats", grams(p.SaturatedFats))
	field(w, "Fiber", grams(p.Fiber))
	field(w, "Sodium", fmt.Sprintf("%.0f mg", p.Sodium))

	verdict := "not healthy"
	if p.IsHealthy {
		verdict = "healthy"
	}
	field(w, "Health", fmt.Sprintf("%d/100 %s", p.HealthScore, verdict))
	if len(p.Allergens) > 0 {
		field(w, "Allergens", strings.Join(p.Allergens, ", "))
	}

	if len(r.AllergenWarnings) > 0 {
		fmt.Fprintf(w, "WARNING: contains %s\n", strings.Join(r.AllergenWarnings, ", "))
	}
	if len(r.Alternatives) > 0 {
		fmt.Fprintln(w, "Healthier alternatives:")
		for i, alt := range r.Alternatives {
			fmt.Fprintf(w, "  %d. %s (%s) %d/100\n", i+1, alt.Name, alt.Barcode, alt.HealthScore)
		}
	}
}

// RenderSyncReport writes a sync report as plain text
func RenderSyncReport(w io.Writer, r domain.SyncReport) {
	if r.Failed {
		fmt.Fprintf(w, "Sync failed: %s\n", r.Error)
		return
	}
	fmt.Fprintf(w, "Synced %d of %d products (%d skipped) in %s\n",
		r.Upserted, r.Fetched, r.Skipped, r.Duration.Round(time.Millisecond))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderProducts writes cached products as a table
func RenderProducts(w io.Writer, products []domain.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Barcode", "Name", "Brand", "Category", "Kcal", "Score", "Healthy"})
	for _, p := range products {
		t.AppendRow(table.Row{p.Barcode, p.Name, p.Brand, p.Category, p.Calories, p.HealthScore, yesNo(p.IsHealthy)})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(products), "", ""})
	t.Render()
}

// RenderHistory writes recent scans as a table
func RenderHistory(w io.Writer, history []domain.HistoryEntry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Scanned at", "Barcode", "Name", "Healthy", "Allergen"})
	for _, h := range history {
		t.AppendRow(table.Row{
			h.ScannedAt.Local().Format("2006-01-02 15:04:05"),
			h.Barcode,
			h.Name,
			yesNo(h.IsHealthy),
			yesNo(h.HasAllergen),
		})
	}
	t.Render()
}

// RenderStats writes scan statistics as a table
func RenderStats(w io.Writer, stats domain.ScanStats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Total scans", stats.TotalScans},
		{"Healthy scans", stats.HealthyScans},
		{"Allergen warnings", stats.AllergenWarnings},
	})
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
