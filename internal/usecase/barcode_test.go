package usecase

import (
	"errors"
	"testing"

	"github.com/macrolens/scanner/internal/domain"
)

func TestNormalizeBarcode(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "upc-a unchanged", input: "096619036530", want: "096619036530"},
		{name: "trims whitespace", input: "  123456\n", want: "123456"},
		{name: "ean-13 with leading zero reduced", input: "0096619036530", want: "096619036530"},
		{name: "ean-13 without leading zero kept", input: "5000112637922", want: "5000112637922"},
		{name: "short code kept", input: "000000", want: "000000"},
		{name: "alphanumeric kept", input: "ABC-123", want: "ABC-123"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "embedded space", input: "123 456", wantErr: true},
		{name: "query injection", input: "1' OR '1'='1", wantErr: true},
		{name: "too long", input: "1234567890123456789012345678901234567890123456789012345678901234567890", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeBarcode(tc.input)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("NormalizeBarcode(%q) error = %v, want ErrValidation", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBarcode(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("NormalizeBarcode(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
