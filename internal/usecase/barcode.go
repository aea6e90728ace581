package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/macrolens/scanner/internal/domain"
)

const maxBarcodeLength = 64

var barcodePattern = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

// NormalizeBarcode cleans scanner input into the key used by both the
// remote API and the local cache.
//
// Surrounding whitespace is dropped. A 13-digit EAN with a leading zero is
// the same article as its 12-digit UPC-A and is reduced to it, so a product
// scanned with either symbology hits the same cache row.
func NormalizeBarcode(raw string) (string, error) {
	barcode := strings.TrimSpace(raw)
	if barcode == "" {
		return "", fmt.Errorf("%w: barcode is empty", domain.ErrValidation)
	}
	if len(barcode) > maxBarcodeLength {
		return "", fmt.Errorf("%w: barcode longer than %d characters", domain.ErrValidation, maxBarcodeLength)
	}
	if !barcodePattern.MatchString(barcode) {
		return "", fmt.Errorf("%w: barcode %q contains invalid characters", domain.ErrValidation, barcode)
	}

	if len(barcode) == 13 && barcode[0] == '0' && isDigits(barcode) {
		barcode = barcode[1:]
	}
	return barcode, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
