package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/macrolens/scanner/internal/domain"
)

// envelope is the {success, data, error} wrapper the product API uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// wireProduct is the product record as the API serializes it. Numeric
// columns may arrive as JSON numbers or numeric strings.
type wireProduct struct {
	Barcode       string        `json:"barcode"`
	Name          *string       `json:"name"`
	Brand         *string       `json:"brand"`
	Category      *string       `json:"category"`
	Calories      flexFloat     `json:"calories"`
	Protein       flexFloat     `json:"protein"`
	Carbs         flexFloat     `json:"carbs"`
	Sugar         flexFloat     `json:"sugar"`
	Fats          flexFloat     `json:"fats"`
	SaturatedFats flexFloat     `json:"saturated_fats"`
	Fiber         flexFloat     `json:"fiber"`
	Sodium        flexFloat     `json:"sodium"`
	Allergens     flexAllergens `json:"allergens"`
	HealthScore   *flexFloat    `json:"health_score,omitempty"`
	IsHealthy     *flexBool     `json:"is_healthy,omitempty"`
}

// flexFloat accepts 12.5, "12.5" and null. Quoted values may spell NaN or
// Inf, which value() reads as 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// value returns f as a float64, or 0 when f is NaN or infinite.
func (f flexFloat) value() float64 {
	if !f.finite() {
		return 0
	}
	return float64(f)
}

func (f flexFloat) finite() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// flexBool accepts true/false, 1/0 and "1"/"0".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", b)
	}
	return nil
}

// flexAllergens accepts a JSON array or a comma-separated string.
type flexAllergens []string

func (f *flexAllergens) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexAllergens(domain.ParseAllergens(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

// MapToProduct converts a wire record to a domain product. A missing health
// score is derived from the nutrients, and is_healthy is reconciled with the
// threshold.
func MapToProduct(w *wireProduct, threshold int) domain.Product {
	p := domain.Product{
		Barcode:       strings.TrimSpace(w.Barcode),
		Name:          deref(w.Name),
		Brand:         deref(w.Brand),
		Category:      deref(w.Category),
		Calories:      int(math.Round(w.Calories.value())),
		Protein:       w.Protein.value(),
		Carbs:         w.Carbs.value(),
		Sugar:         w.Sugar.value(),
		Fats:          w.Fats.value(),
		SaturatedFats: w.SaturatedFats.value(),
		Fiber:         w.Fiber.value(),
		Sodium:        w.Sodium.value(),
		Allergens:     domain.NewAllergens(w.Allergens...),
	}

	// Clamp before scoring so negative nutrients can't earn a bonus
	p.Normalize(threshold)

	// A non-finite score counts as missing
	if w.HealthScore != nil && w.HealthScore.finite() {
		p.HealthScore = int(math.Round(float64(*w.HealthScore)))
	} else {
		p.HealthScore = domain.ScoreNutrients(&p)
	}

	if w.IsHealthy != nil {
		p.IsHealthy = bool(*w.IsHealthy)
	} else {
		p.IsHealthy = p.HealthScore >= threshold
	}

	p.Normalize(threshold)
	return p
}

// mapFromProduct converts a domain product to its wire form.
func mapFromProduct(p *domain.Product) *wireProduct {
	score := flexFloat(p.HealthScore)
	healthy := flexBool(p.IsHealthy)
	return &wireProduct{
		Barcode:       p.Barcode,
		Name:          strPtr(p.Name),
		Brand:         strPtr(p.Brand),
		Category:      strPtr(p.Category),
		Calories:      flexFloat(p.Calories),
		Protein:       flexFloat(p.Protein),
		Carbs:         flexFloat(p.Carbs),
		Sugar:         flexFloat(p.Sugar),
		Fats:          flexFloat(p.Fats),
		SaturatedFats: flexFloat(p.SaturatedFats),
		Fiber:         flexFloat(p.Fiber),
		Sodium:        flexFloat(p.Sodium),
		Allergens:     flexAllergens(domain.NewAllergens(p.Allergens...)),
		HealthScore:   &score,
		IsHealthy:     &healthy,
	}
}

// decodeCatalog accepts either a bare JSON array of products or the
// {success, data: [...]} envelope.
func decodeCatalog(body []byte) ([]wireProduct, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var items []wireProduct
	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("api error: %s", env.Error)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []wireProduct{}, nil
	}
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
