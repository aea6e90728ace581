package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestNewAllergens(t *testing.T) {
	got := NewAllergens(" Nuts", "dairy", "", "nuts", "GLUTEN ")
	want := Allergens{"dairy", "gluten", "nuts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewAllergens() = %v, want %v", got, want)
	}
}

func TestParseAllergens(t *testing.T) {
	tests := []struct {
		in   string
		want Allergens
	}{
		{"", Allergens{}},
		{"gluten,wheat", Allergens{"gluten", "wheat"}},
		{"eggs, Dairy ,gluten,", Allergens{"dairy", "eggs", "gluten"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseAllergens(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAllergens(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAllergensIntersect(t *testing.T) {
	product := NewAllergens("gluten", "dairy", "eggs")
	profile := NewAllergens("peanuts", "dairy")

	got := product.Intersect(profile)
	if !reflect.DeepEqual(got, Allergens{"dairy"}) {
		t.Errorf("Intersect() = %v, want [dairy]", got)
	}
	if len(product.Intersect(Allergens{})) != 0 {
		t.Error("Intersect() with empty profile should be empty")
	}
}

func TestAllergensScanValue(t *testing.T) {
	var a Allergens
	if err := a.Scan([]byte("soy,fish")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "fish,soy" {
		t.Errorf("Value() = %v, want fish,soy", v)
	}

	if err := a.Scan(nil); err != nil || len(a) != 0 {
		t.Errorf("Scan(nil) = %v, %v; want empty set", a, err)
	}
	if err := a.Scan(42); err == nil {
		t.Error("Scan(int) error = nil, want error")
	}
}

func TestScoreNutrients(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    int
	}{
		{
			name:    "empty profile scores full marks",
			product: Product{},
			want:    100,
		},
		{
			name: "whole wheat bread",
			product: Product{
				Calories: 250, Fats: 3, Protein: 8, Carbs: 45,
				Sugar: 4, Fiber: 6, Sodium: 380,
			},
			want: 90,
		},
		{
			name: "chocolate chip cookies",
			product: Product{
				Calories: 480, Fats: 22, Protein: 5, Carbs: 65,
				Sugar: 32, Fiber: 2,
			},
			want: 48,
		},
		{
			name: "penalties never push below zero",
			product: Product{
				Calories: 900, Fats: 90, Sugar: 90, SaturatedFats: 40, Sodium: 5000,
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreNutrients(&tt.product); got != tt.want {
				t.Errorf("ScoreNutrients() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("healthy flag requires threshold", func(t *testing.T) {
		p := Product{Barcode: "1", HealthScore: 45, IsHealthy: true}
		p.Normalize(DefaultHealthyThreshold)
		if p.IsHealthy {
			t.Error("IsHealthy = true for score 45, want false")
		}
	})

	t.Run("keeps healthy product above threshold", func(t *testing.T) {
		p := Product{Barcode: "1", HealthScore: 85, IsHealthy: true}
		p.Normalize(DefaultHealthyThreshold)
		if !p.IsHealthy {
			t.Error("IsHealthy = false for score 85, want true")
		}
	})

	t.Run("clamps negative nutrients and scores", func(t *testing.T) {
		p := Product{Calories: -5, Sugar: -1, Sodium: -20, HealthScore: 140, Allergens: Allergens{"Soy", "soy"}}
		p.Normalize(DefaultHealthyThreshold)
		if p.Calories != 0 || p.Sugar != 0 || p.Sodium != 0 {
			t.Errorf("negative nutrients not clamped: %+v", p)
		}
		if p.HealthScore != 100 {
			t.Errorf("HealthScore = %d, want 100", p.HealthScore)
		}
		if !reflect.DeepEqual(p.Allergens, Allergens{"soy"}) {
			t.Errorf("Allergens = %v, want [soy]", p.Allergens)
		}
	})

	t.Run("clears non-finite nutrients", func(t *testing.T) {
		p := Product{Barcode: "1", Name: "Broken", Sugar: math.Inf(1), Fats: math.Inf(-1), Fiber: math.NaN()}
		p.Normalize(DefaultHealthyThreshold)
		if p.Sugar != 0 || p.Fats != 0 || p.Fiber != 0 {
			t.Errorf("non-finite nutrients not cleared: %+v", p)
		}
		if _, err := json.Marshal(p); err != nil {
			t.Errorf("json.Marshal() error = %v", err)
		}
	})
}

func TestScoreNutrients_NonFinite(t *testing.T) {
	p := Product{Sugar: math.Inf(1), Sodium: math.NaN()}
	if got := ScoreNutrients(&p); got != 100 {
		t.Errorf("ScoreNutrients() = %d, want 100", got)
	}
}

func TestResolutionResultFound(t *testing.T) {
	if (ResolutionResult{Provenance: ProvenanceNotFound}).Found() {
		t.Error("not_found result reports Found")
	}
	if !(ResolutionResult{Product: &Product{Barcode: "1"}, Provenance: ProvenanceCache}).Found() {
		t.Error("cache result does not report Found")
	}
}
