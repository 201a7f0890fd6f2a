// Package nutrition computes scaled nutrient values for meal logging.
package nutrition

import (
	"encoding/json"
	"strconv"
	"strings"

	"freshplate/internal/models"
)

// ReferenceWeightGrams is the serving weight the classifier's nutrition
// payload is normalized to.
const ReferenceWeightGrams = 100.0

// RawNutrient is one entry of a scan session's nutrition payload. Value may
// arrive as a bare number or a string with a unit suffix ("78 kcal").
type RawNutrient struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

// Scale multiplies every field of base by quantity and by
// weightGrams/referenceWeight. referenceWeight <= 0 means no reference weight
// is known and the weight factor is skipped. Zero base values stay zero.
// Non-positive quantity or weight is an input error the caller must surface.
func Scale(base models.Nutrients, quantity, weightGrams, referenceWeight float64) (models.Nutrients, error) {
	if quantity <= 0 {
		return models.Nutrients{}, models.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if weightGrams <= 0 {
		return models.Nutrients{}, models.NewFieldValidationError("weight_grams", "weight_grams must be positive")
	}

	factor := quantity
	if referenceWeight > 0 {
		factor *= weightGrams / referenceWeight
	}
	return base.Scale(factor).Round(), nil
}

// ScaleFromReference scales a per-100g profile, the form scan sessions store.
func ScaleFromReference(base models.Nutrients, quantity, weightGrams float64) (models.Nutrients, error) {
	return Scale(base, quantity, weightGrams, ReferenceWeightGrams)
}

// ParseNutritionList maps a scan session's raw nutrition payload onto the
// fixed macro profile. Matching is by fuzzy nutrient name, the way the
// classifier labels them; unknown entries are ignored. Missing entries stay
// zero.
func ParseNutritionList(raw []byte) (models.Nutrients, error) {
	var entries []RawNutrient
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return models.Nutrients{}, models.NewValidationError("malformed nutrition payload")
		}
	}

	var n models.Nutrients
	for _, e := range entries {
		value := parseValue(e.Value)
		name := strings.ToLower(e.Name)
		switch {
		case strings.Contains(name, "calorie"), strings.Contains(name, "energy"):
			n.Calories = value
		case strings.Contains(name, "protein"):
			n.Protein = value
		case strings.Contains(name, "carb"):
			n.Carbs = value
		case strings.Contains(name, "saturated"):
			n.SaturatedFat = value
		case strings.Contains(name, "fat"):
			n.Fat = value
		case strings.Contains(name, "fiber"), strings.Contains(name, "fibre"):
			n.Fiber = value
		case strings.Contains(name, "sugar"):
			n.Sugar = value
		case strings.Contains(name, "sodium"):
			n.Sodium = value
		}
	}
	return n, nil
}

// parseValue extracts the leading numeric part of a JSON value that may be a
// number or a string like "1.05 g". Unparseable values count as zero.
func parseValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || (r == '-' && b.Len() == 0) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			break
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
