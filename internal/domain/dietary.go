package domain

import (
	"slices"
	"strings"
)

// DietaryChoice is a token from the canonical dietary vocabulary.
type DietaryChoice string

// Dietary choices.
const (
	DietaryNone           DietaryChoice = "none"
	DietaryVegetarian     DietaryChoice = "vegetarian"
	DietaryVegan          DietaryChoice = "vegan"
	DietaryGlutenFree     DietaryChoice = "gluten-free"
	DietaryLactoseFree    DietaryChoice = "lactose-free"
	DietaryNutAllergy     DietaryChoice = "nut-allergy"
	DietarySeafoodAllergy DietaryChoice = "seafood-allergy"
	DietaryHalal          DietaryChoice = "halal"
	DietaryKosher         DietaryChoice = "kosher"
	DietaryOther          DietaryChoice = "other"
)

// DietaryChoices lists the vocabulary in display order.
var DietaryChoices = []DietaryChoice{
	DietaryNone,
	DietaryVegetarian,
	DietaryVegan,
	DietaryGlutenFree,
	DietaryLactoseFree,
	DietaryNutAllergy,
	DietarySeafoodAllergy,
	DietaryHalal,
	DietaryKosher,
	DietaryOther,
}

// IsValid reports whether c is part of the vocabulary. The empty choice counts as none.
func (c DietaryChoice) IsValid() bool {
	return c == "" || slices.Contains(DietaryChoices, c)
}

// DietaryValue is the two-part form input for a dietary restriction.
// It only exists while a guest record is being built.
type DietaryValue struct {
	Choice DietaryChoice `json:"choice"`
	Other  string        `json:"other,omitempty"`
}

// Normalize collapses the value to the string stored on a guest:
// none gives "", other gives the trimmed free text, anything else its token.
// Other is ignored unless Choice is other.
func (v DietaryValue) Normalize() string {
	switch v.Choice {
	case "", DietaryNone:
		return ""
	case DietaryOther:
		return strings.TrimSpace(v.Other)
	default:
		return string(v.Choice)
	}
}
