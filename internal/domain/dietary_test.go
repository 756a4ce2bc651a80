package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDietaryValue_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		value DietaryValue
		want  string
	}{
		{"none", DietaryValue{Choice: DietaryNone}, ""},
		{"empty choice", DietaryValue{}, ""},
		{"none ignores other", DietaryValue{Choice: DietaryNone, Other: "shellfish"}, ""},
		{"other is trimmed", DietaryValue{Choice: DietaryOther, Other: "  shellfish  "}, "shellfish"},
		{"other blank", DietaryValue{Choice: DietaryOther, Other: "   "}, ""},
		{"vegan ignores other", DietaryValue{Choice: DietaryVegan, Other: "anything"}, "vegan"},
		{"gluten-free token", DietaryValue{Choice: DietaryGlutenFree}, "gluten-free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Normalize())
		})
	}
}

func TestDietaryChoice_IsValid(t *testing.T) {
	for _, c := range DietaryChoices {
		assert.True(t, c.IsValid(), c)
	}
	assert.True(t, DietaryChoice("").IsValid())
	assert.False(t, DietaryChoice("carnivore").IsValid())
	assert.False(t, DietaryChoice("Vegan").IsValid())
}
