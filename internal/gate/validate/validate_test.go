package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"cyrillic full name", "Іван Петренко", true},
		{"russian name", "Пётр Ёлкин", true},
		{"latin name", "John Smith", true},
		{"single token", "Іван", true},
		{"digits rejected", "Ivan123", false},
		{"punctuation rejected", "Ivan-Petrov", false},
		{"empty rejected", "", false},
		{"whitespace only rejected", "   ", false},
		{"mixed scripts across tokens", "Ivan Петренко", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Name(tc.input), "input %q", tc.input)
		})
	}
}

func TestOriginValidator(t *testing.T) {
	valid := NewOriginValidator([]string{"Москва", "Санкт-Петербург", "Ростов-на-Дону"})

	t.Run("deny entries rejected regardless of case", func(t *testing.T) {
		assert.False(t, valid("Москва"))
		assert.False(t, valid("москва"))
		assert.False(t, valid("МОСКВА"))
		assert.False(t, valid("  москва  "))
		assert.False(t, valid("ростов-на-дону"))
	})

	t.Run("everything else accepted", func(t *testing.T) {
		assert.True(t, valid("Київ"))
		assert.True(t, valid("Львів"))
		assert.True(t, valid("Не Москва"))
	})

	t.Run("exact match not substring", func(t *testing.T) {
		assert.True(t, valid("Москва-сіті"))
	})
}

func TestVehicleValidator(t *testing.T) {
	valid := NewVehicleValidator([]string{"bmw", "бмв", "беха"})

	t.Run("banned tokens as whole words rejected", func(t *testing.T) {
		assert.False(t, valid("bmw"))
		assert.False(t, valid("У мене bmw"))
		assert.False(t, valid("BMW X5"))
		assert.False(t, valid("моя бмв 2015"))
		assert.False(t, valid("Беха, ага"))
	})

	t.Run("substrings inside longer words accepted", func(t *testing.T) {
		assert.True(t, valid("embmwork"))
		assert.True(t, valid("відбмвутер"))
	})

	t.Run("other vehicles accepted", func(t *testing.T) {
		assert.True(t, valid("Audi A4"))
		assert.True(t, valid("Volkswagen Golf 2018"))
	})
}

func TestYearValidator(t *testing.T) {
	valid := NewYearValidator(1990, 2025, []string{"год", "года"})

	cases := []struct {
		input string
		want  bool
	}{
		{"2020 год", true},
		{"2018 года", true},
		{"2020год", true},
		{"  2005 ГОД  ", true},
		{"2020", false},
		{"год 2020", false},
		{"1989 год", false},
		{"2026 год", false},
		{"20x0 год", false},
		{"2020 рік", false},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, valid(tc.input), "input %q", tc.input)
		})
	}
}

func TestLeadingYear(t *testing.T) {
	assert.Equal(t, "2020", LeadingYear("2020 год"))
	assert.Equal(t, "2018", LeadingYear("  2018 года"))
	assert.Equal(t, "free text", LeadingYear("free text"))
}
