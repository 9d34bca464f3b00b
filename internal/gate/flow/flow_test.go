package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassicOrder(t *testing.T) {
	f := Classic(true)
	require.Equal(t, 5, f.Len())
	assert.Equal(t, []string{FieldName, FieldYear, FieldCity, FieldPurpose, FieldVehicle}, f.Fields())
	for i := 0; i < f.Len(); i++ {
		step := f.Step(i)
		assert.NotEmpty(t, step.Prompt)
		assert.NotEmpty(t, step.Reprompt)
		require.NotNil(t, step.Validate)
		require.NotNil(t, step.Normalize)
	}
}

func TestClassicStrictYear(t *testing.T) {
	f := Classic(true)
	year := f.Step(1)
	require.Equal(t, FieldYear, year.Field)

	assert.True(t, year.Validate("2020 год"))
	assert.False(t, year.Validate("какая разница"))
	assert.Equal(t, "2020", year.Normalize("2020 год"))
}

func TestClassicFreeFormYear(t *testing.T) {
	f := Classic(false)
	year := f.Step(1)
	require.Equal(t, FieldYear, year.Field)

	assert.True(t, year.Validate("какая разница"))
	assert.Equal(t, "около 2010", year.Normalize("  около 2010  "))
}

func TestClassicValidators(t *testing.T) {
	f := Classic(true)

	assert.True(t, f.Step(0).Validate("Іван Петренко"))
	assert.False(t, f.Step(0).Validate("Ivan123"))

	assert.False(t, f.Step(2).Validate("москва"))
	assert.True(t, f.Step(2).Validate("Київ"))

	// Purpose accepts anything.
	assert.True(t, f.Step(3).Validate(""))

	assert.False(t, f.Step(4).Validate("У мене bmw"))
	assert.True(t, f.Step(4).Validate("embmwork"))
}
