package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	City  string  `json:"city"`
	Days  int     `json:"days,omitempty"`
	Scale *string `json:"scale,omitempty"`
}

func TestStructSchema(t *testing.T) {
	schema, err := StructSchema(sampleArgs{})
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")
	assert.Contains(t, props, "scale")

	req := requiredFields(schema)
	assert.Contains(t, req, "city")
	assert.NotContains(t, req, "scale")
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
	// JSON decoding yields float64 for integers
	assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok, "expected ValidationError, got %T", err)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.Error(t, err)
	vErr, ok = err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type integer")
}

func TestValidateParametersAllowsExtraFields(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	assert.NoError(t, ValidateParameters(map[string]any{"unknown": true}, schema))
}
