package rollup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExtractDecimal(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]interface{}
		field string
		want  decimal.Decimal
	}{
		{"float64 (JSON number)", map[string]interface{}{"total": 150.25}, "total", decimal.NewFromFloat(150.25)},
		{"int", map[string]interface{}{"total": 7}, "total", decimal.NewFromInt(7)},
		{"numeric string", map[string]interface{}{"total": "19.99"}, "total", decimal.NewFromFloat(19.99)},
		{"non-numeric string", map[string]interface{}{"total": "free"}, "total", decimal.Zero},
		{"bool is not a number", map[string]interface{}{"total": true}, "total", decimal.Zero},
		{"missing field", map[string]interface{}{}, "total", decimal.Zero},
		{"empty field name", map[string]interface{}{"total": 5.0}, "", decimal.Zero},
		{"nil map", nil, "total", decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDecimal(tt.props, tt.field)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPropHelpers(t *testing.T) {
	props := map[string]interface{}{
		"code":    "X1",
		"success": true,
		"count":   3.0,
	}

	assert.Equal(t, "X1", propString(props, "code"))
	assert.Equal(t, "", propString(props, "count"))
	assert.Equal(t, "", propString(props, "missing"))
	assert.Equal(t, "", propString(nil, "code"))

	assert.True(t, propBool(props, "success"))
	assert.False(t, propBool(props, "code"))
	assert.False(t, propBool(props, "missing"))
	assert.False(t, propBool(nil, "success"))
}
