package rollup

import "github.com/shopspring/decimal"

// ExtractDecimal pulls a numeric value from the event's Properties map by
// field name. Returns decimal.Zero if the field is missing, empty, or not a
// recognized numeric type; unexpected shapes mean "does not participate",
// never an error. JSON numbers unmarshal to float64 in Go; NewFromFloat
// converts that to an exact decimal representation.
func ExtractDecimal(props map[string]interface{}, field string) decimal.Decimal {
	if field == "" {
		return decimal.Zero
	}
	v, ok := props[field]
	if !ok {
		return decimal.Zero
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// propString reads a string property, returning "" for anything that is not
// a string.
func propString(props map[string]interface{}, field string) string {
	v, ok := props[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// propBool reads a boolean property, returning false for anything that is
// not a bool.
func propBool(props map[string]interface{}, field string) bool {
	v, ok := props[field]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
