package viewmodel

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RawAmount is a money value as sent by the remote API: a JSON number, a
// numeric string, or null.
type RawAmount string

// UnmarshalJSON accepts numbers and strings. Anything else decodes as an
// empty amount so one bad field does not fail the whole payload.
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*a = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = ""
			return nil
		}
		*a = RawAmount(strings.TrimSpace(s))
	default:
		*a = RawAmount(data)
	}
	return nil
}

// Decimal parses the amount, defaulting to zero when it is empty or malformed.
func (a RawAmount) Decimal() decimal.Decimal {
	if a == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(a))
	if err != nil {
		return decimal.Zero
	}
	return d
}
