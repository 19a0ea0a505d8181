package validators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON integer or a string holding one, the way browser
// form code tends to send quantities and ids. Fractions, non-numeric text and
// out-of-range values fail to decode. Set reports whether the field was present.
type FlexInt struct {
	Value int64
	Set   bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = FlexInt{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	value, err := ParseWholeNumber(raw)
	if err != nil {
		return err
	}
	*f = FlexInt{Value: value, Set: true}
	return nil
}

// Int returns the value or fallback when the field was absent.
func (f FlexInt) Int(fallback int64) int64 {
	if !f.Set {
		return fallback
	}
	return f.Value
}

// ParseWholeNumber parses a base-10 integer. Exponent or decimal notation is
// accepted only when it denotes a whole number (e.g. "2.0").
func ParseWholeNumber(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty number")
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	fv, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(fv) || math.IsInf(fv, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if fv != math.Trunc(fv) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if fv > math.MaxInt32 || fv < math.MinInt32 {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return int64(fv), nil
}
