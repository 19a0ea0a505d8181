package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func notNumeric(key string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
		WithDetails(map[string]any{"field": key})
}

// ParseQueryInt reads an int query parameter bounded by [lo, hi]. An absent
// parameter yields fallback without a range check.
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, notNumeric(key)
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}

// ParseOptionalInt64 returns nil when the parameter is absent.
func ParseOptionalInt64(r *http.Request, key string) (*int64, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, notNumeric(key)
	}
	return &n, nil
}

// ParsePathID accepts positive decimal ids only. Callers answer a false ok
// with 404, the same as for an unknown id.
func ParsePathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return id, err == nil && id > 0
}
