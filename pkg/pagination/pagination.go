// Package pagination implements keyset (cursor) paging over rows ordered by
// a timestamp descending with a string id as tie breaker.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const cursorSep = "|"

var ErrInvalidCursor = errors.New("invalid cursor")

// Params are the raw paging inputs of a list request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row already returned.
type Cursor struct {
	At time.Time
	ID string
}

// Clamp maps limit into [1, MaxLimit]; non-positive values become DefaultLimit.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Probe is the row count to fetch so Trim can tell whether another page exists.
func Probe(limit int) int {
	return Clamp(limit) + 1
}

// Trim cuts rows fetched with Probe(limit) down to the page and reports
// whether rows were left over.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	n := Clamp(limit)
	if len(rows) <= n {
		return rows, false
	}
	return rows[:n], true
}

// Encode renders c as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := c.At.UTC().Format(time.RFC3339Nano) + cursorSep + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token from Encode. A blank token is the first page
// and decodes to nil. Every malformed token wraps ErrInvalidCursor.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidCursor, err)
	}
	at, id, ok := strings.Cut(string(raw), cursorSep)
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, errors.Join(ErrInvalidCursor, err)
	}
	return &Cursor{At: ts.UTC(), ID: id}, nil
}
