// Package pagination implements keyset paging over (created_at, id).
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrMalformedCursor = errors.New("malformed cursor")

// Params is what a list endpoint accepts from the caller.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page. Rows strictly older
// than it, or equally old with a smaller id, come next.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Size clamps the requested limit into [1, MaxLimit], using DefaultLimit when
// nothing was asked for.
func (p Params) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// Fetch is the row count to query: one past the page so the caller can tell
// whether another page exists.
func (p Params) Fetch() int { return p.Size() + 1 }

// Decode returns the cursor carried by p, or nil on the first page.
func (p Params) Decode() (*Cursor, error) {
	raw := strings.TrimSpace(p.Cursor)
	if raw == "" {
		return nil, nil
	}
	return ParseCursor(raw)
}

// String renders the cursor as an opaque URL-safe token.
func (c Cursor) String() string {
	token := strconv.FormatInt(c.CreatedAt.UTC().UnixNano(), 36) + "." + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}

// ParseCursor is the inverse of Cursor.String.
func ParseCursor(token string) (*Cursor, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrMalformedCursor
	}
	stamp, id, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, ErrMalformedCursor
	}
	nanos, err := strconv.ParseInt(stamp, 36, 64)
	if err != nil {
		return nil, ErrMalformedCursor
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrMalformedCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: parsed}, nil
}

// Trim cuts an over-fetched result down to one page and returns the token
// for the following page, empty when rows was the last page.
func Trim[T any](rows []T, p Params, key func(T) Cursor) ([]T, string) {
	size := p.Size()
	if len(rows) <= size {
		return rows, ""
	}
	rows = rows[:size]
	return rows, key(rows[size-1]).String()
}
