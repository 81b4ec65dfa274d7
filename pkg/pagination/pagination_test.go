package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsSizeClamps(t *testing.T) {
	assert.Equal(t, DefaultLimit, Params{}.Size())
	assert.Equal(t, 7, Params{Limit: 7}.Size())
	assert.Equal(t, MaxLimit, Params{Limit: 5000}.Size())
	assert.Equal(t, 8, Params{Limit: 7}.Fetch())
}

func TestCursorRoundTripKeepsNanoseconds(t *testing.T) {
	c := Cursor{
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 891011, time.UTC),
		ID:        uuid.New(),
	}

	got, err := Params{Cursor: c.String()}.Decode()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, c.ID, got.ID)
}

func TestDecodeEmptyCursorIsFirstPage(t *testing.T) {
	got, err := Params{Cursor: "  "}.Decode()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"!!!", "bm9kb3Q", "enp6LnNvbWV0aGluZw"} {
		_, err := ParseCursor(token)
		assert.ErrorIs(t, err, ErrMalformedCursor, token)
	}
}

func TestTrimReturnsNextCursorOnlyWhenMoreRows(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 3)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, Params{Limit: 2}, key)
	require.Len(t, page, 2)
	assert.Equal(t, rows[1].String(), next)

	page, next = Trim(rows, Params{Limit: 3}, key)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
