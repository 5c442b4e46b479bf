package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	token, err := EncodeCursor(Cursor{ID: 99, CreatedAt: at})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(at))

	_, err = DecodeCursor("not-a-token!")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestPaginate(t *testing.T) {
	rows := []int64{5, 4, 3}
	cursorOf := func(v int64) Cursor { return Cursor{ID: v} }

	page, info, err := Paginate(rows, Pagination{PageSize: 2}, cursorOf)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, page)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID)

	page, info, err = Paginate(rows, Pagination{PageSize: 5}, cursorOf)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
}

func TestPageSizeBounds(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10_000}.Size())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Size())
}
