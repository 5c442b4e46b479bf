package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalTime(t *testing.T) {
	got, err := parseOptionalTime("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalTime("2026-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseOptionalTime("2026-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), *got)

	got, err = parseOptionalTime("2026-03-01T10:00:00+02:00", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), *got)

	_, err = parseOptionalTime("March 1st", false)
	assert.ErrorIs(t, err, errInvalidTime)
}

func TestParseTimeRangeReportsEveryField(t *testing.T) {
	_, _, err := parseTimeRange("from", "bad", "to", "worse")
	require.Error(t, err)
	status, payload := mapError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Len(t, payload.Errors, 2)
	assert.Equal(t, "invalid_from", payload.Errors[0].Code)
	assert.Equal(t, "invalid_to", payload.Errors[1].Code)
}

func TestParseTimeRangeRejectsInvertedRange(t *testing.T) {
	_, _, err := parseTimeRange("created_from", "2026-04-02", "created_to", "2026-04-01")
	require.Error(t, err)
	_, payload := mapError(err)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "created_to", payload.Errors[0].Field)
	assert.Equal(t, "invalid_time_range", payload.Errors[0].Code)

	from, to, err := parseTimeRange("from", "2026-04-01", "to", "2026-04-01")
	require.NoError(t, err)
	assert.True(t, to.After(*from))
}
