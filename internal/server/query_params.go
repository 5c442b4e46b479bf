package server

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

var errInvalidTime = errors.New("invalid_time")

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseOptionalTime accepts RFC3339 or a bare date. Bare dates expand to the
// start of the day, or its last instant when endOfDay is set.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	parsed, err := time.Parse(dateOnlyLayout, trimmed)
	if err != nil {
		return nil, errInvalidTime
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

// parseTimeRange parses an optional [from, to] pair of query values. Every
// bad field is reported at once, and a range that ends before it starts is
// rejected on the to field.
func parseTimeRange(fromField, from, toField, to string) (*time.Time, *time.Time, error) {
	var fieldErrs []ValidationError

	start, err := parseOptionalTime(from, false)
	if err != nil {
		fieldErrs = append(fieldErrs, ValidationError{Field: fromField, Code: "invalid_" + fromField, Message: "invalid " + fromField})
	}
	end, err := parseOptionalTime(to, true)
	if err != nil {
		fieldErrs = append(fieldErrs, ValidationError{Field: toField, Code: "invalid_" + toField, Message: "invalid " + toField})
	}
	if len(fieldErrs) == 0 && start != nil && end != nil && end.Before(*start) {
		fieldErrs = append(fieldErrs, ValidationError{Field: toField, Code: "invalid_time_range", Message: toField + " is before " + fromField})
	}
	if len(fieldErrs) > 0 {
		return nil, nil, &ValidationErrors{Errors: fieldErrs}
	}
	return start, end, nil
}
