package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var errNegative = errors.New("negative value")

// ParseError reports a position file field whose text could not be converted
// to a number. The store skips the whole record; the metrics engine surfaces
// it as "metrics unavailable".
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDecimal converts a decimal-as-text field.
func ParseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &ParseError{Field: field, Value: value, Err: err}
	}
	return d, nil
}

// ParseEpochMillis converts an epoch-millis-as-text field. Comparison of
// transaction times has to be numeric, never lexicographic.
func ParseEpochMillis(field, value string) (int64, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: value, Err: err}
	}
	return ms, nil
}
