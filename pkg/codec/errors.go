package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decode failure causes, wrapped by *DecodeError
var (
	ErrMalformed      = errors.New("malformed content")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrEmptyTitle     = errors.New("empty title")
	ErrDuplicateTitle = errors.New("duplicate title")
)

// DecodeError reports content that cannot be parsed as a catalog
type DecodeError struct {
	Format string // "json" or "csv"
	Line   int    // 1-based line of the failure, 0 when unknown
	Field  string // offending field or column, if any
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "decode %s", e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is, or wraps, a *DecodeError
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// formatRating writes r in shortest exact form, always with a fractional digit
func formatRating(r float64) (string, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return "", fmt.Errorf("rating %v is not a finite number", r)
	}
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

func parseRating(s string) (float64, error) {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rating %q", ErrInvalidNumber, s)
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: rating %q is not finite", ErrInvalidNumber, s)
	}
	return r, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidNumber, s)
	}
	return y, nil
}
