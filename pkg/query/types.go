package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// Queryable movie fields
const (
	FieldTitle  = "title"
	FieldYear   = "year"
	FieldRating = "rating"
	FieldPoster = "poster"
)

// FieldExtractor defines how to extract field values from a movie
type FieldExtractor interface {
	Extract(m codec.Movie, field string) (interface{}, error)
}

// MovieFieldExtractor reads the fields of codec.Movie. Title and poster are
// strings, year and rating are float64.
type MovieFieldExtractor struct{}

// Extract implements FieldExtractor for movies
func (e *MovieFieldExtractor) Extract(m codec.Movie, field string) (interface{}, error) {
	switch strings.ToLower(field) {
	case FieldTitle:
		return m.Title, nil
	case FieldYear:
		return float64(m.Year), nil
	case FieldRating:
		return m.Rating, nil
	case FieldPoster:
		return m.Poster, nil
	default:
		return nil, fmt.Errorf("unknown field '%s'", field)
	}
}

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string      // Field name to query (e.g., "year", "title")
	Operator string      // Comparison operator: "=", "!=", ">", "<", ">=", "<=", "~"
	Value    interface{} // Value to compare against
}

var validOps = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true, "~": true,
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if q.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	if !validOps[q.Operator] {
		return fmt.Errorf("invalid operator: %s", q.Operator)
	}
	return nil
}

// Match reports whether m satisfies the condition. Numbers compare numerically,
// strings compare case-insensitively and "~" is a substring match.
func (q *FieldQuery) Match(m codec.Movie, extractor FieldExtractor) (bool, error) {
	got, err := extractor.Extract(m, q.Field)
	if err != nil {
		return false, err
	}

	switch v := got.(type) {
	case float64:
		want, err := toFloat(q.Value)
		if err != nil {
			return false, fmt.Errorf("field %s: %w", q.Field, err)
		}
		return compareFloat(v, q.Operator, want)
	case string:
		return compareString(v, q.Operator, fmt.Sprint(q.Value))
	default:
		return false, fmt.Errorf("field %s has unsupported type %T", q.Field, got)
	}
}

func compareFloat(a float64, op string, b float64) (bool, error) {
	switch op {
	case "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	default:
		return false, fmt.Errorf("operator %s does not apply to numbers", op)
	}
}

func compareString(a, op, b string) (bool, error) {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch op {
	case "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "~":
		return strings.Contains(a, b), nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	default:
		return false, fmt.Errorf("operator %s does not apply to text", op)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%v is not a number", v)
	}
}

// ParseFieldQuery parses a condition such as "rating>=8" or "title~god"
func ParseFieldQuery(s string) (FieldQuery, error) {
	// longer operators come first so ">=" wins over ">" at the same position
	best, bestOp := -1, ""
	for _, op := range []string{">=", "<=", "!=", "=", ">", "<", "~"} {
		if i := strings.Index(s, op); i > 0 && (best < 0 || i < best) {
			best, bestOp = i, op
		}
	}
	if best < 0 {
		return FieldQuery{}, fmt.Errorf("no operator in condition %q", s)
	}

	q := FieldQuery{
		Field:    strings.ToLower(strings.TrimSpace(s[:best])),
		Operator: bestOp,
		Value:    strings.TrimSpace(s[best+len(bestOp):]),
	}
	if strings.ContainsAny(q.Field, "<>!=~") {
		return FieldQuery{}, fmt.Errorf("malformed condition %q", s)
	}
	return q, q.Validate()
}

// QueryResult represents a single query result
type QueryResult struct {
	Title string
	Movie codec.Movie
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, query FieldQuery, extractor FieldExtractor) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery, extractor FieldExtractor) (QueryIterator, error)
}
