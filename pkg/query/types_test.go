package query

import (
	"testing"

	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var godfather = codec.Movie{Title: "The Godfather", Year: 1972, Rating: 9.0, Poster: "https://example.com/g.jpg"}

func TestFieldQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   FieldQuery
		wantErr bool
	}{
		{"valid equality query", FieldQuery{Field: "year", Operator: "=", Value: 1972}, false},
		{"valid range query", FieldQuery{Field: "rating", Operator: ">", Value: 8}, false},
		{"valid substring query", FieldQuery{Field: "title", Operator: "~", Value: "god"}, false},
		{"empty field", FieldQuery{Field: "", Operator: "=", Value: 25}, true},
		{"empty operator", FieldQuery{Field: "year", Value: 25}, true},
		{"invalid operator", FieldQuery{Field: "year", Operator: "invalid", Value: 25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMovieFieldExtractor(t *testing.T) {
	extractor := &MovieFieldExtractor{}

	tests := []struct {
		field string
		want  interface{}
	}{
		{"title", "The Godfather"},
		{"TITLE", "The Godfather"},
		{"year", 1972.0},
		{"rating", 9.0},
		{"poster", "https://example.com/g.jpg"},
	}
	for _, tt := range tests {
		got, err := extractor.Extract(godfather, tt.field)
		require.NoError(t, err, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}

	_, err := extractor.Extract(godfather, "director")
	assert.Error(t, err)
}

func TestFieldQuery_Match(t *testing.T) {
	tests := []struct {
		name  string
		query FieldQuery
		want  bool
	}{
		{"year equals int", FieldQuery{Field: "year", Operator: "=", Value: 1972}, true},
		{"year equals string", FieldQuery{Field: "year", Operator: "=", Value: "1972"}, true},
		{"rating at least", FieldQuery{Field: "rating", Operator: ">=", Value: 9.0}, true},
		{"rating above", FieldQuery{Field: "rating", Operator: ">", Value: 9.0}, false},
		{"year before", FieldQuery{Field: "year", Operator: "<", Value: 1980}, true},
		{"year not equal", FieldQuery{Field: "year", Operator: "!=", Value: 1972}, false},
		{"title case-insensitive", FieldQuery{Field: "title", Operator: "=", Value: "the godfather"}, true},
		{"title substring", FieldQuery{Field: "title", Operator: "~", Value: "GOD"}, true},
		{"title substring miss", FieldQuery{Field: "title", Operator: "~", Value: "titanic"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Match(godfather, &MovieFieldExtractor{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldQuery_MatchErrors(t *testing.T) {
	extractor := &MovieFieldExtractor{}

	q := FieldQuery{Field: "year", Operator: "=", Value: "soon"}
	_, err := q.Match(godfather, extractor)
	assert.Error(t, err)

	q = FieldQuery{Field: "rating", Operator: "~", Value: 9}
	_, err = q.Match(godfather, extractor)
	assert.Error(t, err)

	q = FieldQuery{Field: "genre", Operator: "=", Value: "drama"}
	_, err = q.Match(godfather, extractor)
	assert.Error(t, err)
}

func TestParseFieldQuery(t *testing.T) {
	tests := []struct {
		input   string
		want    FieldQuery
		wantErr bool
	}{
		{"rating>=8", FieldQuery{Field: "rating", Operator: ">=", Value: "8"}, false},
		{"rating > 8.5", FieldQuery{Field: "rating", Operator: ">", Value: "8.5"}, false},
		{"Year<=1999", FieldQuery{Field: "year", Operator: "<=", Value: "1999"}, false},
		{"title!=Up", FieldQuery{Field: "title", Operator: "!=", Value: "Up"}, false},
		{"title~god", FieldQuery{Field: "title", Operator: "~", Value: "god"}, false},
		{"title=a=b", FieldQuery{Field: "title", Operator: "=", Value: "a=b"}, false},
		{"rating", FieldQuery{}, true},
		{">=8", FieldQuery{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFieldQuery(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
