package store

import (
	"errors"
	"math"
	"testing"

	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	testCases := []struct {
		title   string
		wantErr bool
	}{
		{"Up", false},
		{" Spaced", false},
		{"Crouching Tiger, Hidden Dragon", false},
		{"", true},
		{" \t", true},
		{"Two\nLines", true},
		{"Carriage\rReturn", true},
		{"Am\xe9lie", true},
		{"Amélie", false},
	}

	for _, tc := range testCases {
		err := ValidateTitle(tc.title)
		if tc.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidMovie), "title %q", tc.title)
		} else {
			assert.NoError(t, err, "title %q", tc.title)
		}
	}
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateYear(MinYear))
	assert.NoError(t, ValidateYear(MaxYear))
	assert.Error(t, ValidateYear(MinYear-1))
	assert.Error(t, ValidateYear(MaxYear+1))

	assert.NoError(t, ValidateRating(0))
	assert.NoError(t, ValidateRating(10))
	assert.Error(t, ValidateRating(-0.1))
	assert.Error(t, ValidateRating(10.1))
	assert.Error(t, ValidateRating(math.NaN()))
	assert.Error(t, ValidateRating(math.Inf(1)))

	assert.NoError(t, ValidateMovie(codec.Movie{Title: "Up", Year: 2009, Rating: 8.3}))
	assert.Error(t, ValidateMovie(codec.Movie{Title: "Up", Year: 1800, Rating: 8.3}))
}

func TestValidateRecord(t *testing.T) {
	testCases := []struct {
		name    string
		movie   codec.Movie
		wantErr bool
	}{
		{"ranges are not checked", codec.Movie{Title: "Roundhay Garden Scene", Year: 1888, Rating: 6.5}, false},
		{"unknown year", codec.Movie{Title: "Lost Reel", Year: 0, Rating: 0}, false},
		{"utf-8 poster", codec.Movie{Title: "Amélie", Year: 2001, Rating: 8.3, Poster: "https://example.com/amélie.jpg"}, false},
		{"blank title", codec.Movie{Title: " ", Year: 2001}, true},
		{"title not utf-8", codec.Movie{Title: "Am\xe9lie", Year: 2001}, true},
		{"poster not utf-8", codec.Movie{Title: "Amelie", Poster: "\xff"}, true},
		{"rating not finite", codec.Movie{Title: "Amelie", Rating: math.NaN()}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRecord(tc.movie)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMovie)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeRating(t *testing.T) {
	assert.Equal(t, 8.3, NormalizeRating(8.26))
	assert.Equal(t, 8.2, NormalizeRating(8.24))
	assert.Equal(t, 9.0, NormalizeRating(9))
}

func TestParseYear(t *testing.T) {
	testCases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"2009", 2009, false},
		{" 1972 ", 1972, false},
		{"1894", 1894, false},
		{"99", 0, true},
		{"1800", 0, true},
		{"2031", 0, true},
		{"soon", 0, true},
		{"+999", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseYear(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseRating(t *testing.T) {
	testCases := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"8.3", 8.3, false},
		{"9", 9.0, false},
		{"7.25", 7.3, false},
		{" 0 ", 0, false},
		{"10.04", 10.0, false},
		{"10.2", 0, true},
		{"-1", 0, true},
		{"NaN", 0, true},
		{"great", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseRating(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}
