package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// Accepted value ranges for user input
const (
	MinYear   = 1894
	MaxYear   = 2030
	MinRating = 0.0
	MaxRating = 10.0
)

// ValidateTitle rejects blank titles, titles spanning more than one line and
// titles that are not valid UTF-8
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidMovie)
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("%w: title %q is not valid UTF-8", ErrInvalidMovie, title)
	}
	if strings.ContainsAny(title, "\r\n") {
		return fmt.Errorf("%w: title %q contains a line break", ErrInvalidMovie, title)
	}
	return nil
}

// ValidatePoster rejects poster URLs that are not valid UTF-8. JSON cannot hold
// such strings unchanged.
func ValidatePoster(poster string) error {
	if !utf8.ValidString(poster) {
		return fmt.Errorf("%w: poster %q is not valid UTF-8", ErrInvalidMovie, poster)
	}
	return nil
}

// ValidateRecord applies the checks every stored movie must pass, whatever its
// source: a usable title and poster and a finite rating. Year and rating ranges
// are left to ValidateMovie, which covers typed-in values.
func ValidateRecord(m codec.Movie) error {
	if err := ValidateTitle(m.Title); err != nil {
		return err
	}
	if err := ValidatePoster(m.Poster); err != nil {
		return err
	}
	return checkFinite(m.Rating)
}

// ValidateYear checks that year lies in [MinYear, MaxYear]
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year %d is outside %d-%d", ErrInvalidMovie, year, MinYear, MaxYear)
	}
	return nil
}

// ValidateRating checks that rating is finite and lies in [MinRating, MaxRating]
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return fmt.Errorf("%w: rating is not a number", ErrInvalidMovie)
	}
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating %v is outside %v-%v", ErrInvalidMovie, rating, MinRating, MaxRating)
	}
	return nil
}

// NormalizeRating rounds rating to one decimal place
func NormalizeRating(rating float64) float64 {
	return math.Round(rating*10) / 10
}

// ValidateMovie applies the record checks plus the year and rating ranges
func ValidateMovie(m codec.Movie) error {
	if err := ValidateRecord(m); err != nil {
		return err
	}
	if err := ValidateYear(m.Year); err != nil {
		return err
	}
	return ValidateRating(m.Rating)
}

// ParseYear reads a four digit release year from user input
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	year, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return 0, fmt.Errorf("%w: %q is not a four digit year", ErrInvalidMovie, s)
	}
	if err := ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

// ParseRating reads a rating from user input and rounds it to one decimal place
func ParseRating(s string) (float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidMovie, s)
	}
	rating = NormalizeRating(rating)
	if err := ValidateRating(rating); err != nil {
		return 0, err
	}
	return rating, nil
}
