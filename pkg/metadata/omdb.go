package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/ssargent/reelshelf/pkg/codec"
)

// DefaultOMDbURL is the public OMDb endpoint
const DefaultOMDbURL = "https://www.omdbapi.com/"

// OMDb looks titles up through the OMDb JSON API
type OMDb struct {
	BaseURL string
	APIKey  string
}

func (OMDb) Name() string { return "omdb" }

// Fetch requests ?t=<title>&apikey=<key>
func (o OMDb) Fetch(ctx context.Context, title string, c *http.Client) (codec.Movie, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return codec.Movie{}, ErrMissingAPIKey
	}
	base := o.BaseURL
	if base == "" {
		base = DefaultOMDbURL
	}
	q := url.Values{}
	q.Set("t", title)
	q.Set("apikey", o.APIKey)

	body, err := fetchURL(ctx, c, base+"?"+q.Encode())
	if err != nil {
		var se *HTTPStatusError
		// OMDb answers 401 with a JSON body for a bad key
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			return codec.Movie{}, fmt.Errorf("%w: rejected by omdb", ErrMissingAPIKey)
		}
		return codec.Movie{}, err
	}
	return ParseOMDb(body)
}

// ParseOMDb converts an OMDb title response. "N/A" values are treated as absent.
func ParseOMDb(data []byte) (codec.Movie, error) {
	if resp, err := jsonparser.GetString(data, "Response"); err == nil && strings.EqualFold(resp, "False") {
		msg, _ := jsonparser.GetString(data, "Error")
		if strings.Contains(strings.ToLower(msg), "not found") || msg == "" {
			return codec.Movie{}, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return codec.Movie{}, &ParseError{Provider: "omdb", Reason: msg}
	}

	title := omdbField(data, "Title")
	if title == "" {
		return codec.Movie{}, &ParseError{Provider: "omdb", Reason: "no Title in response"}
	}

	m := codec.Movie{Title: title, Poster: omdbField(data, "Poster")}
	m.Year = leadingYear(omdbField(data, "Year"))
	if r := omdbField(data, "imdbRating"); r != "" {
		rating, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return codec.Movie{}, &ParseError{Provider: "omdb", Reason: fmt.Sprintf("imdbRating %q", r)}
		}
		m.Rating = rating
	}
	return m, nil
}

func omdbField(data []byte, key string) string {
	v, err := jsonparser.GetString(data, key)
	if err != nil {
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "N/A" {
		return ""
	}
	return v
}

// leadingYear reads the first four digits of values like "1999", "2005–2007" or "1999-12-19"
func leadingYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return y
}
