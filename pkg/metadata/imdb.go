package metadata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/buger/jsonparser"
	"github.com/ssargent/reelshelf/pkg/codec"
)

// DefaultIMDbURL is the IMDb site root
const DefaultIMDbURL = "https://www.imdb.com/"

// IMDb scrapes the IMDb title search and title pages. It needs no API key.
type IMDb struct {
	BaseURL string
}

func (IMDb) Name() string { return "imdb" }

// Fetch searches for title and reads the first feature film result
func (p IMDb) Fetch(ctx context.Context, title string, c *http.Client) (codec.Movie, error) {
	base := p.BaseURL
	if base == "" {
		base = DefaultIMDbURL
	}
	base = strings.TrimRight(base, "/") + "/"

	q := url.Values{}
	q.Set("q", title)
	q.Set("s", "tt")
	q.Set("ttype", "ft")
	searchHTML, err := fetchURL(ctx, c, base+"find/?"+q.Encode())
	if err != nil {
		return codec.Movie{}, err
	}
	path, err := ParseIMDbSearch(searchHTML)
	if err != nil {
		return codec.Movie{}, err
	}

	pageHTML, err := fetchURL(ctx, c, base+strings.TrimLeft(path, "/"))
	if err != nil {
		return codec.Movie{}, err
	}
	return ParseIMDbTitle(pageHTML)
}

// ParseIMDbSearch returns the path of the first title result, e.g. "/title/tt0120338/"
func ParseIMDbSearch(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", &ParseError{Provider: "imdb", Reason: err.Error()}
	}

	var path string
	doc.Find(`a[href*="/title/tt"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		path = titlePath(href)
		return path == ""
	})
	if path == "" {
		return "", fmt.Errorf("%w: no imdb search results", ErrNotFound)
	}
	return path, nil
}

// titlePath trims an href down to /title/<id>/
func titlePath(href string) string {
	i := strings.Index(href, "/title/tt")
	if i < 0 {
		return ""
	}
	rest := href[i+len("/title/"):]
	end := 2
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 2 {
		return ""
	}
	return "/title/" + rest[:end] + "/"
}

// ParseIMDbTitle reads a title page. The ld+json block is preferred, og:title is
// the fallback for the name and year.
func ParseIMDbTitle(html []byte) (codec.Movie, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return codec.Movie{}, &ParseError{Provider: "imdb", Reason: err.Error()}
	}

	var m codec.Movie
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m = movieFromLD([]byte(s.Text()))
		return m.Title == ""
	})

	if m.Title == "" || m.Year == 0 {
		if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
			title, year := splitOGTitle(og)
			if m.Title == "" {
				m.Title = title
			}
			if m.Year == 0 {
				m.Year = year
			}
		}
	}
	if m.Poster == "" {
		if img, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
			m.Poster = strings.TrimSpace(img)
		}
	}

	if m.Title == "" {
		return codec.Movie{}, &ParseError{Provider: "imdb", Reason: "no title on page"}
	}
	return m, nil
}

func movieFromLD(data []byte) codec.Movie {
	var m codec.Movie
	name, err := jsonparser.GetString(data, "name")
	if err != nil {
		return m
	}
	m.Title = strings.TrimSpace(name)

	if published, err := jsonparser.GetString(data, "datePublished"); err == nil {
		m.Year = leadingYear(published)
	}
	if image, err := jsonparser.GetString(data, "image"); err == nil {
		m.Poster = strings.TrimSpace(image)
	}
	if v, typ, _, err := jsonparser.Get(data, "aggregateRating", "ratingValue"); err == nil {
		if typ == jsonparser.Number || typ == jsonparser.String {
			if r, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64); err == nil {
				m.Rating = r
			}
		}
	}
	return m
}

// splitOGTitle handles "Titanic (1997) ⭐ 7.9 | Drama, Romance"
func splitOGTitle(s string) (string, int) {
	if i := strings.Index(s, " | "); i >= 0 {
		s = s[:i]
	}
	lp := strings.LastIndex(s, " (")
	if lp < 0 {
		return strings.TrimSpace(s), 0
	}
	title := strings.TrimSpace(s[:lp])
	inner := s[lp+2:]
	if rp := strings.IndexByte(inner, ')'); rp >= 0 {
		inner = inner[:rp]
	}
	// "TV Movie 1999" and similar keep the year last
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return title, 0
	}
	return title, leadingYear(fields[len(fields)-1])
}
