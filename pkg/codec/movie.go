package codec

import (
	"path/filepath"
	"strings"
)

// Movie is a single catalog record
type Movie struct {
	Title  string  `json:"title" yaml:"title"`
	Year   int     `json:"year" yaml:"year"`
	Rating float64 `json:"rating" yaml:"rating"`
	Poster string  `json:"poster,omitempty" yaml:"poster,omitempty"`
}

// Catalog is an ordered set of movies keyed by title.
//
// Titles are case-sensitive and unique. Iteration order is insertion order, which
// for a decoded catalog is file order.
type Catalog struct {
	movies []Movie
	index  map[string]int
}

// NewCatalog creates a catalog holding the given movies.
// A later movie with the same title replaces the earlier one in place.
func NewCatalog(movies ...Movie) *Catalog {
	c := &Catalog{index: make(map[string]int, len(movies))}
	for _, m := range movies {
		if i, ok := c.index[m.Title]; ok {
			c.movies[i] = m
			continue
		}
		c.Insert(m)
	}
	return c
}

// Len returns the number of movies in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.movies)
}

// Get returns the movie stored under title
func (c *Catalog) Get(title string) (Movie, bool) {
	if c == nil {
		return Movie{}, false
	}
	i, ok := c.index[title]
	if !ok {
		return Movie{}, false
	}
	return c.movies[i], true
}

// Has reports whether title is in the catalog
func (c *Catalog) Has(title string) bool {
	_, ok := c.Get(title)
	return ok
}

// Insert appends m. It returns false and leaves the catalog unchanged if the title
// is already present.
func (c *Catalog) Insert(m Movie) bool {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[m.Title]; ok {
		return false
	}
	c.index[m.Title] = len(c.movies)
	c.movies = append(c.movies, m)
	return true
}

// Remove deletes title from the catalog, keeping the order of the remaining movies
func (c *Catalog) Remove(title string) bool {
	i, ok := c.index[title]
	if !ok {
		return false
	}
	c.movies = append(c.movies[:i], c.movies[i+1:]...)
	delete(c.index, title)
	for j := i; j < len(c.movies); j++ {
		c.index[c.movies[j].Title] = j
	}
	return true
}

// SetRating changes the rating of title
func (c *Catalog) SetRating(title string, rating float64) bool {
	i, ok := c.index[title]
	if !ok {
		return false
	}
	c.movies[i].Rating = rating
	return true
}

// Movies returns a copy of the movies in catalog order
func (c *Catalog) Movies() []Movie {
	if c == nil {
		return []Movie{}
	}
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// Titles returns the titles in catalog order
func (c *Catalog) Titles() []string {
	out := make([]string, 0, c.Len())
	if c == nil {
		return out
	}
	for _, m := range c.movies {
		out = append(out, m.Title)
	}
	return out
}

// Clone returns a deep copy of the catalog
func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.Movies()...)
}

// Equal reports whether both catalogs hold the same movies in the same order
func (c *Catalog) Equal(other *Catalog) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i, m := range c.Movies() {
		if other.movies[i] != m {
			return false
		}
	}
	return true
}

// Codec converts a catalog to and from one on-disk encoding
type Codec interface {
	// Name returns the backend name ("json" or "csv")
	Name() string

	// Encode serializes the full catalog
	Encode(c *Catalog) ([]byte, error)

	// Decode parses data. Every failure is a *DecodeError.
	Decode(data []byte) (*Catalog, error)

	// Empty returns the minimally valid encoding of an empty catalog
	Empty() []byte
}

// Codecs shared by the store and tests
var (
	JSON Codec = JSONCodec{}
	CSV  Codec = CSVCodec{}
)

// ByName returns the codec registered under name
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON, true
	case "csv":
		return CSV, true
	default:
		return nil, false
	}
}

// ForPath picks a codec from the file extension, defaulting to JSON
func ForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return CSV
	}
	return JSON
}
