// Package stats computes summaries, orderings and searches over a catalog.
// Nothing here touches storage; callers pass a catalog they listed.
package stats

import (
	"cmp"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/query"
)

// Summary is the rating overview of a catalog
type Summary struct {
	Count   int           `json:"count" yaml:"count"`
	Average float64       `json:"average" yaml:"average"`
	Median  float64       `json:"median" yaml:"median"`
	Best    []codec.Movie `json:"best" yaml:"best"`
	Worst   []codec.Movie `json:"worst" yaml:"worst"`
}

// Summarize computes the average and median rating and the best and worst movies.
// Ties for best or worst are all reported, in catalog order.
func Summarize(c *codec.Catalog) Summary {
	movies := c.Movies()
	s := Summary{Count: len(movies), Best: []codec.Movie{}, Worst: []codec.Movie{}}
	if len(movies) == 0 {
		return s
	}

	ratings := make([]float64, len(movies))
	var total float64
	best, worst := movies[0].Rating, movies[0].Rating
	for i, m := range movies {
		ratings[i] = m.Rating
		total += m.Rating
		if m.Rating > best {
			best = m.Rating
		}
		if m.Rating < worst {
			worst = m.Rating
		}
	}
	s.Average = total / float64(len(movies))

	sort.Float64s(ratings)
	mid := len(ratings) / 2
	if len(ratings)%2 == 1 {
		s.Median = ratings[mid]
	} else {
		s.Median = (ratings[mid-1] + ratings[mid]) / 2
	}

	for _, m := range movies {
		if m.Rating == best {
			s.Best = append(s.Best, m)
		}
		if m.Rating == worst {
			s.Worst = append(s.Worst, m)
		}
	}
	return s
}

// Random picks one movie. It returns false for an empty catalog.
func Random(c *codec.Catalog, rnd *rand.Rand) (codec.Movie, bool) {
	movies := c.Movies()
	if len(movies) == 0 {
		return codec.Movie{}, false
	}
	return movies[rnd.Intn(len(movies))], true
}

// Search returns movies whose title contains q, ignoring case
func Search(c *codec.Catalog, q string) []codec.Movie {
	needle := strings.ToLower(strings.TrimSpace(q))
	out := []codec.Movie{}
	for _, m := range c.Movies() {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			out = append(out, m)
		}
	}
	return out
}

// Suggest returns up to limit movies whose titles are close to q by edit distance,
// closest first. Titles further than half their length away are not suggested.
func Suggest(c *codec.Catalog, q string, limit int) []codec.Movie {
	type candidate struct {
		movie    codec.Movie
		distance int
	}

	needle := strings.ToLower(strings.TrimSpace(q))
	var candidates []candidate
	for _, m := range c.Movies() {
		title := strings.ToLower(m.Title)
		d := levenshtein.ComputeDistance(needle, title)
		if d <= maxDistance(title) {
			candidates = append(candidates, candidate{m, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	out := []codec.Movie{}
	for _, cand := range candidates {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, cand.movie)
	}
	return out
}

func maxDistance(title string) int {
	n := len([]rune(title)) / 2
	if n < 1 {
		return 1
	}
	return n
}

// Sortable fields
const (
	ByRating = query.FieldRating
	ByYear   = query.FieldYear
	ByTitle  = query.FieldTitle
)

// SortBy orders the catalog by rating, year or title. Ties fall back to title order.
func SortBy(c *codec.Catalog, field string, desc bool) ([]codec.Movie, error) {
	var order func(a, b codec.Movie) int
	switch strings.ToLower(field) {
	case ByRating:
		order = func(a, b codec.Movie) int { return cmp.Compare(a.Rating, b.Rating) }
	case ByYear:
		order = func(a, b codec.Movie) int { return cmp.Compare(a.Year, b.Year) }
	case ByTitle:
		order = func(a, b codec.Movie) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	default:
		return nil, fmt.Errorf("cannot sort by %q", field)
	}

	movies := c.Movies()
	sort.SliceStable(movies, func(i, j int) bool {
		o := order(movies[i], movies[j])
		if desc {
			o = -o
		}
		if o != 0 {
			return o < 0
		}
		return strings.ToLower(movies[i].Title) < strings.ToLower(movies[j].Title)
	})
	return movies, nil
}

// Filter returns the movies matching every query
func Filter(c *codec.Catalog, queries ...query.FieldQuery) ([]codec.Movie, error) {
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	return query.MatchAll(c.Movies(), &query.MovieFieldExtractor{}, queries...)
}

// RangeQueries builds the queries for an inclusive rating floor and year range.
// Zero values leave that bound open.
func RangeQueries(minRating float64, startYear, endYear int) []query.FieldQuery {
	var qs []query.FieldQuery
	if minRating > 0 {
		qs = append(qs, query.FieldQuery{Field: query.FieldRating, Operator: ">=", Value: minRating})
	}
	if startYear > 0 {
		qs = append(qs, query.FieldQuery{Field: query.FieldYear, Operator: ">=", Value: startYear})
	}
	if endYear > 0 {
		qs = append(qs, query.FieldQuery{Field: query.FieldYear, Operator: "<=", Value: endYear})
	}
	return qs
}
