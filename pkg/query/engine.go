package query

import (
	"context"
	"fmt"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// CatalogSource supplies the catalog a query runs against
type CatalogSource interface {
	List(ctx context.Context) (*codec.Catalog, error)
}

// SimpleQueryEngine evaluates field queries with a full scan of the catalog.
// Results keep catalog order.
type SimpleQueryEngine struct {
	source CatalogSource
}

// NewSimpleQueryEngine creates a new query engine
func NewSimpleQueryEngine(source CatalogSource) *SimpleQueryEngine {
	return &SimpleQueryEngine{source: source}
}

// ExecuteQuery executes a single field query
func (qe *SimpleQueryEngine) ExecuteQuery(ctx context.Context, query FieldQuery, extractor FieldExtractor) (QueryIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return qe.scan(ctx, extractor, query)
}

// ExecuteRangeQuery returns movies matching both bounds of a range on one field
func (qe *SimpleQueryEngine) ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery, extractor FieldExtractor) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start query: %w", err)
	}
	if err := endQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}

	// Ensure both queries are for the same field
	if startQuery.Field != endQuery.Field {
		return nil, fmt.Errorf("range query fields must match: %s != %s", startQuery.Field, endQuery.Field)
	}
	return qe.scan(ctx, extractor, startQuery, endQuery)
}

// Filter returns the movies matching every query
func (qe *SimpleQueryEngine) Filter(ctx context.Context, queries ...FieldQuery) ([]codec.Movie, error) {
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	}
	it, err := qe.scan(ctx, &MovieFieldExtractor{}, queries...)
	if err != nil {
		return nil, err
	}
	return Collect(it)
}

func (qe *SimpleQueryEngine) scan(ctx context.Context, extractor FieldExtractor, queries ...FieldQuery) (QueryIterator, error) {
	catalog, err := qe.source.List(ctx)
	if err != nil {
		return nil, err
	}
	movies, err := MatchAll(catalog.Movies(), extractor, queries...)
	if err != nil {
		return nil, err
	}

	results := make([]QueryResult, 0, len(movies))
	for _, m := range movies {
		results = append(results, QueryResult{Title: m.Title, Movie: m})
	}
	return &simpleIterator{results: results}, nil
}

// MatchAll keeps the movies satisfying every query, in input order
func MatchAll(movies []codec.Movie, extractor FieldExtractor, queries ...FieldQuery) ([]codec.Movie, error) {
	out := make([]codec.Movie, 0, len(movies))
	for _, m := range movies {
		ok := true
		for _, q := range queries {
			matched, err := q.Match(m, extractor)
			if err != nil {
				return nil, err
			}
			if !matched {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Collect drains an iterator
func Collect(it QueryIterator) ([]codec.Movie, error) {
	defer it.Close()
	out := []codec.Movie{}
	for it.Next() {
		out = append(out, it.Result().Movie)
	}
	return out, nil
}

// simpleIterator implements QueryIterator for basic result streaming
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index < len(it.results) {
		it.index++
		return true
	}
	// step past the end so Result reports nothing once exhausted
	it.index = len(it.results) + 1
	return false
}

func (it *simpleIterator) Result() QueryResult {
	if it.index > 0 && it.index <= len(it.results) {
		return it.results[it.index-1]
	}
	return QueryResult{}
}

func (it *simpleIterator) Close() error {
	return nil
}
