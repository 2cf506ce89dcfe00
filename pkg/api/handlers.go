package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/metadata"
	"github.com/ssargent/reelshelf/pkg/query"
	"github.com/ssargent/reelshelf/pkg/stats"
	"github.com/ssargent/reelshelf/pkg/store"
)

const maxSuggestions = 5

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.List(r.Context())
	if err != nil {
		s.metrics.RecordHealthCheck(false)
		s.logger.WithError(err).Warn("health check failed")
		sendError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	s.metrics.RecordHealthCheck(true)
	s.metrics.SetCatalogSize(c.Len())
	sendSuccess(w, HealthResponse{Status: "ok", Backend: s.backend, Movies: c.Len()})
}

// handleListMovies returns the catalog, optionally filtered by repeated
// where=field<op>value conditions and ordered by sort=rating|year|title
func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	extractor := &query.MovieFieldExtractor{}
	var queries []query.FieldQuery
	for _, cond := range params["where"] {
		q, err := query.ParseFieldQuery(cond)
		if err == nil {
			_, err = extractor.Extract(codec.Movie{}, q.Field)
		}
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		queries = append(queries, q)
	}

	desc := false
	if order := params.Get("order"); order != "" {
		switch strings.ToLower(order) {
		case "asc":
		case "desc":
			desc = true
		default:
			sendError(w, fmt.Sprintf("invalid order %q", order), http.StatusBadRequest)
			return
		}
	}

	movies, err := s.listMovies(r.Context(), queries)
	if err != nil {
		s.sendStoreError(w, "list", err)
		return
	}

	if field := params.Get("sort"); field != "" {
		sorted, err := stats.SortBy(codec.NewCatalog(movies...), field, desc)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		movies = sorted
	}
	sendSuccess(w, movies)
}

func (s *Server) listMovies(ctx context.Context, queries []query.FieldQuery) ([]codec.Movie, error) {
	start := time.Now()
	if len(queries) > 0 {
		movies, err := s.engine.Filter(ctx, queries...)
		s.metrics.RecordCatalogOperation("filter", err, time.Since(start))
		return movies, err
	}

	c, err := s.store.List(ctx)
	s.metrics.RecordCatalogOperation("list", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.metrics.SetCatalogSize(c.Len())
	return c.Movies(), nil
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	title := titleParam(r)
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	m, found := c.Get(title)
	if !found {
		sendError(w, fmt.Sprintf("%s: %q", store.ErrNotFound.Message, title), http.StatusNotFound)
		return
	}
	sendSuccess(w, m)
}

func (s *Server) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	var req MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	m, status, err := s.resolveMovie(r.Context(), req)
	if err != nil {
		sendError(w, err.Error(), status)
		return
	}

	start := time.Now()
	err = s.store.Add(r.Context(), m)
	s.metrics.RecordCatalogOperation("add", err, time.Since(start))
	if err != nil {
		s.sendStoreError(w, "add", err)
		return
	}
	s.logger.WithField("title", m.Title).Info("movie added")
	sendStatus(w, http.StatusCreated, m)
}

// resolveMovie turns a request into a validated movie, consulting the metadata
// fetcher when asked to. Explicit request fields win over fetched ones.
func (s *Server) resolveMovie(ctx context.Context, req MovieRequest) (codec.Movie, int, error) {
	title := strings.TrimSpace(req.Title)
	if err := store.ValidateTitle(title); err != nil {
		return codec.Movie{}, http.StatusBadRequest, err
	}

	m := codec.Movie{Title: title}
	if req.Fetch {
		if s.fetcher == nil {
			return codec.Movie{}, http.StatusNotImplemented, errors.New("metadata lookup is not configured")
		}
		fetched, err := s.fetcher.Fetch(ctx, title)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return codec.Movie{}, http.StatusNotFound, fmt.Errorf("no metadata found for %q", title)
			}
			s.logger.WithError(err).WithField("title", title).Warn("metadata lookup failed")
			return codec.Movie{}, http.StatusBadGateway, fmt.Errorf("metadata lookup for %q failed", title)
		}
		m = fetched
		if m.Title == "" {
			m.Title = title
		}
	} else if req.Year == nil || req.Rating == nil {
		return codec.Movie{}, http.StatusBadRequest, errors.New("year and rating are required unless fetch is set")
	}

	// typed values are range checked; fetched ones are stored as-is
	if req.Year != nil {
		if err := store.ValidateYear(*req.Year); err != nil {
			return codec.Movie{}, http.StatusBadRequest, err
		}
		m.Year = *req.Year
	}
	if req.Rating != nil {
		rating := store.NormalizeRating(*req.Rating)
		if err := store.ValidateRating(rating); err != nil {
			return codec.Movie{}, http.StatusBadRequest, err
		}
		m.Rating = rating
	}
	if req.Poster != "" {
		m.Poster = req.Poster
	}
	if err := store.ValidateRecord(m); err != nil {
		return codec.Movie{}, http.StatusBadRequest, err
	}
	return m, http.StatusOK, nil
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	title := titleParam(r)

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating == nil {
		sendError(w, "rating is required", http.StatusBadRequest)
		return
	}
	rating := store.NormalizeRating(*req.Rating)
	if err := store.ValidateRating(rating); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	err := s.store.Update(r.Context(), title, rating)
	s.metrics.RecordCatalogOperation("update", err, time.Since(start))
	if err != nil {
		s.sendStoreError(w, "update", err)
		return
	}
	sendSuccess(w, map[string]interface{}{"title": title, "rating": rating})
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	title := titleParam(r)

	start := time.Now()
	err := s.store.Delete(r.Context(), title)
	s.metrics.RecordCatalogOperation("delete", err, time.Since(start))
	if err != nil {
		s.sendStoreError(w, "delete", err)
		return
	}
	sendSuccess(w, map[string]string{"title": title})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	sendSuccess(w, stats.Summarize(c))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		sendError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}

	resp := SearchResponse{Query: q, Matches: stats.Search(c, q)}
	if len(resp.Matches) == 0 {
		resp.Suggestions = stats.Suggest(c, q, maxSuggestions)
	}
	sendSuccess(w, resp)
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}

	s.rndMu.Lock()
	m, found := stats.Random(c, s.rnd)
	s.rndMu.Unlock()
	if !found {
		sendError(w, "catalog is empty", http.StatusNotFound)
		return
	}
	sendSuccess(w, m)
}

// catalog lists the store and writes the error response itself on failure
func (s *Server) catalog(w http.ResponseWriter, r *http.Request) (*codec.Catalog, bool) {
	start := time.Now()
	c, err := s.store.List(r.Context())
	s.metrics.RecordCatalogOperation("list", err, time.Since(start))
	if err != nil {
		s.sendStoreError(w, "list", err)
		return nil, false
	}
	s.metrics.SetCatalogSize(c.Len())
	return c, true
}

func (s *Server) sendStoreError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("operation", op).Error("catalog operation failed")
	}
	sendError(w, err.Error(), status)
}

// statusForError maps store errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidMovie):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func titleParam(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if title, err := url.PathUnescape(raw); err == nil {
		return title
	}
	return raw
}
