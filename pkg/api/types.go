package api

import (
	"net"
	"strconv"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MovieRequest is the body of POST /movies. Year and rating may be left out when
// Fetch asks the metadata providers to fill them in.
type MovieRequest struct {
	Title  string   `json:"title"`
	Year   *int     `json:"year,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
	Poster string   `json:"poster,omitempty"`
	Fetch  bool     `json:"fetch,omitempty"`
}

// RatingRequest is the body of PUT /movies/{title}
type RatingRequest struct {
	Rating *float64 `json:"rating"`
}

// SearchResponse carries substring matches, or close titles when nothing matched
type SearchResponse struct {
	Query       string        `json:"query"`
	Matches     []codec.Movie `json:"matches"`
	Suggestions []codec.Movie `json:"suggestions,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Movies  int    `json:"movies"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables X-API-Key checks
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
