package store

import "github.com/ssargent/reelshelf/pkg/codec"

// DefaultSeed is written to a catalog file that does not exist yet
func DefaultSeed() []codec.Movie {
	return []codec.Movie{
		{
			Title:  "Titanic",
			Year:   1999,
			Rating: 9.0,
			Poster: "https://m.media-amazon.com/images/M/MV5BYzYyN2FiZmUtYWYzMy00MzViLWJkZTMtOGY1ZjgzNWMwN2YxXkEyXkFqcGc@._V1_SX300.jpg",
		},
		{
			Title:  "The Godfather",
			Year:   1972,
			Rating: 9.0,
			Poster: "https://m.media-amazon.com/images/M/MV5BNGEwYjgwOGQtYjg5ZS00Njc1LTk2ZGEtM2QwZWQ2NjdhZTE5XkEyXkFqcGc@._V1_SX300.jpg",
		},
		{
			Title:  "The Shawshank Redemption",
			Year:   1994,
			Rating: 9.3,
			Poster: "https://m.media-amazon.com/images/M/MV5BMDAyY2FhYjctNDc5OS00MDNlLThiMGUtY2UxYWVkNGY2ZjljXkEyXkFqcGc@._V1_SX300.jpg",
		},
	}
}
