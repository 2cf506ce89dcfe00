// Package codec provides movie catalog serialization and deserialization for reelshelf.
//
// A catalog is an ordered set of movie records keyed by title. The codec package
// implements the two on-disk encodings a catalog can live in and is the only place
// that knows their byte layout. Everything above it (the store, the API, the CLI)
// works with *Catalog values.
//
// # Document Format
//
// The JSON codec writes the whole catalog as one object keyed by title:
//
//	{
//	    "Titanic": {
//	        "rating": 9.0,
//	        "year": 1999,
//	        "poster": "https://m.media-amazon.com/images/M/...SX300.jpg"
//	    }
//	}
//
// Fields:
//   - rating: number, required
//   - year: integer, required
//   - poster: string, optional (omitted when the movie has no poster)
//
// Object keys are written and read in catalog order. The empty catalog is "{}";
// an empty file is not a valid document.
//
// # Columnar Format
//
// The CSV codec writes a header row followed by one row per movie:
//
//	title,rating,year,poster
//	Titanic,9.0,1999,https://m.media-amazon.com/images/M/...SX300.jpg
//
// The header is always written with all four columns. On decode the poster column
// is optional and columns are located by header name. Quoting follows RFC 4180, so
// titles containing commas or quotes survive a round trip. The empty catalog is a
// header-only file.
//
// # Numbers
//
// Ratings are written in their shortest exact decimal form with at least one
// fractional digit (9 is written as 9.0, 8.3 as 8.3), which matches files produced
// by earlier versions of the tool. Years are written as plain integers. Non-finite
// ratings cannot be encoded.
//
// # Usage
//
//	c := codec.NewCatalog(
//	    codec.Movie{Title: "Up", Year: 2009, Rating: 8.3},
//	)
//
//	data, err := codec.JSON.Encode(c)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := codec.JSON.Decode(data)
//	if err != nil {
//	    var de *codec.DecodeError
//	    if errors.As(err, &de) {
//	        // content is corrupt
//	    }
//	    return err
//	}
//
// # Error Handling
//
// Decode fails with a *DecodeError for:
//   - Malformed structure (bad JSON, bad CSV quoting, wrong field counts)
//   - Non-numeric values in numeric fields
//   - Missing required columns or fields
//   - Empty or duplicate titles
//
// The DecodeError wraps one of the package sentinels (ErrMalformed, ErrMissingField,
// ErrInvalidNumber, ErrEmptyTitle, ErrDuplicateTitle) so callers can tell both that
// the content is corrupt and why.
//
// # Round Trip
//
// For every catalog this package can decode, Decode(Encode(c)) equals c, for both
// codecs. The fuzz tests (build tag "fuzz") exercise this law.
package codec
