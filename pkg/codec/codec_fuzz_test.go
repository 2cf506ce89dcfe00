//go:build fuzz
// +build fuzz

package codec

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzCodec_RoundTrip tests encode/decode round-trip of single-movie catalogs with random inputs
func FuzzCodec_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add("Up", 2009, 8.3, "")
	f.Add("Titanic", 1999, 9.0, "https://example.com/t.jpg")
	f.Add("Crouching Tiger, Hidden Dragon", 2000, 7.9, "")
	f.Add(`The "Burbs"`, 1989, 6.9, "x,y")

	f.Fuzz(func(t *testing.T, title string, year int, rating float64, poster string) {
		// Titles the store would never accept
		if title == "" || !utf8.ValidString(title) || !utf8.ValidString(poster) ||
			strings.ContainsAny(title+poster, "\r\n") {
			t.Skip("Input not reachable through the store")
		}
		if rating != rating || rating > 1e300 || rating < -1e300 {
			t.Skip("Non-finite rating")
		}

		c := NewCatalog(Movie{Title: title, Year: year, Rating: rating, Poster: poster})
		for _, cdc := range []Codec{JSON, CSV} {
			data, err := cdc.Encode(c)
			if err != nil {
				t.Fatalf("%s: Encode failed for %+v: %v", cdc.Name(), c.Movies(), err)
			}

			decoded, err := cdc.Decode(data)
			if err != nil {
				t.Fatalf("%s: Decode failed for %q: %v", cdc.Name(), data, err)
			}

			if !c.Equal(decoded) {
				t.Errorf("%s: round trip mismatch: got %+v, want %+v", cdc.Name(), decoded.Movies(), c.Movies())
			}
		}
	})
}

// FuzzCodec_DecodeNeverPanics feeds arbitrary bytes to both decoders
func FuzzCodec_DecodeNeverPanics(f *testing.F) {
	f.Add([]byte("{}"))
	f.Add([]byte("title,rating,year\nUp,8.3,2009\n"))
	f.Add([]byte(`{"Up": {"rating": 8.3, "year": 2009}}`))
	f.Add([]byte{0x00, 0xFF, 0x22})

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, cdc := range []Codec{JSON, CSV} {
			c, err := cdc.Decode(data)
			if err != nil {
				if !IsDecodeError(err) {
					t.Fatalf("%s: expected *DecodeError, got %T: %v", cdc.Name(), err, err)
				}
				continue
			}

			// Anything that decodes must survive a round trip
			again, err := cdc.Encode(c)
			if err != nil {
				t.Fatalf("%s: Encode of decoded catalog failed: %v", cdc.Name(), err)
			}
			if _, err := cdc.Decode(again); err != nil {
				t.Fatalf("%s: re-decode failed: %v", cdc.Name(), err)
			}
		}
	})
}
