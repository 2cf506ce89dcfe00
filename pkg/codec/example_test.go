package codec_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// ExampleJSONCodec demonstrates encoding a catalog as a document and reading it back
func ExampleJSONCodec() {
	c := codec.NewCatalog(
		codec.Movie{Title: "Up", Year: 2009, Rating: 8.3},
	)

	data, err := codec.JSON.Encode(c)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))

	decoded, err := codec.JSON.Decode(data)
	if err != nil {
		log.Fatal(err)
	}
	m, _ := decoded.Get("Up")
	fmt.Printf("%s (%d): %.1f\n", m.Title, m.Year, m.Rating)

	// Output:
	// {
	//     "Up": {
	//         "rating": 8.3,
	//         "year": 2009
	//     }
	// }
	// Up (2009): 8.3
}

// ExampleCSVCodec demonstrates the columnar encoding
func ExampleCSVCodec() {
	c := codec.NewCatalog(
		codec.Movie{Title: "The Godfather", Year: 1972, Rating: 9, Poster: "https://example.com/g.jpg"},
	)

	data, err := codec.CSV.Encode(c)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))

	// Output:
	// title,rating,year,poster
	// The Godfather,9.0,1972,https://example.com/g.jpg
}

// ExampleDecodeError demonstrates telling corrupt content apart from other failures
func ExampleDecodeError() {
	_, err := codec.CSV.Decode([]byte("title,rating,year\nUp,great,2009\n"))

	var de *codec.DecodeError
	if errors.As(err, &de) {
		fmt.Println(de.Line, de.Field, errors.Is(err, codec.ErrInvalidNumber))
	}

	// Output:
	// 2 rating true
}
