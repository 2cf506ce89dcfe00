package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the columnar format, in write order
const (
	ColumnTitle  = "title"
	ColumnRating = "rating"
	ColumnYear   = "year"
	ColumnPoster = "poster"
)

var csvHeader = []string{ColumnTitle, ColumnRating, ColumnYear, ColumnPoster}

// CSVCodec encodes a catalog as comma-separated rows under a fixed header
type CSVCodec struct{}

// Name returns "csv"
func (CSVCodec) Name() string { return "csv" }

// Empty returns a header-only file
func (CSVCodec) Empty() []byte {
	return []byte(strings.Join(csvHeader, ",") + "\n")
}

// Encode writes the full header and one row per movie in catalog order
func (CSVCodec) Encode(c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, m := range c.Movies() {
		rating, err := formatRating(m.Rating)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", m.Title, err)
		}
		row := []string{m.Title, rating, fmt.Sprint(m.Year), m.Poster}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row for %q: %w", m.Title, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush rows: %w", err)
	}
	return buf.Bytes(), nil
}

// csvColumns maps column names to their position in the file's header
type csvColumns struct {
	title, rating, year int
	poster              int // -1 when the file has no poster column
}

// Decode parses a header row and the data rows below it.
// Any unparsable row fails the whole decode.
func (CSVCodec) Decode(data []byte) (*Catalog, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, &DecodeError{Format: "csv", Line: 1, Field: ColumnTitle,
			Err: fmt.Errorf("%w: header row", ErrMissingField)}
	}
	if err != nil {
		return nil, csvReadError(err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, &DecodeError{Format: "csv", Line: 1, Field: columnOf(err), Err: err}
	}

	c := NewCatalog()
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvReadError(err)
		}
		line, _ := r.FieldPos(0)

		m := Movie{Title: row[cols.title]}
		if m.Title == "" {
			return nil, &DecodeError{Format: "csv", Line: line, Field: ColumnTitle, Err: ErrEmptyTitle}
		}
		if m.Rating, err = parseRating(row[cols.rating]); err != nil {
			return nil, &DecodeError{Format: "csv", Line: line, Field: ColumnRating, Err: err}
		}
		if m.Year, err = parseYear(row[cols.year]); err != nil {
			return nil, &DecodeError{Format: "csv", Line: line, Field: ColumnYear, Err: err}
		}
		if cols.poster >= 0 {
			m.Poster = row[cols.poster]
		}
		if !c.Insert(m) {
			return nil, &DecodeError{Format: "csv", Line: line, Field: ColumnTitle, Err: ErrDuplicateTitle}
		}
	}
	return c, nil
}

type missingColumnError struct{ column string }

func (e *missingColumnError) Error() string { return fmt.Sprintf("column %q not in header", e.column) }
func (e *missingColumnError) Unwrap() error { return ErrMissingField }

func columnOf(err error) string {
	var mc *missingColumnError
	if errors.As(err, &mc) {
		return mc.column
	}
	return ""
}

func locateColumns(header []string) (csvColumns, error) {
	cols := csvColumns{title: -1, rating: -1, year: -1, poster: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnTitle:
			cols.title = i
		case ColumnRating:
			cols.rating = i
		case ColumnYear:
			cols.year = i
		case ColumnPoster:
			cols.poster = i
		}
	}
	switch {
	case cols.title < 0:
		return cols, &missingColumnError{ColumnTitle}
	case cols.rating < 0:
		return cols, &missingColumnError{ColumnRating}
	case cols.year < 0:
		return cols, &missingColumnError{ColumnYear}
	}
	return cols, nil
}

func csvReadError(err error) error {
	de := &DecodeError{Format: "csv", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		de.Line = pe.Line
		de.Err = fmt.Errorf("%w: %v", ErrMalformed, pe.Err)
	}
	return de
}
