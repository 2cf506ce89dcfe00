package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

const jsonIndent = "    "

// JSONCodec encodes a catalog as a single JSON object keyed by title
type JSONCodec struct{}

// Name returns "json"
func (JSONCodec) Name() string { return "json" }

// Empty returns the empty document
func (JSONCodec) Empty() []byte { return []byte("{}\n") }

// Encode serializes c with object keys in catalog order
func (JSONCodec) Encode(c *Catalog) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, m := range c.Movies() {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := json.Marshal(m.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to encode title %q: %w", m.Title, err)
		}
		rating, err := formatRating(m.Rating)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", m.Title, err)
		}

		compact.Write(key)
		compact.WriteString(`:{"rating":`)
		compact.WriteString(rating)
		compact.WriteString(`,"year":`)
		compact.WriteString(strconv.Itoa(m.Year))
		if m.Poster != "" {
			poster, err := json.Marshal(m.Poster)
			if err != nil {
				return nil, fmt.Errorf("failed to encode poster of %q: %w", m.Title, err)
			}
			compact.WriteString(`,"poster":`)
			compact.Write(poster)
		}
		compact.WriteByte('}')
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", jsonIndent); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Decode parses a JSON document, keeping the key order of the file
func (JSONCodec) Decode(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	fail := func(field string, err error) error {
		return &DecodeError{
			Format: "json",
			Line:   lineAt(data, dec.InputOffset()),
			Field:  field,
			Err:    err,
		}
	}

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fail("", fmt.Errorf("%w: empty document", ErrMalformed))
	}
	if err != nil {
		return nil, fail("", malformed(err))
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fail("", fmt.Errorf("%w: document is not an object", ErrMalformed))
	}

	c := NewCatalog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fail("", malformed(err))
		}
		title, ok := tok.(string)
		if !ok {
			return nil, fail("", fmt.Errorf("%w: object key is not a string", ErrMalformed))
		}
		if title == "" {
			return nil, fail("title", ErrEmptyTitle)
		}

		var fields map[string]json.RawMessage
		if err := dec.Decode(&fields); err != nil {
			return nil, fail(title, malformed(err))
		}
		m, field, err := movieFromFields(title, fields)
		if err != nil {
			return nil, fail(field, err)
		}
		if !c.Insert(m) {
			return nil, fail(title, ErrDuplicateTitle)
		}
	}

	// closing brace, then nothing else
	if _, err := dec.Token(); err != nil {
		return nil, fail("", malformed(err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fail("", fmt.Errorf("%w: trailing data after document", ErrMalformed))
	}
	return c, nil
}

func movieFromFields(title string, fields map[string]json.RawMessage) (Movie, string, error) {
	m := Movie{Title: title}

	rawRating, ok := fields["rating"]
	if !ok {
		return Movie{}, "rating", ErrMissingField
	}
	num, err := jsonNumber(rawRating)
	if err != nil {
		return Movie{}, "rating", err
	}
	if m.Rating, err = parseRating(num); err != nil {
		return Movie{}, "rating", err
	}

	rawYear, ok := fields["year"]
	if !ok {
		return Movie{}, "year", ErrMissingField
	}
	if num, err = jsonNumber(rawYear); err != nil {
		return Movie{}, "year", err
	}
	if m.Year, err = parseYear(num); err != nil {
		return Movie{}, "year", err
	}

	if rawPoster, ok := fields["poster"]; ok && string(rawPoster) != "null" {
		if err := json.Unmarshal(rawPoster, &m.Poster); err != nil {
			return Movie{}, "poster", fmt.Errorf("%w: poster is not a string", ErrMalformed)
		}
	}
	return m, "", nil
}

// jsonNumber accepts only bare number literals; quoted numbers and null are rejected
func jsonNumber(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return "", fmt.Errorf("%w: %s is not a number", ErrInvalidNumber, raw)
	}
	return string(raw), nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	return 1 + bytes.Count(data[:offset], []byte{'\n'})
}
