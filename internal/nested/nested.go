// Package nested expands the embedded JSON list columns of the raw extracts
// (genres, keywords, production_companies, production_countries,
// spoken_languages, cast, crew) into flat typed records.
//
// Payloads are decoded element-by-element off a json.Decoder rather than in
// one Unmarshal call so that errors carry a byte offset into the payload and
// element order is handed to the caller as it appears in the source.
package nested

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedField reports an embedded list payload that cannot be parsed.
// It is fatal: a build has no notion of a partially usable row.
var ErrMalformedField = errors.New("malformed nested field")

// IDName is the common {id, name} element shape carried by the genre,
// keyword and production-company lists.
type IDName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Country is one production-country element, keyed by its ISO 3166-1 code.
type Country struct {
	Code string `json:"iso_3166_1"`
	Name string `json:"name"`
}

// Language is one spoken-language element, keyed by its ISO 639-1 code.
type Language struct {
	Code string `json:"iso_639_1"`
	Name string `json:"name"`
}

// CastEntry is one element of a credits row's cast list.
type CastEntry struct {
	CastID    int64  `json:"cast_id"`
	Character string `json:"character"`
	CreditID  string `json:"credit_id"`
	Gender    int64  `json:"gender"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Order     int64  `json:"order"`
}

// CrewEntry is one element of a credits row's crew list.
type CrewEntry struct {
	CreditID   string `json:"credit_id"`
	Department string `json:"department"`
	Gender     int64  `json:"gender"`
	ID         int64  `json:"id"`
	Job        string `json:"job"`
	Name       string `json:"name"`
}

// Elements decodes payload as a JSON array of objects and calls fn once per
// element, in source order. A missing sub-field leaves the corresponding
// struct field at its zero value; that is data, not an error.
//
// An empty or whitespace-only payload yields zero elements. The first error
// returned by fn stops decoding and is returned as-is.
func Elements[T any](column, payload string, fn func(T) error) error {
	if strings.TrimSpace(payload) == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return malformed(column, dec, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("%w: column %s: expected a list, got %v", ErrMalformedField, column, tok)
	}

	for dec.More() {
		var el T
		if err := dec.Decode(&el); err != nil {
			return malformed(column, dec, err)
		}
		if err := fn(el); err != nil {
			return err
		}
	}

	end, err := dec.Token()
	if err != nil {
		return malformed(column, dec, err)
	}
	if end != json.Delim(']') {
		return fmt.Errorf("%w: column %s: expected list end, got %v", ErrMalformedField, column, end)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: column %s: trailing data after list end", ErrMalformedField, column)
	}
	return nil
}

// List collects every element of payload into a slice. Order matches the
// source list.
func List[T any](column, payload string) ([]T, error) {
	var out []T
	err := Elements(column, payload, func(el T) error {
		out = append(out, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func malformed(column string, dec *json.Decoder, err error) error {
	return fmt.Errorf("%w: column %s: %v (offset %d)", ErrMalformedField, column, err, dec.InputOffset())
}
