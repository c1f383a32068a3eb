// Package extract reads the two raw source extracts (movie infos and
// credits) into typed raw rows. The embedded JSON list columns are carried
// through as uninterpreted strings; internal/nested decodes them.
package extract

import (
	"context"
	"time"
)

// RawMovie is one row of the movies extract. Scalar columns are coerced to
// their target types here; a zero ReleaseDate and a nil Runtime mean the
// source cell was empty.
type RawMovie struct {
	Line int

	TMDBID           int64
	Title            string
	OriginalTitle    string
	OriginalLanguage string
	Budget           int64
	Revenue          int64
	ReleaseDate      time.Time
	Runtime          *int64
	Popularity       float64
	VoteAverage      float64
	VoteCount        int64
	Status           string
	Homepage         string
	Overview         string
	Tagline          string

	// Embedded JSON list payloads, in source form.
	Genres    string
	Keywords  string
	Companies string
	Countries string
	Languages string
}

// RawCredit is one row of the credits extract. Cast and Crew hold the
// embedded JSON list payloads.
type RawCredit struct {
	Line int

	MovieTMDBID int64
	Title       string
	Cast        string
	Crew        string
}

// MovieSource yields the full movies extract. Implementations must return
// rows in source order; surrogate id assignment depends on it.
type MovieSource interface {
	Movies(ctx context.Context) ([]RawMovie, error)
}

// CreditSource yields the full credits extract in source order.
type CreditSource interface {
	Credits(ctx context.Context) ([]RawCredit, error)
}
