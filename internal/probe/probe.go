// Package probe inspects the raw extracts before a build touches the
// database.
//
// The probe is responsible for:
//   - Counting rows, duplicate natural ids and orphaned credits
//   - Decoding every embedded JSON list and counting malformed payloads
//   - Previewing the dimension cardinalities a build would produce
//
// Design constraints:
//   - Inspection is read-only; nothing is resolved, merged or written.
//   - Findings are counted, not thrown: a malformed payload or an unknown
//     status becomes a line in the report, and only an unreadable file
//     fails the run.
package probe

import (
	"context"
	"sort"
	"time"

	"tmdbetl/internal/extract"
	"tmdbetl/internal/nested"
	"tmdbetl/internal/warehouse"
)

// Report is the outcome of one preflight inspection.
type Report struct {
	Movies  MoviesReport  `json:"movies"`
	Credits CreditsReport `json:"credits"`

	// OrphanCredits counts credits rows naming a movie that never appears
	// in the movies extract. A build aborts on the first of these when it
	// materializes the links.
	OrphanCredits int `json:"orphan_credits"`

	// UncreditedMovies counts movies with no credits row. A build accepts
	// these; the movie simply carries no cast or crew.
	UncreditedMovies int `json:"uncredited_movies"`

	// Entities previews per-dimension distinct counts, in load order.
	Entities []EntityCount `json:"entities"`
}

// MoviesReport summarizes the movies extract.
type MoviesReport struct {
	Rows            int            `json:"rows"`
	DuplicateIDs    []int64        `json:"duplicate_ids,omitempty"`
	UnknownStatuses map[string]int `json:"unknown_statuses,omitempty"`
	MissingRuntime  int            `json:"missing_runtime"`
	MissingRelease  int            `json:"missing_release"`
	FirstRelease    time.Time      `json:"first_release,omitzero"`
	LastRelease     time.Time      `json:"last_release,omitzero"`

	// Malformed counts rows per embedded list column whose payload did not
	// decode. A payload that breaks partway keeps the elements it yielded;
	// element totals are best-effort.
	Malformed map[string]int `json:"malformed,omitempty"`
}

// CreditsReport summarizes the credits extract.
type CreditsReport struct {
	Rows              int            `json:"rows"`
	DuplicateMovieIDs []int64        `json:"duplicate_movie_ids,omitempty"`
	CastEntries       int            `json:"cast_entries"`
	CrewEntries       int            `json:"crew_entries"`
	Malformed         map[string]int `json:"malformed,omitempty"`
}

// EntityCount is one dimension's distinct-value preview.
type EntityCount struct {
	Name     string `json:"name"`
	Distinct int    `json:"distinct"`
}

// Extracts inspects both extracts through the same sources a build reads.
func Extracts(ctx context.Context, movies extract.MovieSource, credits extract.CreditSource) (*Report, error) {
	rawMovies, err := movies.Movies(ctx)
	if err != nil {
		return nil, err
	}
	rawCredits, err := credits.Credits(ctx)
	if err != nil {
		return nil, err
	}
	return Rows(rawMovies, rawCredits), nil
}

// Rows inspects already-extracted rows.
func Rows(movies []extract.RawMovie, credits []extract.RawCredit) *Report {
	r := &Report{
		Movies: MoviesReport{
			Rows:            len(movies),
			UnknownStatuses: map[string]int{},
			Malformed:       map[string]int{},
		},
		Credits: CreditsReport{
			Rows:      len(credits),
			Malformed: map[string]int{},
		},
	}

	movieIDs := make(map[int64]int, len(movies))
	genres := map[int64]struct{}{}
	keywords := map[int64]struct{}{}
	companies := map[int64]struct{}{}
	countries := map[string]struct{}{}
	languages := map[string]struct{}{}
	people := map[int64]struct{}{}
	departments := map[string]struct{}{}
	jobs := map[string]struct{}{}

	for _, m := range movies {
		movieIDs[m.TMDBID]++
		if movieIDs[m.TMDBID] == 2 {
			r.Movies.DuplicateIDs = append(r.Movies.DuplicateIDs, m.TMDBID)
		}
		if m.Status != "" {
			if _, ok := warehouse.StatusID(m.Status); !ok {
				r.Movies.UnknownStatuses[m.Status]++
			}
		}
		if m.Runtime == nil {
			r.Movies.MissingRuntime++
		}
		if m.ReleaseDate.IsZero() {
			r.Movies.MissingRelease++
		} else {
			if r.Movies.FirstRelease.IsZero() || m.ReleaseDate.Before(r.Movies.FirstRelease) {
				r.Movies.FirstRelease = m.ReleaseDate
			}
			if m.ReleaseDate.After(r.Movies.LastRelease) {
				r.Movies.LastRelease = m.ReleaseDate
			}
		}

		idList(r.Movies.Malformed, "genres", m.Genres, genres)
		idList(r.Movies.Malformed, "keywords", m.Keywords, keywords)
		idList(r.Movies.Malformed, "production_companies", m.Companies, companies)

		if err := nested.Elements("production_countries", m.Countries, func(el nested.Country) error {
			countries[el.Code] = struct{}{}
			return nil
		}); err != nil {
			r.Movies.Malformed["production_countries"]++
		}
		if err := nested.Elements("spoken_languages", m.Languages, func(el nested.Language) error {
			languages[el.Code] = struct{}{}
			return nil
		}); err != nil {
			r.Movies.Malformed["spoken_languages"]++
		}
	}
	sortIDs(r.Movies.DuplicateIDs)

	creditSeen := make(map[int64]int, len(credits))
	credited := make(map[int64]struct{}, len(credits))
	for _, c := range credits {
		creditSeen[c.MovieTMDBID]++
		if creditSeen[c.MovieTMDBID] == 2 {
			r.Credits.DuplicateMovieIDs = append(r.Credits.DuplicateMovieIDs, c.MovieTMDBID)
		}
		if _, ok := movieIDs[c.MovieTMDBID]; ok {
			credited[c.MovieTMDBID] = struct{}{}
		} else {
			r.OrphanCredits++
		}

		if err := nested.Elements("cast", c.Cast, func(el nested.CastEntry) error {
			r.Credits.CastEntries++
			people[el.ID] = struct{}{}
			return nil
		}); err != nil {
			r.Credits.Malformed["cast"]++
		}
		if err := nested.Elements("crew", c.Crew, func(el nested.CrewEntry) error {
			r.Credits.CrewEntries++
			people[el.ID] = struct{}{}
			departments[el.Department] = struct{}{}
			jobs[el.Job] = struct{}{}
			return nil
		}); err != nil {
			r.Credits.Malformed["crew"]++
		}
	}
	sortIDs(r.Credits.DuplicateMovieIDs)

	for id := range movieIDs {
		if _, ok := credited[id]; !ok {
			r.UncreditedMovies++
		}
	}

	r.Entities = []EntityCount{
		{Name: "languages", Distinct: len(languages)},
		{Name: "countries", Distinct: len(countries)},
		{Name: "genres", Distinct: len(genres)},
		{Name: "keywords", Distinct: len(keywords)},
		{Name: "companies", Distinct: len(companies)},
		{Name: "departments", Distinct: len(departments)},
		{Name: "jobs", Distinct: len(jobs)},
		{Name: "movies", Distinct: len(movieIDs)},
		{Name: "people", Distinct: len(people)},
	}
	return r
}

func idList(malformed map[string]int, col, payload string, set map[int64]struct{}) {
	err := nested.Elements(col, payload, func(el nested.IDName) error {
		set[el.ID] = struct{}{}
		return nil
	})
	if err != nil {
		malformed[col]++
	}
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
