package normalize

import (
	"fmt"

	"tmdbetl/internal/extract"
	"tmdbetl/internal/nested"
)

// UnpackedMovie pairs a raw movies row with its five decoded list columns.
type UnpackedMovie struct {
	Raw       extract.RawMovie
	Genres    []nested.IDName
	Keywords  []nested.IDName
	Companies []nested.IDName
	Countries []nested.Country
	Languages []nested.Language
}

// UnpackedCredit pairs a raw credits row with its decoded cast and crew
// lists.
type UnpackedCredit struct {
	Raw  extract.RawCredit
	Cast []nested.CastEntry
	Crew []nested.CrewEntry
}

// UnpackMovies decodes the embedded list columns of every movies row. The
// first malformed payload aborts with the movie's natural id in the error.
func UnpackMovies(rows []extract.RawMovie) ([]UnpackedMovie, error) {
	out := make([]UnpackedMovie, 0, len(rows))
	for _, raw := range rows {
		u, err := unpackMovie(raw)
		if err != nil {
			return nil, fmt.Errorf("movie %d: %w", raw.TMDBID, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func unpackMovie(raw extract.RawMovie) (UnpackedMovie, error) {
	u := UnpackedMovie{Raw: raw}
	var err error
	if u.Genres, err = nested.List[nested.IDName]("genres", raw.Genres); err != nil {
		return u, err
	}
	if u.Keywords, err = nested.List[nested.IDName]("keywords", raw.Keywords); err != nil {
		return u, err
	}
	if u.Companies, err = nested.List[nested.IDName]("production_companies", raw.Companies); err != nil {
		return u, err
	}
	if u.Countries, err = nested.List[nested.Country]("production_countries", raw.Countries); err != nil {
		return u, err
	}
	if u.Languages, err = nested.List[nested.Language]("spoken_languages", raw.Languages); err != nil {
		return u, err
	}
	return u, nil
}

// UnpackCredits decodes the cast and crew lists of every credits row.
func UnpackCredits(rows []extract.RawCredit) ([]UnpackedCredit, error) {
	out := make([]UnpackedCredit, 0, len(rows))
	for _, raw := range rows {
		u := UnpackedCredit{Raw: raw}
		var err error
		if u.Cast, err = nested.List[nested.CastEntry]("cast", raw.Cast); err != nil {
			return nil, fmt.Errorf("movie %d: %w", raw.MovieTMDBID, err)
		}
		if u.Crew, err = nested.List[nested.CrewEntry]("crew", raw.Crew); err != nil {
			return nil, fmt.Errorf("movie %d: %w", raw.MovieTMDBID, err)
		}
		out = append(out, u)
	}
	return out, nil
}
