package normalize

import (
	"fmt"

	"tmdbetl/internal/extract"
	"tmdbetl/internal/warehouse"
)

// Entities holds every resolved dimension of one build. MovieRows keeps the
// deduplicated raw movie rows in surrogate order; their scalar attributes
// are carried into the snapshot at assembly.
type Entities struct {
	Movies      *Resolver[int64]
	MovieRows   []extract.RawMovie
	Genres      *Resolver[int64]
	Keywords    *Resolver[int64]
	Companies   *Resolver[int64]
	Countries   *Resolver[string]
	Languages   *Resolver[string]
	Departments *Resolver[string]
	Jobs        *Resolver[string]
}

// ResolveEntities walks both unpacked extracts and assigns surrogate ids to
// every dimension in first-sighting order. Movies, genres, keywords and
// companies key on their source ids; countries and languages on their
// two-letter codes; departments and jobs on their names. The original
// language of each movie counts as an id-only language sighting, so the
// languages dimension is the union of both source contexts.
//
// Whole-table completeness is the point of this stage: link re-keying must
// not start until every id below exists.
func ResolveEntities(movies []UnpackedMovie, credits []UnpackedCredit) (*Entities, error) {
	ents := &Entities{
		Movies:      NewResolver[int64]("movie"),
		Genres:      NewResolver[int64]("genre"),
		Keywords:    NewResolver[int64]("keyword"),
		Companies:   NewResolver[int64]("company"),
		Countries:   NewResolver[string]("country"),
		Languages:   NewResolver[string]("language"),
		Departments: NewResolver[string]("department"),
		Jobs:        NewResolver[string]("job"),
	}

	for _, m := range movies {
		if err := ents.resolveMovie(m); err != nil {
			return nil, err
		}
	}
	for _, cr := range credits {
		if err := ents.resolveCrewDims(cr); err != nil {
			return nil, err
		}
	}

	// Dimensions named only by their source lists must have ended up with a
	// name; an id-only genre/keyword/company has nothing to display.
	for _, check := range []struct {
		label string
		r     *Resolver[int64]
	}{
		{"genre", ents.Genres}, {"keyword", ents.Keywords}, {"company", ents.Companies},
	} {
		if key, ok := firstNameless(check.r); ok {
			return nil, fmt.Errorf("%s %d has no name in any sighting", check.label, key)
		}
	}

	return ents, nil
}

func firstNameless(r *Resolver[int64]) (int64, bool) {
	var key int64
	found := false
	r.Each(func(_, k int64, name string) {
		if name == "" && !found {
			key, found = k, true
		}
	})
	return key, found
}

func (e *Entities) resolveMovie(m UnpackedMovie) error {
	raw := m.Raw

	if raw.Status != "" {
		if _, ok := warehouse.StatusID(raw.Status); !ok {
			return fmt.Errorf("movie %d: unknown status %q", raw.TMDBID, raw.Status)
		}
	}

	_, existed := e.Movies.ID(raw.TMDBID)
	if _, err := e.Movies.Observe(raw.TMDBID, raw.Title); err != nil {
		return fmt.Errorf("movies line %d: %w", raw.Line, err)
	}
	if !existed {
		e.MovieRows = append(e.MovieRows, raw)
	}
	// A full repeat of one movie row keeps the first row's scalars; its list
	// columns still feed the dimensions below (they dedupe by natural id).

	wrap := func(err error) error { return fmt.Errorf("movie %d: %w", raw.TMDBID, err) }

	for _, el := range m.Genres {
		if el.ID == 0 {
			return wrap(fmt.Errorf("genres element missing id"))
		}
		if _, err := e.Genres.Observe(el.ID, el.Name); err != nil {
			return wrap(err)
		}
	}
	for _, el := range m.Keywords {
		if el.ID == 0 {
			return wrap(fmt.Errorf("keywords element missing id"))
		}
		if _, err := e.Keywords.Observe(el.ID, el.Name); err != nil {
			return wrap(err)
		}
	}
	for _, el := range m.Companies {
		if el.ID == 0 {
			return wrap(fmt.Errorf("production_companies element missing id"))
		}
		if _, err := e.Companies.Observe(el.ID, el.Name); err != nil {
			return wrap(err)
		}
	}
	for _, el := range m.Countries {
		if el.Code == "" {
			return wrap(fmt.Errorf("production_countries element missing iso_3166_1 code"))
		}
		if _, err := e.Countries.Observe(el.Code, el.Name); err != nil {
			return wrap(err)
		}
	}
	for _, el := range m.Languages {
		if el.Code == "" {
			return wrap(fmt.Errorf("spoken_languages element missing iso_639_1 code"))
		}
		if _, err := e.Languages.Observe(el.Code, el.Name); err != nil {
			return wrap(err)
		}
	}
	if raw.OriginalLanguage != "" {
		if _, err := e.Languages.Observe(raw.OriginalLanguage, ""); err != nil {
			return wrap(err)
		}
	}
	return nil
}

func (e *Entities) resolveCrewDims(cr UnpackedCredit) error {
	for _, el := range cr.Crew {
		if el.Department == "" {
			return fmt.Errorf("movie %d: crew element for person %d missing department", cr.Raw.MovieTMDBID, el.ID)
		}
		if el.Job == "" {
			return fmt.Errorf("movie %d: crew element for person %d missing job", cr.Raw.MovieTMDBID, el.ID)
		}
		if _, err := e.Departments.Observe(el.Department, el.Department); err != nil {
			return fmt.Errorf("movie %d: %w", cr.Raw.MovieTMDBID, err)
		}
		if _, err := e.Jobs.Observe(el.Job, el.Job); err != nil {
			return fmt.Errorf("movie %d: %w", cr.Raw.MovieTMDBID, err)
		}
	}
	return nil
}
