package normalize

import (
	"errors"
	"fmt"

	"tmdbetl/internal/warehouse"
)

// ErrDanglingReference reports a link element pointing at an id that never
// resolved. It signals an upstream bug and always aborts; a link row is
// never silently dropped.
var ErrDanglingReference = errors.New("dangling reference")

// Links holds the re-keyed association tables, deduplicated on their full
// composite keys with first-occurrence order preserved.
type Links struct {
	MovieGenres    []warehouse.Pair
	MovieKeywords  []warehouse.Pair
	MovieCompanies []warehouse.Pair
	MovieCountries []warehouse.CodePair
	MovieLanguages []warehouse.CodePair
	Cast           []warehouse.CastRow
	Crew           []warehouse.CrewRow
}

// MaterializeLinks re-keys every association from natural ids to the
// surrogates assigned by entity resolution and person classification. It
// must run only after both of those have finished whole-table: a natural id
// missing from its lookup here is ErrDanglingReference, not an invitation
// to resolve late.
func MaterializeLinks(movies []UnpackedMovie, credits []UnpackedCredit, ents *Entities, ppl *People) (*Links, error) {
	links := &Links{}

	// one set per link table; the same (movie, ref) pair may legitimately
	// appear in several tables
	genrePairs := newDedup[warehouse.Pair]()
	keywordPairs := newDedup[warehouse.Pair]()
	companyPairs := newDedup[warehouse.Pair]()
	countryPairs := newDedup[warehouse.CodePair]()
	languagePairs := newDedup[warehouse.CodePair]()
	castRows := newDedup[warehouse.CastRow]()
	crewRows := newDedup[warehouse.CrewRow]()

	for _, m := range movies {
		movieID, ok := ents.Movies.ID(m.Raw.TMDBID)
		if !ok {
			return nil, fmt.Errorf("%w: movie %d absent from the movie table", ErrDanglingReference, m.Raw.TMDBID)
		}

		for _, el := range m.Genres {
			id, ok := ents.Genres.ID(el.ID)
			if !ok {
				return nil, dangling("genre", el.ID, m.Raw.TMDBID)
			}
			links.MovieGenres = genrePairs.add(links.MovieGenres, warehouse.Pair{MovieID: movieID, RefID: id})
		}
		for _, el := range m.Keywords {
			id, ok := ents.Keywords.ID(el.ID)
			if !ok {
				return nil, dangling("keyword", el.ID, m.Raw.TMDBID)
			}
			links.MovieKeywords = keywordPairs.add(links.MovieKeywords, warehouse.Pair{MovieID: movieID, RefID: id})
		}
		for _, el := range m.Companies {
			id, ok := ents.Companies.ID(el.ID)
			if !ok {
				return nil, dangling("company", el.ID, m.Raw.TMDBID)
			}
			links.MovieCompanies = companyPairs.add(links.MovieCompanies, warehouse.Pair{MovieID: movieID, RefID: id})
		}
		for _, el := range m.Countries {
			if _, ok := ents.Countries.ID(el.Code); !ok {
				return nil, dangling("country", el.Code, m.Raw.TMDBID)
			}
			links.MovieCountries = countryPairs.add(links.MovieCountries, warehouse.CodePair{MovieID: movieID, Code: el.Code})
		}
		for _, el := range m.Languages {
			if _, ok := ents.Languages.ID(el.Code); !ok {
				return nil, dangling("language", el.Code, m.Raw.TMDBID)
			}
			links.MovieLanguages = languagePairs.add(links.MovieLanguages, warehouse.CodePair{MovieID: movieID, Code: el.Code})
		}
	}

	for _, cr := range credits {
		movieID, ok := ents.Movies.ID(cr.Raw.MovieTMDBID)
		if !ok {
			return nil, fmt.Errorf("%w: credits reference movie %d, which has no movie-info row",
				ErrDanglingReference, cr.Raw.MovieTMDBID)
		}

		for _, el := range cr.Cast {
			personID, ok := ppl.IDs[el.ID]
			if !ok {
				return nil, dangling("person", el.ID, cr.Raw.MovieTMDBID)
			}
			links.Cast = castRows.add(links.Cast, warehouse.CastRow{
				MovieID:   movieID,
				PersonID:  personID,
				Character: el.Character,
			})
		}
		for _, el := range cr.Crew {
			personID, ok := ppl.IDs[el.ID]
			if !ok {
				return nil, dangling("person", el.ID, cr.Raw.MovieTMDBID)
			}
			deptID, ok := ents.Departments.ID(el.Department)
			if !ok {
				return nil, dangling("department", el.Department, cr.Raw.MovieTMDBID)
			}
			jobID, ok := ents.Jobs.ID(el.Job)
			if !ok {
				return nil, dangling("job", el.Job, cr.Raw.MovieTMDBID)
			}
			links.Crew = crewRows.add(links.Crew, warehouse.CrewRow{
				MovieID:      movieID,
				PersonID:     personID,
				DepartmentID: deptID,
				JobID:        jobID,
			})
		}
	}

	return links, nil
}

func dangling(label string, key any, movie int64) error {
	return fmt.Errorf("%w: %s %v referenced by movie %d was never resolved", ErrDanglingReference, label, key, movie)
}

// dedup appends a row only on its first occurrence. Link rows are small
// comparable structs, so the row itself is the set key.
type dedup[T comparable] struct {
	seen map[T]struct{}
}

func newDedup[T comparable]() *dedup[T] {
	return &dedup[T]{seen: make(map[T]struct{})}
}

func (d *dedup[T]) add(rows []T, row T) []T {
	if _, ok := d.seen[row]; ok {
		return rows
	}
	d.seen[row] = struct{}{}
	return append(rows, row)
}
