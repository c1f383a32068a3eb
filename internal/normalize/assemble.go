package normalize

import (
	"tmdbetl/internal/warehouse"
)

// Assemble projects the resolved entities, classified people and re-keyed
// links into one warehouse snapshot. Every slice comes out in surrogate
// (first-sighting) order. Build identity and source counts are stamped on by
// the pipeline before the snapshot is written.
func Assemble(ents *Entities, ppl *People, links *Links) *warehouse.Snapshot {
	snap := &warehouse.Snapshot{
		People:         ppl.Rows,
		Genres:         entityRows(ents.Genres),
		Keywords:       entityRows(ents.Keywords),
		Companies:      entityRows(ents.Companies),
		Countries:      codeRows(ents.Countries),
		Languages:      codeRows(ents.Languages),
		Departments:    namedRows(ents.Departments),
		Jobs:           namedRows(ents.Jobs),
		MovieGenres:    links.MovieGenres,
		MovieKeywords:  links.MovieKeywords,
		MovieCompanies: links.MovieCompanies,
		MovieCountries: links.MovieCountries,
		MovieLanguages: links.MovieLanguages,
		Cast:           links.Cast,
		Crew:           links.Crew,
	}

	snap.Movies = make([]warehouse.Movie, 0, len(ents.MovieRows))
	for _, raw := range ents.MovieRows {
		id, _ := ents.Movies.ID(raw.TMDBID)
		m := warehouse.Movie{
			MovieID:       id,
			TMDBID:        raw.TMDBID,
			Title:         raw.Title,
			OriginalTitle: raw.OriginalTitle,
			Budget:        raw.Budget,
			Revenue:       raw.Revenue,
			ReleaseDate:   raw.ReleaseDate,
			Runtime:       raw.Runtime,
			Popularity:    raw.Popularity,
			VoteAverage:   raw.VoteAverage,
			VoteCount:     raw.VoteCount,
			Homepage:      raw.Homepage,
			Overview:      raw.Overview,
			Tagline:       raw.Tagline,
			LanguageCode:  raw.OriginalLanguage,
		}
		if raw.Status != "" {
			// Unknown strings were rejected at resolution.
			sid, _ := warehouse.StatusID(raw.Status)
			m.StatusID = &sid
		}
		snap.Movies = append(snap.Movies, m)
	}

	return snap
}

func entityRows(r *Resolver[int64]) []warehouse.Entity {
	rows := make([]warehouse.Entity, 0, r.Len())
	r.Each(func(id, key int64, name string) {
		rows = append(rows, warehouse.Entity{ID: id, TMDBID: key, Name: name})
	})
	return rows
}

// codeRows falls back to the code itself when no sighting carried a display
// name, which happens for languages seen only in original_language.
func codeRows(r *Resolver[string]) []warehouse.Code {
	rows := make([]warehouse.Code, 0, r.Len())
	r.Each(func(_ int64, code, name string) {
		if name == "" {
			name = code
		}
		rows = append(rows, warehouse.Code{Code: code, Name: name})
	})
	return rows
}

func namedRows(r *Resolver[string]) []warehouse.Named {
	rows := make([]warehouse.Named, 0, r.Len())
	r.Each(func(id int64, _, name string) {
		rows = append(rows, warehouse.Named{ID: id, Name: name})
	})
	return rows
}
