package warehouse

import (
	"time"

	"tmdbetl/internal/storage"
)

// Binding is one catalog entry: a table shape plus the projection of that
// table's rows out of a snapshot, in insert order.
type Binding struct {
	storage.Table

	// DensePK marks tables whose integer primary key must leave the build
	// as exactly {1..N}. Fixed lookups and code-keyed tables are exempt.
	DensePK bool

	// Rows projects the snapshot into aligned column values.
	Rows func(*Snapshot) [][]any
}

// Catalog returns every warehouse table in dependency order: parents before
// children, the build marker last. Schema drop order is the reverse.
func Catalog() []Binding {
	return []Binding{
		{
			Table: storage.Table{
				Name: "genders",
				Columns: []storage.Column{
					{Name: "gender_id", Type: storage.TypeInt},
					{Name: "gender", Type: storage.TypeText},
				},
				PrimaryKey: []string{"gender_id"},
				Unique:     [][]string{{"gender"}},
			},
			Rows: func(*Snapshot) [][]any {
				return [][]any{
					{GenderUnspecified, "Unspecified"},
					{GenderFemale, "Female"},
					{GenderMale, "Male"},
				}
			},
		},
		{
			Table: storage.Table{
				Name: "roles",
				Columns: []storage.Column{
					{Name: "role_id", Type: storage.TypeInt},
					{Name: "role", Type: storage.TypeText},
				},
				PrimaryKey: []string{"role_id"},
				Unique:     [][]string{{"role"}},
			},
			Rows: func(*Snapshot) [][]any {
				return [][]any{
					{RoleBoth, "Both"},
					{RoleCast, "Cast"},
					{RoleCrew, "Crew"},
				}
			},
		},
		{
			Table: storage.Table{
				Name: "statuses",
				Columns: []storage.Column{
					{Name: "status_id", Type: storage.TypeInt},
					{Name: "status", Type: storage.TypeText},
				},
				PrimaryKey: []string{"status_id"},
				Unique:     [][]string{{"status"}},
			},
			Rows: func(*Snapshot) [][]any {
				return [][]any{
					{StatusRumored, "Rumored"},
					{StatusReleased, "Released"},
					{StatusPostProduction, "Post Production"},
				}
			},
		},
		{
			Table: storage.Table{
				Name: "languages",
				Columns: []storage.Column{
					{Name: "language_code", Type: storage.TypeText},
					{Name: "name", Type: storage.TypeText},
				},
				PrimaryKey: []string{"language_code"},
			},
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.Languages))
				for i, c := range s.Languages {
					out[i] = []any{c.Code, c.Name}
				}
				return out
			},
		},
		{
			Table: storage.Table{
				Name: "countries",
				Columns: []storage.Column{
					{Name: "country_code", Type: storage.TypeText},
					{Name: "name", Type: storage.TypeText},
				},
				PrimaryKey: []string{"country_code"},
			},
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.Countries))
				for i, c := range s.Countries {
					out[i] = []any{c.Code, c.Name}
				}
				return out
			},
		},
		{
			Table:   entityTable("genres", "genre_id"),
			DensePK: true,
			Rows:    func(s *Snapshot) [][]any { return entityRows(s.Genres) },
		},
		{
			Table:   entityTable("keywords", "keyword_id"),
			DensePK: true,
			Rows:    func(s *Snapshot) [][]any { return entityRows(s.Keywords) },
		},
		{
			Table:   entityTable("companies", "company_id"),
			DensePK: true,
			Rows:    func(s *Snapshot) [][]any { return entityRows(s.Companies) },
		},
		{
			Table:   namedTable("departments", "department_id"),
			DensePK: true,
			Rows:    func(s *Snapshot) [][]any { return namedRows(s.Departments) },
		},
		{
			Table:   namedTable("jobs", "job_id"),
			DensePK: true,
			Rows:    func(s *Snapshot) [][]any { return namedRows(s.Jobs) },
		},
		{
			Table: storage.Table{
				Name: "movies",
				Columns: []storage.Column{
					{Name: "movie_id", Type: storage.TypeInt},
					{Name: "tmdb_id", Type: storage.TypeBigint},
					{Name: "title", Type: storage.TypeText},
					{Name: "original_title", Type: storage.TypeText, Nullable: true},
					{Name: "budget", Type: storage.TypeBigint},
					{Name: "revenue", Type: storage.TypeBigint},
					{Name: "release_date", Type: storage.TypeDate, Nullable: true},
					{Name: "runtime", Type: storage.TypeInt, Nullable: true},
					{Name: "popularity", Type: storage.TypeReal},
					{Name: "vote_average", Type: storage.TypeReal},
					{Name: "vote_count", Type: storage.TypeInt},
					{Name: "homepage", Type: storage.TypeText, Nullable: true},
					{Name: "overview", Type: storage.TypeText, Nullable: true},
					{Name: "tagline", Type: storage.TypeText, Nullable: true},
					{Name: "status_id", Type: storage.TypeInt, Nullable: true, Ref: &storage.Ref{Table: "statuses", Column: "status_id"}},
					{Name: "language_code", Type: storage.TypeText, Nullable: true, Ref: &storage.Ref{Table: "languages", Column: "language_code"}},
				},
				PrimaryKey: []string{"movie_id"},
				Unique:     [][]string{{"tmdb_id"}},
			},
			DensePK: true,
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.Movies))
				for i, m := range s.Movies {
					out[i] = []any{
						m.MovieID, m.TMDBID, m.Title, nullText(m.OriginalTitle),
						m.Budget, m.Revenue, nullDate(m.ReleaseDate), nullInt(m.Runtime),
						m.Popularity, m.VoteAverage, m.VoteCount,
						nullText(m.Homepage), nullText(m.Overview), nullText(m.Tagline),
						nullInt(m.StatusID), nullText(m.LanguageCode),
					}
				}
				return out
			},
		},
		{
			Table: storage.Table{
				Name: "people",
				Columns: []storage.Column{
					{Name: "person_id", Type: storage.TypeInt},
					{Name: "tmdb_id", Type: storage.TypeBigint},
					{Name: "name", Type: storage.TypeText},
					{Name: "gender_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "genders", Column: "gender_id"}},
					{Name: "role_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "roles", Column: "role_id"}},
				},
				PrimaryKey: []string{"person_id"},
				Unique:     [][]string{{"tmdb_id"}},
			},
			DensePK: true,
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.People))
				for i, p := range s.People {
					out[i] = []any{p.PersonID, p.TMDBID, p.Name, p.GenderID, p.RoleID}
				}
				return out
			},
		},
		{
			Table: pairTable("movie_genres", "genre_id", "genres"),
			Rows:  func(s *Snapshot) [][]any { return pairRows(s.MovieGenres) },
		},
		{
			Table: pairTable("movie_keywords", "keyword_id", "keywords"),
			Rows:  func(s *Snapshot) [][]any { return pairRows(s.MovieKeywords) },
		},
		{
			Table: pairTable("movie_companies", "company_id", "companies"),
			Rows:  func(s *Snapshot) [][]any { return pairRows(s.MovieCompanies) },
		},
		{
			Table: codePairTable("movie_countries", "country_code", "countries"),
			Rows:  func(s *Snapshot) [][]any { return codePairRows(s.MovieCountries) },
		},
		{
			Table: codePairTable("movie_languages", "language_code", "languages"),
			Rows:  func(s *Snapshot) [][]any { return codePairRows(s.MovieLanguages) },
		},
		{
			Table: storage.Table{
				Name: "movie_cast",
				Columns: []storage.Column{
					{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
					{Name: "person_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "people", Column: "person_id"}},
					{Name: "character", Type: storage.TypeText},
				},
				PrimaryKey: []string{"movie_id", "person_id", "character"},
			},
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.Cast))
				for i, c := range s.Cast {
					out[i] = []any{c.MovieID, c.PersonID, c.Character}
				}
				return out
			},
		},
		{
			Table: storage.Table{
				Name: "movie_crew",
				Columns: []storage.Column{
					{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
					{Name: "person_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "people", Column: "person_id"}},
					{Name: "department_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "departments", Column: "department_id"}},
					{Name: "job_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "jobs", Column: "job_id"}},
				},
				PrimaryKey: []string{"movie_id", "person_id", "department_id", "job_id"},
			},
			Rows: func(s *Snapshot) [][]any {
				out := make([][]any, len(s.Crew))
				for i, c := range s.Crew {
					out[i] = []any{c.MovieID, c.PersonID, c.DepartmentID, c.JobID}
				}
				return out
			},
		},
		{
			// Written last: its presence marks a complete build. A failed
			// run leaves a schema without a marker row, which readers must
			// treat as unusable.
			Table: storage.Table{
				Name: "etl_build",
				Columns: []storage.Column{
					{Name: "build_id", Type: storage.TypeText},
					{Name: "built_at", Type: storage.TypeTimestampTZ},
					{Name: "movie_rows", Type: storage.TypeInt},
					{Name: "credit_rows", Type: storage.TypeInt},
				},
				PrimaryKey: []string{"build_id"},
			},
			Rows: func(s *Snapshot) [][]any {
				return [][]any{{s.BuildID, s.BuiltAt, int64(s.SourceMovies), int64(s.SourceCredits)}}
			},
		},
	}
}

func entityTable(name, pk string) storage.Table {
	return storage.Table{
		Name: name,
		Columns: []storage.Column{
			{Name: pk, Type: storage.TypeInt},
			{Name: "tmdb_id", Type: storage.TypeBigint},
			{Name: "name", Type: storage.TypeText},
		},
		PrimaryKey: []string{pk},
		Unique:     [][]string{{"tmdb_id"}},
	}
}

func namedTable(name, pk string) storage.Table {
	return storage.Table{
		Name: name,
		Columns: []storage.Column{
			{Name: pk, Type: storage.TypeInt},
			{Name: "name", Type: storage.TypeText},
		},
		PrimaryKey: []string{pk},
		Unique:     [][]string{{"name"}},
	}
}

func pairTable(name, refCol, refTable string) storage.Table {
	return storage.Table{
		Name: name,
		Columns: []storage.Column{
			{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
			{Name: refCol, Type: storage.TypeInt, Ref: &storage.Ref{Table: refTable, Column: refCol}},
		},
		PrimaryKey: []string{"movie_id", refCol},
	}
}

func codePairTable(name, refCol, refTable string) storage.Table {
	return storage.Table{
		Name: name,
		Columns: []storage.Column{
			{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
			{Name: refCol, Type: storage.TypeText, Ref: &storage.Ref{Table: refTable, Column: refCol}},
		},
		PrimaryKey: []string{"movie_id", refCol},
	}
}

func entityRows(ents []Entity) [][]any {
	out := make([][]any, len(ents))
	for i, e := range ents {
		out[i] = []any{e.ID, e.TMDBID, e.Name}
	}
	return out
}

func namedRows(ents []Named) [][]any {
	out := make([][]any, len(ents))
	for i, e := range ents {
		out[i] = []any{e.ID, e.Name}
	}
	return out
}

func pairRows(links []Pair) [][]any {
	out := make([][]any, len(links))
	for i, l := range links {
		out[i] = []any{l.MovieID, l.RefID}
	}
	return out
}

func codePairRows(links []CodePair) [][]any {
	out := make([][]any, len(links))
	for i, l := range links {
		out[i] = []any{l.MovieID, l.Code}
	}
	return out
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
