// Package warehouse declares the normalized movie schema as data: the typed
// row model of one build's output, the fixed lookup enumerations, and a
// catalog binding every table's shape to its snapshot rows. The catalog is
// the single authority the verifier, the storage writer and the view layer
// all walk; adding a table means adding one catalog entry.
package warehouse

import "time"

// Gender codes as they appear in the source. 0 is the "unspecified"
// placeholder the classifier's conflict rule keys on.
const (
	GenderUnspecified int64 = 0
	GenderFemale      int64 = 1
	GenderMale        int64 = 2
)

// Role codes derived by the classifier from cast/crew presence.
const (
	RoleBoth int64 = 0
	RoleCast int64 = 1
	RoleCrew int64 = 2
)

// Production status codes.
const (
	StatusRumored        int64 = 0
	StatusReleased       int64 = 1
	StatusPostProduction int64 = 2
)

var statusIDs = map[string]int64{
	"Rumored":         StatusRumored,
	"Released":        StatusReleased,
	"Post Production": StatusPostProduction,
}

// StatusID maps a source status string onto its lookup code. ok is false for
// strings outside the enumeration; the caller decides that is a build error.
func StatusID(s string) (int64, bool) {
	id, ok := statusIDs[s]
	return id, ok
}

// Snapshot is the fully materialized normalized dataset of one build. It is
// assembled after entity resolution, mutated only by the duplicate-company
// merge, and frozen once verification passes.
type Snapshot struct {
	BuildID string
	BuiltAt time.Time

	// Raw extract row counts, persisted in the build marker row.
	SourceMovies  int
	SourceCredits int

	Movies      []Movie
	People      []Person
	Genres      []Entity
	Keywords    []Entity
	Companies   []Entity
	Countries   []Code
	Languages   []Code
	Departments []Named
	Jobs        []Named

	MovieGenres    []Pair
	MovieKeywords  []Pair
	MovieCompanies []Pair
	MovieCountries []CodePair
	MovieLanguages []CodePair
	Cast           []CastRow
	Crew           []CrewRow
}

// Movie is one movies row. Zero ReleaseDate, nil Runtime/StatusID and empty
// string fields persist as NULL.
type Movie struct {
	MovieID       int64
	TMDBID        int64
	Title         string
	OriginalTitle string
	Budget        int64
	Revenue       int64
	ReleaseDate   time.Time
	Runtime       *int64
	Popularity    float64
	VoteAverage   float64
	VoteCount     int64
	Homepage      string
	Overview      string
	Tagline       string
	StatusID      *int64
	LanguageCode  string
}

// Person is one people row. GenderID and RoleID always reference the fixed
// lookups.
type Person struct {
	PersonID int64
	TMDBID   int64
	Name     string
	GenderID int64
	RoleID   int64
}

// Entity is a surrogate-keyed dimension row with an integer natural id
// (genres, keywords, companies).
type Entity struct {
	ID     int64
	TMDBID int64
	Name   string
}

// Code is a dimension row keyed by its own two-letter source code
// (countries, languages). Codes get no surrogate remapping.
type Code struct {
	Code string
	Name string
}

// Named is a surrogate-keyed dimension row whose natural key is its name
// (departments, jobs).
type Named struct {
	ID   int64
	Name string
}

// Pair is a two-way link row between a movie and a surrogate-keyed entity.
type Pair struct {
	MovieID int64
	RefID   int64
}

// CodePair is a two-way link row between a movie and a code-keyed entity.
type CodePair struct {
	MovieID int64
	Code    string
}

// CastRow is one movie↔person cast link. Character is "" when the source
// carried none; it participates in the composite key so one person can hold
// several credited parts in one movie.
type CastRow struct {
	MovieID   int64
	PersonID  int64
	Character string
}

// CrewRow is the 4-way movie↔person↔department↔job association.
type CrewRow struct {
	MovieID      int64
	PersonID     int64
	DepartmentID int64
	JobID        int64
}
