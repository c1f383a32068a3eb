package mssql

import (
	"errors"
	"strings"
	"testing"

	mssql "github.com/microsoft/go-mssqldb"

	"tmdbetl/internal/storage"
)

func moviesTable() storage.Table {
	return storage.Table{
		Name: "movies",
		Columns: []storage.Column{
			{Name: "movie_id", Type: storage.TypeInt},
			{Name: "tmdb_id", Type: storage.TypeBigint},
			{Name: "popularity", Type: storage.TypeReal},
			{Name: "release_date", Type: storage.TypeDate, Nullable: true},
			{Name: "overview", Type: storage.TypeText, Nullable: true},
			{Name: "status_id", Type: storage.TypeInt, Nullable: true, Ref: &storage.Ref{Table: "statuses", Column: "status_id"}},
			{Name: "language_code", Type: storage.TypeText, Nullable: true, Ref: &storage.Ref{Table: "languages", Column: "language_code"}},
		},
		PrimaryKey: []string{"movie_id"},
		Unique:     [][]string{{"tmdb_id"}},
	}
}

// TestBuildCreateSQL verifies the dialect type mapping and constraint
// rendering.
func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	sql := buildCreateSQL("dbo", moviesTable())
	for _, want := range []string{
		`CREATE TABLE [dbo].[movies] (`,
		`[movie_id] INT NOT NULL`,
		`[tmdb_id] BIGINT NOT NULL`,
		`[popularity] FLOAT NOT NULL`,
		`[release_date] DATE`,
		`[overview] NVARCHAR(MAX)`,
		`[status_id] INT REFERENCES [dbo].[statuses] ([status_id]) ON UPDATE CASCADE ON DELETE CASCADE`,
		`PRIMARY KEY ([movie_id])`,
		`UNIQUE ([tmdb_id])`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("DDL %q missing %q", sql, want)
		}
	}
}

// TestBuildCreateSQL_TextKeys verifies text columns in keys or foreign
// keys get the bounded indexable type.
func TestBuildCreateSQL_TextKeys(t *testing.T) {
	t.Parallel()

	languages := storage.Table{
		Name: "languages",
		Columns: []storage.Column{
			{Name: "language_code", Type: storage.TypeText},
			{Name: "name", Type: storage.TypeText},
		},
		PrimaryKey: []string{"language_code"},
	}
	sql := buildCreateSQL("dbo", languages)
	if !strings.Contains(sql, `[language_code] NVARCHAR(450) NOT NULL`) {
		t.Fatalf("DDL %q does not bound the key column", sql)
	}
	if !strings.Contains(sql, `[name] NVARCHAR(MAX) NOT NULL`) {
		t.Fatalf("DDL %q bounds a plain text column", sql)
	}

	cast := storage.Table{
		Name: "movie_cast",
		Columns: []storage.Column{
			{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
			{Name: "person_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "people", Column: "person_id"}},
			{Name: "character", Type: storage.TypeText},
		},
		PrimaryKey: []string{"movie_id", "person_id", "character"},
	}
	sql = buildCreateSQL("dbo", cast)
	if !strings.Contains(sql, `[character] NVARCHAR(450) NOT NULL`) {
		t.Fatalf("DDL %q does not bound the composite key member", sql)
	}
	if !strings.Contains(sql, `PRIMARY KEY ([movie_id], [person_id], [character])`) {
		t.Fatalf("DDL %q missing composite key", sql)
	}

	// The referencing side must carry the same bounded type as the key it
	// points at.
	if got := columnType(moviesTable(), moviesTable().Columns[6]); got != "NVARCHAR(450)" {
		t.Fatalf("fk text column type=%q", got)
	}
}

// TestBuildCreateSQL_CascadeException verifies the one foreign key that
// would open a second cascade path stays NO ACTION.
func TestBuildCreateSQL_CascadeException(t *testing.T) {
	t.Parallel()

	sql := buildCreateSQL("dbo", moviesTable())
	if !strings.Contains(sql, `[language_code] NVARCHAR(450) REFERENCES [dbo].[languages] ([language_code]),`) {
		t.Fatalf("DDL %q cascades movies.language_code", sql)
	}

	movieLanguages := storage.Table{
		Name: "movie_languages",
		Columns: []storage.Column{
			{Name: "movie_id", Type: storage.TypeInt, Ref: &storage.Ref{Table: "movies", Column: "movie_id"}},
			{Name: "language_code", Type: storage.TypeText, Ref: &storage.Ref{Table: "languages", Column: "language_code"}},
		},
		PrimaryKey: []string{"movie_id", "language_code"},
	}
	sql = buildCreateSQL("dbo", movieLanguages)
	if !strings.Contains(sql, `[language_code] NVARCHAR(450) NOT NULL REFERENCES [dbo].[languages] ([language_code]) ON UPDATE CASCADE ON DELETE CASCADE`) {
		t.Fatalf("DDL %q lost the direct language cascade", sql)
	}
}

// TestBuildInsertSQL verifies placeholder numbering across rows.
func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	columns := []storage.Column{
		{Name: "movie_id", Type: storage.TypeInt},
		{Name: "genre_id", Type: storage.TypeInt},
	}
	rows := [][]any{
		{int64(1), int64(1)},
		{int64(1), int64(2)},
	}

	query, args := buildInsertSQL(qualify("dbo", "movie_genres"), columns, rows)
	want := `INSERT INTO [dbo].[movie_genres] ([movie_id], [genre_id]) VALUES (@p1, @p2), (@p3, @p4);`
	if query != want {
		t.Fatalf("sql=%q, want %q", query, want)
	}
	if len(args) != 4 || args[3] != int64(2) {
		t.Fatalf("args=%v", args)
	}
}

// TestRowsPerChunk verifies both the parameter and the VALUES row limits
// hold.
func TestRowsPerChunk(t *testing.T) {
	t.Parallel()

	if got := rowsPerChunk(16); got != 125 {
		t.Fatalf("rowsPerChunk(16)=%d, want 125", got)
	}
	if got := rowsPerChunk(1); got != maxValuesRows {
		t.Fatalf("rowsPerChunk(1)=%d, want %d", got, maxValuesRows)
	}
	if got := rowsPerChunk(0); got != 1 {
		t.Fatalf("rowsPerChunk(0)=%d, want 1", got)
	}
}

// TestMapErr verifies integrity-class server errors surface as
// storage.ErrConstraint and everything else passes through.
func TestMapErr(t *testing.T) {
	t.Parallel()

	for _, number := range []int32{2627, 2601, 547, 515} {
		err := mapErr(mssql.Error{Number: number, Message: "constraint trip"})
		if !errors.Is(err, storage.ErrConstraint) {
			t.Fatalf("number %d mapped to %v", number, err)
		}
	}

	invalidObject := mssql.Error{Number: 208, Message: "Invalid object name 'movies'."}
	if err := mapErr(invalidObject); errors.Is(err, storage.ErrConstraint) {
		t.Fatalf("number 208 mapped to constraint: %v", err)
	}
	plain := errors.New("connection reset")
	if err := mapErr(plain); err != plain {
		t.Fatalf("plain error rewritten to %v", err)
	}
}

// TestIdent verifies closing brackets cannot break out of the identifier.
func TestIdent(t *testing.T) {
	t.Parallel()

	if got := ident("wei]rd"); got != "[wei]]rd]" {
		t.Fatalf("ident()=%q", got)
	}
}
