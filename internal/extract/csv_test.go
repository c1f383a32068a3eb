package extract

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func defaultMovieRow() map[string]string {
	return map[string]string{
		"budget":               "237000000",
		"genres":               `[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]`,
		"homepage":             "http://www.avatarmovie.com/",
		"id":                   "19995",
		"keywords":             `[{"id": 1463, "name": "culture clash"}]`,
		"original_language":    "en",
		"original_title":       "Avatar",
		"overview":             "In the 22nd century...",
		"popularity":           "150.437577",
		"production_companies": `[{"id": 289, "name": "Ingenious Film Partners"}]`,
		"production_countries": `[{"iso_3166_1": "US", "name": "United States of America"}]`,
		"release_date":         "2009-12-10",
		"revenue":              "2787965087",
		"runtime":              "162.0",
		"spoken_languages":     `[{"iso_639_1": "en", "name": "English"}]`,
		"status":               "Released",
		"tagline":              "Enter the World of Pandora.",
		"title":                "Avatar",
		"vote_average":         "7.2",
		"vote_count":           "11800",
	}
}

func writeCSV(t *testing.T, columns []string, rows []map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		rec := make([]string, len(columns))
		for i, c := range columns {
			rec[i] = row[c]
		}
		if err := w.Write(rec); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func TestCSVMoviesParsesRow(t *testing.T) {
	path := writeCSV(t, movieColumns, []map[string]string{defaultMovieRow()})

	rows, err := CSVMovies{Path: path}.Movies(context.Background())
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	m := rows[0]
	if m.TMDBID != 19995 || m.Title != "Avatar" || m.OriginalLanguage != "en" {
		t.Fatalf("row = %+v", m)
	}
	if m.Budget != 237000000 || m.Revenue != 2787965087 || m.VoteCount != 11800 {
		t.Fatalf("numeric columns wrong: %+v", m)
	}
	if m.Runtime == nil || *m.Runtime != 162 {
		t.Fatalf("runtime = %v, want 162", m.Runtime)
	}
	if want := time.Date(2009, 12, 10, 0, 0, 0, 0, time.UTC); !m.ReleaseDate.Equal(want) {
		t.Fatalf("release date = %v, want %v", m.ReleaseDate, want)
	}
	if m.Status != "Released" || m.Popularity == 0 || m.VoteAverage != 7.2 {
		t.Fatalf("scalar columns wrong: %+v", m)
	}
	// Nested payloads pass through uninterpreted.
	if !strings.Contains(m.Genres, `"Action"`) || !strings.Contains(m.Countries, "iso_3166_1") {
		t.Fatalf("nested payloads mangled: genres=%q countries=%q", m.Genres, m.Countries)
	}
	if m.Line != 2 {
		t.Fatalf("line = %d, want 2 (header is line 1)", m.Line)
	}
}

func TestCSVMoviesEmptyScalars(t *testing.T) {
	row := defaultMovieRow()
	row["release_date"] = ""
	row["runtime"] = ""
	row["budget"] = ""
	path := writeCSV(t, movieColumns, []map[string]string{row})

	rows, err := CSVMovies{Path: path}.Movies(context.Background())
	if err != nil {
		t.Fatalf("Movies: %v", err)
	}
	m := rows[0]
	if !m.ReleaseDate.IsZero() {
		t.Fatalf("empty release_date should stay zero, got %v", m.ReleaseDate)
	}
	if m.Runtime != nil {
		t.Fatalf("empty runtime should stay nil, got %v", *m.Runtime)
	}
	if m.Budget != 0 {
		t.Fatalf("empty budget should be 0, got %d", m.Budget)
	}
}

func TestCSVMoviesHeaderContract(t *testing.T) {
	cols := make([]string, 0, len(movieColumns)-1)
	for _, c := range movieColumns {
		if c != "genres" {
			cols = append(cols, c)
		}
	}
	path := writeCSV(t, cols, []map[string]string{defaultMovieRow()})

	_, err := CSVMovies{Path: path}.Movies(context.Background())
	if err == nil {
		t.Fatalf("missing genres column should fail the header contract")
	}
	if !strings.Contains(err.Error(), "header contract") || !strings.Contains(err.Error(), "genres") {
		t.Fatalf("err = %v, want header contract naming genres", err)
	}
}

func TestCSVMoviesMalformedScalar(t *testing.T) {
	row := defaultMovieRow()
	row["budget"] = "a lot"
	path := writeCSV(t, movieColumns, []map[string]string{row})

	_, err := CSVMovies{Path: path}.Movies(context.Background())
	if err == nil {
		t.Fatalf("malformed budget should fail")
	}
	if !strings.Contains(err.Error(), "budget") || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want column and line context", err)
	}
}

func TestCSVCreditsHeaderNormalization(t *testing.T) {
	// BOM on the first header cell plus display-style header names.
	raw := "\uFEFFMovie ID,Title,Cast,Crew\n" +
		`19995,Avatar,"[{""cast_id"": 242, ""character"": ""Jake Sully"", ""gender"": 2, ""id"": 65731, ""name"": ""Sam Worthington"", ""order"": 0}]","[]"` + "\n"
	path := filepath.Join(t.TempDir(), "credits.csv")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rows, err := CSVCredits{Path: path}.Credits(context.Background())
	if err != nil {
		t.Fatalf("Credits: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	c := rows[0]
	if c.MovieTMDBID != 19995 || c.Title != "Avatar" {
		t.Fatalf("row = %+v", c)
	}
	if !strings.Contains(c.Cast, "Jake Sully") || c.Crew != "[]" {
		t.Fatalf("payloads = cast %q crew %q", c.Cast, c.Crew)
	}
}

func TestCSVCreditsMissingMovieID(t *testing.T) {
	path := writeCSV(t, creditColumns, []map[string]string{{
		"movie_id": "",
		"title":    "Nameless",
		"cast":     "[]",
		"crew":     "[]",
	}})

	_, err := CSVCredits{Path: path}.Credits(context.Background())
	if err == nil || !strings.Contains(err.Error(), "movie_id") {
		t.Fatalf("err = %v, want empty movie_id rejection", err)
	}
}
