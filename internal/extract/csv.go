package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"tmdbetl/internal/config"
)

// movieColumns is the header contract of the movies extract. Every column is
// consumed, so every column is required.
var movieColumns = []string{
	"budget", "genres", "homepage", "id", "keywords", "original_language",
	"original_title", "overview", "popularity", "production_companies",
	"production_countries", "release_date", "revenue", "runtime",
	"spoken_languages", "status", "tagline", "title", "vote_average",
	"vote_count",
}

// creditColumns is the header contract of the credits extract.
var creditColumns = []string{"movie_id", "title", "cast", "crew"}

// CSVMovies reads the movies extract from a delimited file.
type CSVMovies struct {
	Path    string
	Options config.Options
}

// CSVCredits reads the credits extract from a delimited file.
type CSVCredits struct {
	Path    string
	Options config.Options
}

func (s CSVMovies) Movies(ctx context.Context) ([]RawMovie, error) {
	var out []RawMovie
	err := scanCSV(ctx, s.Path, s.Options, movieColumns, func(line int, get func(string) string) error {
		m, err := parseMovie(line, get)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return out, nil
}

func (s CSVCredits) Credits(ctx context.Context) ([]RawCredit, error) {
	var out []RawCredit
	err := scanCSV(ctx, s.Path, s.Options, creditColumns, func(line int, get func(string) string) error {
		id, err := reqInt(line, "movie_id", get("movie_id"))
		if err != nil {
			return err
		}
		out = append(out, RawCredit{
			Line:        line,
			MovieTMDBID: id,
			Title:       get("title"),
			Cast:        get("cast"),
			Crew:        get("crew"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return out, nil
}

// scanCSV walks a delimited file row by row. Headers are normalized (edge
// space trimmed, a UTF-8 BOM on the first column stripped, then lowercased
// with spaces collapsed to underscores, with header_map overrides applied
// first). Every column in required must be present or the scan fails before
// any row work starts.
//
// fn receives the 1-based physical line and an accessor returning the
// trimmed cell value for a normalized column name ("" when absent).
func scanCSV(
	ctx context.Context,
	path string,
	opt config.Options,
	required []string,
	fn func(line int, get func(string) string) error,
) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")

	line := 0
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	hdr, err := readRec()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	colIx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if mapped, ok := hm[h]; ok {
			h = mapped
		} else {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		colIx[h] = i
	}

	var missing []string
	for _, c := range required {
		if _, ok := colIx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("header contract: missing columns %v", missing)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := readRec()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := colIx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			v := rec[i]
			if trim {
				v = strings.TrimSpace(v)
			}
			return v
		}

		if err := fn(line, get); err != nil {
			return err
		}
	}
}

func parseMovie(line int, get func(string) string) (RawMovie, error) {
	m := RawMovie{
		Line:             line,
		Title:            get("title"),
		OriginalTitle:    get("original_title"),
		OriginalLanguage: get("original_language"),
		Status:           get("status"),
		Homepage:         get("homepage"),
		Overview:         get("overview"),
		Tagline:          get("tagline"),
		Genres:           get("genres"),
		Keywords:         get("keywords"),
		Companies:        get("production_companies"),
		Countries:        get("production_countries"),
		Languages:        get("spoken_languages"),
	}

	var err error
	if m.TMDBID, err = reqInt(line, "id", get("id")); err != nil {
		return m, err
	}
	if m.Title == "" {
		return m, fmt.Errorf("line %d: column title: empty", line)
	}
	if m.Budget, err = optInt(line, "budget", get("budget")); err != nil {
		return m, err
	}
	if m.Revenue, err = optInt(line, "revenue", get("revenue")); err != nil {
		return m, err
	}
	if m.VoteCount, err = optInt(line, "vote_count", get("vote_count")); err != nil {
		return m, err
	}
	if m.Popularity, err = optFloat(line, "popularity", get("popularity")); err != nil {
		return m, err
	}
	if m.VoteAverage, err = optFloat(line, "vote_average", get("vote_average")); err != nil {
		return m, err
	}

	if v := get("runtime"); v != "" {
		// runtime arrives as "93.0" in some extracts
		fv, err := optFloat(line, "runtime", v)
		if err != nil {
			return m, err
		}
		n := int64(fv)
		m.Runtime = &n
	}

	if v := get("release_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return m, fmt.Errorf("line %d: column release_date: %v", line, err)
		}
		m.ReleaseDate = t
	}

	return m, nil
}

func reqInt(line int, col, v string) (int64, error) {
	if v == "" {
		return 0, fmt.Errorf("line %d: column %s: empty", line, col)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %v", line, col, err)
	}
	return n, nil
}

func optInt(line int, col, v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %v", line, col, err)
	}
	return n, nil
}

func optFloat(line int, col, v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %v", line, col, err)
	}
	return f, nil
}
