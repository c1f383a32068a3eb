package probe

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders the report as the aligned text block the CLI prints.
func Format(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "movies\trows=%d duplicate_ids=%d missing_runtime=%d missing_release=%d",
		r.Movies.Rows, len(r.Movies.DuplicateIDs), r.Movies.MissingRuntime, r.Movies.MissingRelease)
	if !r.Movies.FirstRelease.IsZero() {
		fmt.Fprintf(&b, " releases=%s..%s",
			r.Movies.FirstRelease.Format("2006-01-02"), r.Movies.LastRelease.Format("2006-01-02"))
	}
	b.WriteByte('\n')
	for _, s := range sortedKeys(r.Movies.UnknownStatuses) {
		fmt.Fprintf(&b, "movies\tunknown status %q on %d rows\n", s, r.Movies.UnknownStatuses[s])
	}
	for _, col := range sortedKeys(r.Movies.Malformed) {
		fmt.Fprintf(&b, "movies\tmalformed %s on %d rows\n", col, r.Movies.Malformed[col])
	}

	fmt.Fprintf(&b, "credits\trows=%d duplicate_movie_ids=%d cast_entries=%d crew_entries=%d\n",
		r.Credits.Rows, len(r.Credits.DuplicateMovieIDs), r.Credits.CastEntries, r.Credits.CrewEntries)
	for _, col := range sortedKeys(r.Credits.Malformed) {
		fmt.Fprintf(&b, "credits\tmalformed %s on %d rows\n", col, r.Credits.Malformed[col])
	}

	fmt.Fprintf(&b, "link\torphan_credits=%d uncredited_movies=%d\n", r.OrphanCredits, r.UncreditedMovies)

	b.WriteString("entities:\n")
	for _, e := range r.Entities {
		fmt.Fprintf(&b, "%-15s\t%d\n", e.Name, e.Distinct)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
