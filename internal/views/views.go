// Package views renders the read-side aggregates analysts query instead of
// the raw tables. Every view is a pure SELECT over the normalized schema;
// the dialect differences are year extraction from a date, float averaging
// and schema qualification, so each body renders per backend kind.
package views

import (
	"fmt"

	"tmdbetl/internal/storage"
)

// Definitions returns the view bodies for one backend kind, in creation
// order. Kinds are the storage backend names (postgres, sqlite, sqlserver);
// an unknown kind gets the postgres rendering. A non-empty schema prefixes
// every relation, except on sqlite where schemas do not exist.
func Definitions(kind, schema string) []storage.View {
	p := ""
	if schema != "" && kind != "sqlite" {
		p = schema + "."
	}
	year := func(column string) string { return yearExpr(kind, column) }
	avg := func(column string) string { return avgExpr(kind, column) }

	return []storage.View{
		{
			Name: "actor_filmographies",
			Body: fmt.Sprintf(`SELECT p.person_id, p.name,
    COUNT(DISTINCT mc.movie_id) AS film_count,
    MIN(%[2]s) AS first_year,
    MAX(%[2]s) AS last_year
FROM %[1]speople p
JOIN %[1]smovie_cast mc ON mc.person_id = p.person_id
JOIN %[1]smovies m ON m.movie_id = mc.movie_id
GROUP BY p.person_id, p.name`, p, year("m.release_date")),
		},
		{
			Name: "director_filmographies",
			Body: fmt.Sprintf(`SELECT p.person_id, p.name, m.movie_id, m.title, m.release_date
FROM %[1]smovie_crew mw
JOIN %[1]sjobs j ON j.job_id = mw.job_id
JOIN %[1]speople p ON p.person_id = mw.person_id
JOIN %[1]smovies m ON m.movie_id = mw.movie_id
WHERE j.name = 'Director'`, p),
		},
		{
			Name: "company_slates",
			Body: fmt.Sprintf(`SELECT c.company_id, c.name,
    COUNT(*) AS film_count,
    SUM(m.budget) AS total_budget,
    SUM(m.revenue) AS total_revenue
FROM %[1]scompanies c
JOIN %[1]smovie_companies mc ON mc.company_id = c.company_id
JOIN %[1]smovies m ON m.movie_id = mc.movie_id
GROUP BY c.company_id, c.name`, p),
		},
		{
			Name: "country_output",
			Body: fmt.Sprintf(`SELECT co.country_code, co.name, COUNT(*) AS film_count
FROM %[1]scountries co
JOIN %[1]smovie_countries mc ON mc.country_code = co.country_code
GROUP BY co.country_code, co.name`, p),
		},
		{
			Name: "language_output",
			Body: fmt.Sprintf(`SELECT l.language_code, l.name, COUNT(*) AS film_count
FROM %[1]slanguages l
JOIN %[1]smovie_languages ml ON ml.language_code = l.language_code
GROUP BY l.language_code, l.name`, p),
		},
		{
			Name: "annual_output",
			Body: fmt.Sprintf(`SELECT %[2]s AS release_year,
    COUNT(*) AS film_count,
    %[3]s AS avg_budget,
    %[4]s AS avg_revenue,
    %[5]s AS avg_runtime
FROM %[1]smovies m
WHERE m.release_date IS NOT NULL
GROUP BY %[2]s`, p,
				year("m.release_date"), avg("m.budget"), avg("m.revenue"), avg("m.runtime")),
		},
	}
}

func yearExpr(kind, column string) string {
	switch kind {
	case "sqlite":
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", column)
	case "sqlserver":
		return fmt.Sprintf("YEAR(%s)", column)
	default:
		return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INT)", column)
	}
}

// avgExpr keeps averages fractional everywhere; sqlserver truncates AVG over
// integer columns unless the operand is cast first.
func avgExpr(kind, column string) string {
	if kind == "sqlserver" {
		return fmt.Sprintf("AVG(CAST(%s AS FLOAT))", column)
	}
	return fmt.Sprintf("AVG(%s)", column)
}
