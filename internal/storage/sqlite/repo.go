// Package sqlite implements the warehouse repository on SQLite via the
// modernc.org driver. SQLite has no native DATE or TIMESTAMPTZ storage
// class, so temporal columns are declared TEXT and bound as formatted
// strings for reliable round trips.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tmdbetl/internal/storage"
)

// Repo implements storage.Repository for SQLite. Schema qualification is
// not supported; storage.Config.Schema is ignored.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens the database file and validates connectivity. Foreign key
// enforcement is off by default in SQLite and the pragma that enables it
// is per connection, so the pool is capped at one connection.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

// Close closes the database handle.
func (r *Repo) Close() { _ = r.db.Close() }

// RecreateSchema drops every table in reverse dependency order, then
// creates them fresh in catalog order. SQLite has no DROP ... CASCADE, so
// children must go before their parents.
func (r *Repo) RecreateSchema(ctx context.Context, tables []storage.Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s;", ident(tables[i].Name))
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i].Name, err)
		}
	}
	for _, t := range tables {
		if _, err := r.db.ExecContext(ctx, buildCreateSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// InsertRows bulk-inserts in chunks sized to stay under the host
// parameter limit.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []storage.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	perChunk := rowsPerChunk(len(columns))
	var total int64
	for start := 0; start < len(rows); start += perChunk {
		end := start + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsertSQL(ident(table), columns, rows[start:end])
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("insert %s: %w", table, mapErr(err))
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// CreateViews drops and recreates each view.
func (r *Repo) CreateViews(ctx context.Context, views []storage.View) error {
	for _, v := range views {
		drop := fmt.Sprintf("DROP VIEW IF EXISTS %s;", ident(v.Name))
		if _, err := r.db.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("drop view %s: %w", v.Name, err)
		}
		create := fmt.Sprintf("CREATE VIEW %s AS %s;", ident(v.Name), v.Body)
		if _, err := r.db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create view %s: %w", v.Name, err)
		}
	}
	return nil
}

// mapErr surfaces integrity failures as storage.ErrConstraint. Extended
// result codes carry the primary code in the low byte, so one mask covers
// unique, foreign key and not-null trips alike.
func mapErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %s", storage.ErrConstraint, se.Error())
	}
	return err
}

// SQLite caps host parameters at 32766 per statement by default; stay
// below it.
const maxParams = 32000

func rowsPerChunk(columns int) int {
	if columns == 0 {
		return 1
	}
	n := maxParams / columns
	if n < 1 {
		return 1
	}
	return n
}

// buildInsertSQL constructs one multi-row INSERT and its args. Temporal
// values are bound as TEXT so they round-trip through SQLite's affinity
// rules unchanged.
func buildInsertSQL(table string, columns []storage.Column, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c.Name))
	}
	b.WriteString(") VALUES ")

	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		for j, c := range columns {
			args = append(args, bindValue(c.Type, row[j]))
		}
	}
	b.WriteString(";")
	return b.String(), args
}

// bindValue rewrites time values as strings. RFC 3339 text sorts and
// compares correctly and the strftime family parses it.
func bindValue(portable string, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if portable == storage.TypeDate {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// buildCreateSQL renders the CREATE TABLE DDL for one table. The
// REFERENCES clauses are only enforced because New switches the
// foreign_keys pragma on.
func buildCreateSQL(t storage.Table) string {
	defs := make([]string, 0, len(t.Columns)+1+len(t.Unique))
	for _, c := range t.Columns {
		var d strings.Builder
		d.WriteString(ident(c.Name))
		d.WriteString(" ")
		d.WriteString(columnType(c.Type))
		if !c.Nullable {
			d.WriteString(" NOT NULL")
		}
		if c.Ref != nil {
			fmt.Fprintf(&d, " REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE CASCADE",
				ident(c.Ref.Table), ident(c.Ref.Column))
		}
		defs = append(defs, d.String())
	}
	defs = append(defs, "PRIMARY KEY ("+identList(t.PrimaryKey)+")")
	for _, u := range t.Unique {
		defs = append(defs, "UNIQUE ("+identList(u)+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", ident(t.Name), strings.Join(defs, ", "))
}

// columnType maps portable types onto SQLite's affinity system. INTEGER
// holds eight bytes, so it covers both integer widths; temporal columns
// get TEXT affinity to match the strings bindValue produces.
func columnType(portable string) string {
	switch portable {
	case storage.TypeInt, storage.TypeBigint:
		return "INTEGER"
	case storage.TypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}
	return strings.Join(quoted, ", ")
}
