// Package postgres implements the warehouse repository on PostgreSQL via
// pgx. All SQL is generated from the declared table catalog; the builders
// are pure functions so statement shape is testable without a database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tmdbetl/internal/storage"
)

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool   *pgxpool.Pool
	schema string
}

// New opens a pgx pool and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool, schema: schemaName(cfg.Schema)}, nil
}

func schemaName(s string) string {
	if s == "" {
		return "public"
	}
	return s
}

// Close closes the connection pool.
func (r *Repo) Close() { r.pool.Close() }

// RecreateSchema drops every table in reverse dependency order, then creates
// them fresh in catalog order. DROP ... CASCADE takes dependent views with
// it, so a rerun never sees leftovers.
func (r *Repo) RecreateSchema(ctx context.Context, tables []storage.Table) error {
	if r.schema != "public" {
		stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", ident(r.schema))
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema %s: %w", r.schema, err)
		}
	}
	for i := len(tables) - 1; i >= 0; i-- {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", qualify(r.schema, tables[i].Name))
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i].Name, err)
		}
	}
	for _, t := range tables {
		if _, err := r.pool.Exec(ctx, buildCreateSQL(r.schema, t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// InsertRows bulk-inserts in chunks sized to stay under the protocol's
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
		sql, args := buildInsertSQL(qualify(r.schema, table), columns, rows[start:end])
		cmd, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			return total, fmt.Errorf("insert %s: %w", table, mapErr(err))
		}
		total += cmd.RowsAffected()
	}
	return total, nil
}

// CreateViews drops and recreates each view.
func (r *Repo) CreateViews(ctx context.Context, views []storage.View) error {
	for _, v := range views {
		drop := fmt.Sprintf("DROP VIEW IF EXISTS %s;", qualify(r.schema, v.Name))
		if _, err := r.pool.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop view %s: %w", v.Name, err)
		}
		create := fmt.Sprintf("CREATE VIEW %s AS %s;", qualify(r.schema, v.Name), v.Body)
		if _, err := r.pool.Exec(ctx, create); err != nil {
			return fmt.Errorf("create view %s: %w", v.Name, err)
		}
	}
	return nil
}

// mapErr surfaces integrity failures as storage.ErrConstraint. SQLSTATE
// class 23 covers unique, foreign key, not-null and check violations.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", storage.ErrConstraint, pgErr.Message)
	}
	return err
}

// Postgres caps bind parameters per statement at 65535; stay well below it.
const maxParams = 60000

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

// buildInsertSQL constructs one multi-row INSERT and its args.
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

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), args
}

// buildCreateSQL renders CREATE TABLE for one declared table.
func buildCreateSQL(schema string, t storage.Table) string {
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
				qualify(schema, c.Ref.Table), ident(c.Ref.Column))
		}
		defs = append(defs, d.String())
	}
	defs = append(defs, "PRIMARY KEY ("+identList(t.PrimaryKey)+")")
	for _, u := range t.Unique {
		defs = append(defs, "UNIQUE ("+identList(u)+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", qualify(schema, t.Name), strings.Join(defs, ", "))
}

func columnType(portable string) string {
	switch portable {
	case storage.TypeInt:
		return "INTEGER"
	case storage.TypeBigint:
		return "BIGINT"
	case storage.TypeReal:
		return "DOUBLE PRECISION"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeTimestampTZ:
		return "TIMESTAMPTZ"
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

func qualify(schema, name string) string {
	return ident(schema) + "." + ident(name)
}
