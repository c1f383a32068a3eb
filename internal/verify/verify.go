// Package verify proves a snapshot against every constraint the warehouse
// declares before anything touches a database. The declared schema is the
// single source of truth: the checks walk the catalog generically, so a new
// table or constraint is verified the moment it is declared. Database
// constraints still exist, but as a backstop; a violation is a bug in the
// build and surfaces here first, with row-level context no driver error
// carries.
package verify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tmdbetl/internal/storage"
	"tmdbetl/internal/warehouse"
)

// ErrIntegrityViolation reports a snapshot breaking a declared constraint.
// Always a bug in the pipeline, never a data-quality finding; the build
// aborts before writing.
var ErrIntegrityViolation = errors.New("integrity violation")

// Snapshot checks every catalog table: column arity and value types, NOT
// NULL, primary-key and unique-set uniqueness, dense surrogate sequences,
// and reference closure. Tables verify in catalog (dependency) order, so a
// referenced value set is always complete before anything points at it.
func Snapshot(snap *warehouse.Snapshot) error {
	bindings := warehouse.Catalog()

	// Columns that some later table references; only these accumulate
	// value sets.
	referenced := make(map[string]map[string]bool)
	for _, b := range bindings {
		for _, col := range b.Columns {
			if col.Ref == nil {
				continue
			}
			cols := referenced[col.Ref.Table]
			if cols == nil {
				cols = make(map[string]bool)
				referenced[col.Ref.Table] = cols
			}
			cols[col.Ref.Column] = true
		}
	}

	seen := make(map[string]map[string]map[string]bool) // table -> column -> value keys
	for _, b := range bindings {
		rows := b.Rows(snap)
		if err := verifyTable(b, rows, seen); err != nil {
			return err
		}
		if cols := referenced[b.Name]; len(cols) > 0 {
			seen[b.Name] = collectValues(b, rows, cols)
		}
	}
	return nil
}

func verifyTable(b warehouse.Binding, rows [][]any, seen map[string]map[string]map[string]bool) error {
	idx := make(map[string]int, len(b.Columns))
	for i, col := range b.Columns {
		idx[col.Name] = i
	}

	pkCols, err := columnPositions(b.Table, idx, b.PrimaryKey)
	if err != nil {
		return err
	}
	var uniqueSets [][]int
	for _, u := range b.Unique {
		cols, err := columnPositions(b.Table, idx, u)
		if err != nil {
			return err
		}
		uniqueSets = append(uniqueSets, cols)
	}

	pkSeen := make(map[string]bool, len(rows))
	uniqueSeen := make([]map[string]bool, len(uniqueSets))
	for i := range uniqueSeen {
		uniqueSeen[i] = make(map[string]bool, len(rows))
	}

	for rowNo, row := range rows {
		if len(row) != len(b.Columns) {
			return violation(b.Name, "row %d has %d values for %d columns", rowNo, len(row), len(b.Columns))
		}

		for i, col := range b.Columns {
			v := row[i]
			if v == nil {
				if !col.Nullable {
					return violation(b.Name, "row %d: column %s is required", rowNo, col.Name)
				}
				continue
			}
			if !typeOK(v, col.Type) {
				return violation(b.Name, "row %d: column %s holds %T, want %s", rowNo, col.Name, v, col.Type)
			}
			if col.Ref != nil {
				values := seen[col.Ref.Table][col.Ref.Column]
				if !values[valueKey(v)] {
					return violation(b.Name, "row %d: column %s value %v has no %s.%s row",
						rowNo, col.Name, v, col.Ref.Table, col.Ref.Column)
				}
			}
		}

		pk := tupleKey(row, pkCols)
		if pkSeen[pk] {
			return violation(b.Name, "row %d repeats primary key (%s)", rowNo, describeTuple(b.Columns, row, pkCols))
		}
		pkSeen[pk] = true
		for u, cols := range uniqueSets {
			if anyNil(row, cols) {
				continue
			}
			key := tupleKey(row, cols)
			if uniqueSeen[u][key] {
				return violation(b.Name, "row %d repeats unique set (%s)", rowNo, describeTuple(b.Columns, row, cols))
			}
			uniqueSeen[u][key] = true
		}

		if b.DensePK {
			id, ok := row[pkCols[0]].(int64)
			if !ok || id != int64(rowNo+1) {
				return violation(b.Name, "row %d carries id %v, want dense sequence value %d", rowNo, row[pkCols[0]], rowNo+1)
			}
		}
	}
	return nil
}

func columnPositions(t storage.Table, idx map[string]int, names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, violation(t.Name, "constraint names unknown column %s", name)
		}
		out = append(out, i)
	}
	return out, nil
}

func collectValues(b warehouse.Binding, rows [][]any, cols map[string]bool) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(cols))
	positions := make(map[string]int, len(cols))
	for i, col := range b.Columns {
		if cols[col.Name] {
			positions[col.Name] = i
			out[col.Name] = make(map[string]bool, len(rows))
		}
	}
	for _, row := range rows {
		for name, i := range positions {
			if row[i] != nil {
				out[name][valueKey(row[i])] = true
			}
		}
	}
	return out
}

func anyNil(row []any, cols []int) bool {
	for _, i := range cols {
		if row[i] == nil {
			return true
		}
	}
	return false
}

func tupleKey(row []any, cols []int) string {
	var b strings.Builder
	for n, i := range cols {
		if n > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(valueKey(row[i]))
	}
	return b.String()
}

// valueKey converts one column value to a canonical string form so composite
// keys and reference lookups compare consistently whatever concrete type the
// projection produced.
func valueKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func describeTuple(columns []storage.Column, row []any, cols []int) string {
	parts := make([]string, 0, len(cols))
	for _, i := range cols {
		parts = append(parts, fmt.Sprintf("%s=%v", columns[i].Name, row[i]))
	}
	return strings.Join(parts, ", ")
}

func typeOK(v any, columnType string) bool {
	switch columnType {
	case storage.TypeInt, storage.TypeBigint:
		_, ok := v.(int64)
		return ok
	case storage.TypeText:
		_, ok := v.(string)
		return ok
	case storage.TypeReal:
		_, ok := v.(float64)
		return ok
	case storage.TypeDate, storage.TypeTimestampTZ:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

func violation(table, format string, v ...any) error {
	return fmt.Errorf("%w: table %s: "+format, append([]any{ErrIntegrityViolation, table}, v...)...)
}
