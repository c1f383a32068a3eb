package storage

// Portable column types. Backends map them onto dialect types (e.g. "real"
// becomes double precision on postgres, REAL on sqlite, FLOAT on sqlserver).
const (
	TypeInt         = "int"
	TypeBigint      = "bigint"
	TypeText        = "text"
	TypeReal        = "real"
	TypeDate        = "date"
	TypeTimestampTZ = "timestamptz"
)

// Ref names the foreign-key target of a column. Every declared reference
// cascades updates and deletes; the cascade is the safety net that keeps
// link rows from outliving their entities.
type Ref struct {
	Table  string
	Column string
}

// Column describes one column of a warehouse table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Ref      *Ref
}

// Table describes one warehouse table: columns, primary key and any extra
// uniqueness constraints. Tables are declared once (internal/warehouse) and
// consumed generically by every backend's DDL builder.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Unique     [][]string
}

// Keyed reports whether the named column participates in the primary key or
// a uniqueness constraint. Backends with bounded index key sizes (sqlserver)
// use this to pick an indexable text type.
func (t Table) Keyed(name string) bool {
	for _, c := range t.PrimaryKey {
		if c == name {
			return true
		}
	}
	for _, u := range t.Unique {
		for _, c := range u {
			if c == name {
				return true
			}
		}
	}
	return false
}

// View is one read-only aggregate view. Body is the SELECT statement,
// already rendered for the target backend's dialect.
type View struct {
	Name string
	Body string
}
