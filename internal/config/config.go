// Package config defines the pipeline configuration surface shared by the CLI
// and the build orchestration: where the two raw extracts live, where the
// company-equivalence dataset lives, and which storage backend receives the
// rebuilt schema.
package config

import "os"

// Pipeline is the top-level config document, decoded straight from JSON.
type Pipeline struct {
	// Job names the build for metrics and logging (job:<name> tags).
	Job string `json:"job"`

	Source  Source  `json:"source"`
	Merge   Merge   `json:"merge"`
	Storage Storage `json:"storage"`
}

// Source points at the two raw extracts. Both are required; every build is a
// full rebuild from exactly these two files.
type Source struct {
	Movies  File `json:"movies"`
	Credits File `json:"credits"`
}

// File is one delimited input file plus parser options (comma, lazy_quotes,
// header_map, trim_space).
type File struct {
	Path    string  `json:"path"`
	Options Options `json:"options,omitempty"`
}

// Merge configures the duplicate-company merge stage.
type Merge struct {
	// CompaniesPath points at the versioned company-equivalence dataset
	// (JSON). Empty disables the merge stage.
	CompaniesPath string `json:"companies_path,omitempty"`
}

// Storage selects the destination backend for the rebuilt schema.
type Storage struct {
	// Kind selects a registered backend: postgres, sqlite, sqlserver.
	Kind string `json:"kind"`

	// DSN is expanded with os.ExpandEnv before use, so secrets can stay in
	// the environment.
	DSN string `json:"dsn"`

	// Schema qualifies table names on backends that support schemas
	// (postgres, sqlserver). Ignored by sqlite.
	Schema string `json:"schema,omitempty"`

	// Views controls creation of the read-only aggregate views after the
	// base tables are written. Defaults to true.
	Views *bool `json:"views,omitempty"`

	Options Options `json:"options,omitempty"`
}

// ExpandedDSN returns the DSN with ${VAR} references resolved from the
// environment.
func (s Storage) ExpandedDSN() string { return os.ExpandEnv(s.DSN) }

// CreateViews reports whether the gold views should be created.
func (s Storage) CreateViews() bool { return s.Views == nil || *s.Views }
