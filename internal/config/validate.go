package config

import "fmt"

// Severity classifies a validation finding. Errors block a run; warnings are
// reported and ignored.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, located by a dotted config path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// knownBackends mirrors the backends registered by internal/storage/all.
// Validation only warns on an unknown kind; the storage factory is the
// authority and fails with the registered list at run time.
var knownBackends = map[string]bool{
	"postgres":  true,
	"sqlite":    true,
	"sqlserver": true,
}

// ValidatePipeline checks a pipeline config for structural problems without
// touching the filesystem or the network.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	addErr := func(path, format string, v ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, v...)})
	}
	addWarn := func(path, format string, v ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, v...)})
	}

	if p.Job == "" {
		addWarn("job", "empty; metrics job name falls back to the default")
	}

	if p.Source.Movies.Path == "" {
		addErr("source.movies.path", "required")
	}
	if p.Source.Credits.Path == "" {
		addErr("source.credits.path", "required")
	}
	if p.Source.Movies.Path != "" && p.Source.Movies.Path == p.Source.Credits.Path {
		addErr("source.credits.path", "must differ from source.movies.path")
	}

	if p.Storage.Kind == "" {
		addErr("storage.kind", "required")
	} else if !knownBackends[p.Storage.Kind] {
		addWarn("storage.kind", "unrecognized backend %q (known: postgres, sqlite, sqlserver)", p.Storage.Kind)
	}
	if p.Storage.DSN == "" {
		addErr("storage.dsn", "required")
	}
	if p.Storage.Schema != "" && p.Storage.Kind == "sqlite" {
		addWarn("storage.schema", "sqlite has no schemas; value is ignored")
	}

	return issues
}
