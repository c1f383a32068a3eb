// Package pipeline runs one full warehouse rebuild as an ordered sequence
// of fail-fast stages. Surrogate assignment depends on first-sighting
// order, so the build stages are single-threaded, and the database is only
// touched after the snapshot has verified in memory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tmdbetl/internal/config"
	"tmdbetl/internal/extract"
	"tmdbetl/internal/merge"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/normalize"
	"tmdbetl/internal/storage"
	"tmdbetl/internal/verify"
	"tmdbetl/internal/views"
	"tmdbetl/internal/warehouse"
)

// Logger is the minimal logging interface used by the runner. *log.Logger
// satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Runner executes full rebuilds. Construct with NewDefaultRunner; the seams
// exist so tests can run a build without files or a database.
type Runner struct {
	// NewRepository is the storage factory seam.
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// Movies and Credits are optional extract seams. When nil, the
	// config's CSV paths are read.
	Movies  extract.MovieSource
	Credits extract.CreditSource

	Logger Logger

	// BuildID labels the run in logs and in the etl_build row. Empty
	// means a fresh UUID is generated per run.
	BuildID string

	now func() time.Time
}

func NewDefaultRunner() *Runner {
	return &Runner{
		NewRepository: func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
			return storage.New(ctx, cfg)
		},
	}
}

// Run executes one full rebuild described by cfg. Stages run in dependency
// order; the first error aborts the build.
func (r *Runner) Run(ctx context.Context, cfg config.Pipeline) error {
	logf := r.logf()

	buildID := r.buildID()
	logf("build=%s job=%s storage=%s", buildID, cfg.Job, cfg.Storage.Kind)

	snap, err := r.build(ctx, cfg, buildID, logf)
	if err != nil {
		return err
	}
	return r.write(ctx, cfg, snap, logf)
}

// build produces the verified snapshot of one run. Everything up to and
// including verification is pure computation on extracted rows.
func (r *Runner) build(ctx context.Context, cfg config.Pipeline, buildID string, logf func(string, ...any)) (*warehouse.Snapshot, error) {
	var (
		rawMovies  []extract.RawMovie
		rawCredits []extract.RawCredit
	)
	if err := r.stage(logf, "extract_probe", func() error {
		var err error
		if rawMovies, err = r.movieSource(cfg).Movies(ctx); err != nil {
			return err
		}
		rawCredits, err = r.creditSource(cfg).Credits(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	logf("extract movies=%d credits=%d", len(rawMovies), len(rawCredits))

	var movies []normalize.UnpackedMovie
	if err := r.stage(logf, "unpack_movies", func() error {
		var err error
		movies, err = normalize.UnpackMovies(rawMovies)
		return err
	}); err != nil {
		return nil, err
	}

	var credits []normalize.UnpackedCredit
	if err := r.stage(logf, "unpack_credits", func() error {
		var err error
		credits, err = normalize.UnpackCredits(rawCredits)
		return err
	}); err != nil {
		return nil, err
	}

	var ents *normalize.Entities
	if err := r.stage(logf, "resolve_entities", func() error {
		var err error
		ents, err = normalize.ResolveEntities(movies, credits)
		return err
	}); err != nil {
		return nil, err
	}

	var ppl *normalize.People
	if err := r.stage(logf, "classify_people", func() error {
		var err error
		ppl, err = normalize.ClassifyPeople(credits)
		return err
	}); err != nil {
		return nil, err
	}

	var links *normalize.Links
	if err := r.stage(logf, "materialize_links", func() error {
		var err error
		links, err = normalize.MaterializeLinks(movies, credits, ents, ppl)
		return err
	}); err != nil {
		return nil, err
	}

	if path := cfg.Merge.CompaniesPath; path != "" {
		if err := r.stage(logf, "merge_companies", func() error {
			ds, err := merge.Load(path)
			if err != nil {
				return err
			}
			res, err := merge.Companies(ds, ents, links)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				logf("merge warning: %s", w)
			}
			logf("merge dataset=%s folded=%d", ds.Version, res.Folded)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	snap := normalize.Assemble(ents, ppl, links)
	snap.BuildID = buildID
	snap.BuiltAt = r.timestamp()
	snap.SourceMovies = len(rawMovies)
	snap.SourceCredits = len(rawCredits)

	if err := r.stage(logf, "verify", func() error {
		return verify.Snapshot(snap)
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

// write recreates the target schema and loads the snapshot in catalog
// order, then installs the views unless the config disabled them.
func (r *Runner) write(ctx context.Context, cfg config.Pipeline, snap *warehouse.Snapshot, logf func(string, ...any)) error {
	repo, err := r.NewRepository(ctx, storage.Config{
		Kind:   cfg.Storage.Kind,
		DSN:    cfg.Storage.ExpandedDSN(),
		Schema: cfg.Storage.Schema,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	bindings := warehouse.Catalog()

	if err := r.stage(logf, "write_schema", func() error {
		tables := make([]storage.Table, 0, len(bindings))
		for _, b := range bindings {
			tables = append(tables, b.Table)
		}
		if err := repo.RecreateSchema(ctx, tables); err != nil {
			return err
		}

		var total int64
		for _, b := range bindings {
			n, err := repo.InsertRows(ctx, b.Name, b.Columns, b.Rows(snap))
			if err != nil {
				// The snapshot already verified, so a database constraint
				// trip means the backend and the catalog disagree.
				if errors.Is(err, storage.ErrConstraint) {
					return fmt.Errorf("%w: %v", verify.ErrIntegrityViolation, err)
				}
				return err
			}
			metrics.RecordRows(b.Name, n)
			total += n
		}
		logf("write tables=%d rows=%d", len(bindings), total)
		return nil
	}); err != nil {
		return err
	}

	if !cfg.Storage.CreateViews() {
		return nil
	}
	return r.stage(logf, "create_views", func() error {
		return repo.CreateViews(ctx, views.Definitions(cfg.Storage.Kind, cfg.Storage.Schema))
	})
}

// stage times fn, records the outcome, and fails the build on error.
func (r *Runner) stage(logf func(string, ...any), name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logf("stage=%s ok duration=%s", name, durMS(start))
	return nil
}

func (r *Runner) logf() func(format string, v ...any) {
	if r.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return r.Logger.Printf
}

func (r *Runner) movieSource(cfg config.Pipeline) extract.MovieSource {
	if r.Movies != nil {
		return r.Movies
	}
	return extract.CSVMovies{Path: cfg.Source.Movies.Path, Options: cfg.Source.Movies.Options}
}

func (r *Runner) creditSource(cfg config.Pipeline) extract.CreditSource {
	if r.Credits != nil {
		return r.Credits
	}
	return extract.CSVCredits{Path: cfg.Source.Credits.Path, Options: cfg.Source.Credits.Options}
}

func (r *Runner) buildID() string {
	if r.BuildID != "" {
		return r.BuildID
	}
	return uuid.NewString()
}

func (r *Runner) timestamp() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) { return len(p), nil }
