// Command tmdbetl rebuilds the movie warehouse from the raw TMDB extracts.
//
// The pipeline config names the source CSVs, the optional company
// equivalence dataset and the target database. Metrics go to a Prometheus
// Pushgateway by default; -metrics-backend selects datadog or none.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"tmdbetl/internal/config"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/metrics/datadog"
	"tmdbetl/internal/metrics/prompush"
	"tmdbetl/internal/pipeline"

	// register all backends with the storage factory.
	_ "tmdbetl/internal/storage/all"
)

func main() {
	cfgPath := flag.String("config", "configs/pipelines/sample.json", "pipeline config file")
	validateOnly := flag.Bool("validate", false, "validate the config and exit")
	metricsBackend := flag.String("metrics-backend", "pushgateway", "metrics backend: pushgateway, datadog or none")
	pushgatewayURL := flag.String("pushgateway-url", "http://localhost:9091", "pushgateway base url")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	f, err := os.Open(*cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	var p config.Pipeline
	err = json.NewDecoder(f).Decode(&p)
	f.Close()
	if err != nil {
		fatalf("parse %s: %v", *cfgPath, err)
	}

	hasError := false
	for _, iss := range config.ValidatePipeline(p) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", *cfgPath)
		os.Exit(1)
	}
	if *validateOnly {
		log.Printf("Configuration is valid: %v", *cfgPath)
		os.Exit(0)
	}

	// One id names the run everywhere: the build log line, the etl_build
	// row and the datadog run tag.
	buildID := uuid.NewString()

	backendName := *metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := *pushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		jobName := p.Job
		if jobName == "" {
			jobName = "tmdb_warehouse"
		}
		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}
	case "datadog":
		tags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    p.Job,
			Tags:       append(tags, "run:"+buildID),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			metrics.SetBackend(b)
			defer b.Close()
		}
	case "", "none":
		if *verbose {
			log.Printf("metrics disabled")
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	r := pipeline.NewDefaultRunner()
	r.BuildID = buildID
	if *verbose {
		r.Logger = log.Default()
	}

	ctx := context.Background()
	start := time.Now()
	if err := r.Run(ctx, p); err != nil {
		fatalf("%v", err)
	}
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}
