// Command tmdbprobe inspects the raw TMDB extracts and reports what a
// warehouse build would find, without touching any database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tmdbetl/internal/config"
	"tmdbetl/internal/extract"
	"tmdbetl/internal/probe"
)

func main() {
	cfgPath := flag.String("config", "", "pipeline config file supplying the extract paths")
	moviesPath := flag.String("movies", "", "movies extract path (overrides the config)")
	creditsPath := flag.String("credits", "", "credits extract path (overrides the config)")
	asJSON := flag.Bool("json", false, "emit the report as JSON")
	flag.Parse()

	var p config.Pipeline
	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
		err = json.NewDecoder(f).Decode(&p)
		f.Close()
		if err != nil {
			fatalf("parse %s: %v", *cfgPath, err)
		}
	}
	if *moviesPath != "" {
		p.Source.Movies.Path = *moviesPath
	}
	if *creditsPath != "" {
		p.Source.Credits.Path = *creditsPath
	}
	if p.Source.Movies.Path == "" || p.Source.Credits.Path == "" {
		fatalf("both extracts are required; pass -config or -movies and -credits")
	}

	rep, err := probe.Extracts(context.Background(),
		extract.CSVMovies{Path: p.Source.Movies.Path, Options: p.Source.Movies.Options},
		extract.CSVCredits{Path: p.Source.Credits.Path, Options: p.Source.Credits.Options},
	)
	if err != nil {
		fatalf("%v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fatalf("encode report: %v", err)
		}
		return
	}
	fmt.Println(probe.Format(rep))
}

func fatalf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}
