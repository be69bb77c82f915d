package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/vango-dev/nestroute/internal/config"
	"github.com/vango-dev/nestroute/internal/errors"
	"github.com/vango-dev/nestroute/pkg/manifest"
)

// loadConfig reads the configured file, or ./routerd.json, or falls back
// to the defaults when neither exists.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.Load(".")
		var rerr *errors.RouterdError
		if stderrors.As(err, &rerr) && rerr.Code == "R101" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if flags.manifest != "" {
		cfg.Manifest.Source = flags.manifest
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadManifest fetches and validates the manifest cfg points to.
func loadManifest(ctx context.Context, cfg *config.Config) (*manifest.Manifest, error) {
	m, err := manifest.Load(ctx, cfg.ManifestPath(), manifest.LoadOptions{
		Region:   cfg.Manifest.Region,
		Endpoint: cfg.Manifest.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, &manifestError{source: m.Source, err: err}
	}
	return m, nil
}

// manifestError carries validation problems to report.
type manifestError struct {
	source string
	err    error
}

func (e *manifestError) Error() string { return e.err.Error() }
func (e *manifestError) Unwrap() error { return e.err }

// report prints err for a terminal. Manifest problems are printed one by
// one with their source location.
func report(w io.Writer, err error) {
	var merr *manifestError
	if stderrors.As(err, &merr) {
		problems := manifest.Problems(merr.err)
		for _, p := range problems {
			fmt.Fprint(w, p.RouterdError(merr.source).Format())
			fmt.Fprintln(w)
		}
		if len(problems) > 0 {
			fmt.Fprintf(w, "%d manifest problem(s) in %s\n", len(problems), merr.source)
			return
		}
	}
	errors.Fprint(w, err)
}
