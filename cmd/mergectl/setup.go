package main

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/mergectl/internal/observability"
	"github.com/rs/zerolog/log"
)

func (a *app) setup(ctx context.Context, args []string) error {
	var common commonFlags
	var metricsFile string
	fs := a.flagSet("setup")
	common.add(fs)
	fs.StringVar(&metricsFile, "metrics-file", "", "write prometheus text metrics to this path when done")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	t, err := a.resolve(cfg)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	plan, err := a.plan(t)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	log.Info().Str("workspace", cfg.WorkspaceRoot).Int("resources", len(plan.Resources())).Msg("setup started")
	start := time.Now()
	results, applyErr := plan.Apply(ctx)
	for _, r := range results {
		fmt.Fprintf(a.stdout, "%-28s %-8s %s\n", r.ID, r.Outcome, r.Duration.Round(time.Millisecond))
	}

	if metricsFile != "" {
		if err := observability.WriteTextfile(metricsFile); err != nil {
			log.Warn().Err(err).Str("path", metricsFile).Msg("metrics textfile not written")
		}
	}

	if applyErr != nil {
		log.Error().Err(applyErr).Msg("setup failed; fix the cause and re-run setup")
		return &exitError{code: 1, err: applyErr}
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("setup complete")
	fmt.Fprintln(a.stdout, "setup complete: run `mergectl launch` to start the application")
	return nil
}
