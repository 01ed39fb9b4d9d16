// Package resolver runs the conflict rewrite over a list of files and collects one
// result per file. A failing file never stops the batch.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/corpeningc/maintkit/internal/git"
	"golang.org/x/sync/errgroup"
)

// DefaultTargets are the frontend files the resolver was first written for.
var DefaultTargets = []string{
	"frontend/src/components/PatientPage.jsx",
	"frontend/src/core/event-bus.js",
	"frontend/src/lib/dynamic-pathways.js",
}

type Config struct {
	BaseDir     string
	TargetPaths []string
	Jobs        int
	DryRun      bool
	Heuristic   git.Heuristic
}

// Result pairs a target as it was listed with the outcome for its resolved path.
type Result struct {
	Target string
	git.FileResult
}

// Path joins a relative target onto BaseDir.
func (c Config) Path(target string) string {
	if filepath.IsAbs(target) || c.BaseDir == "" {
		return target
	}
	return filepath.Join(c.BaseDir, target)
}

// Run attempts every target and returns results in target order.
func Run(ctx context.Context, cfg Config) []Result {
	results := make([]Result, len(cfg.TargetPaths))
	for i, target := range cfg.TargetPaths {
		results[i] = Result{
			Target:     target,
			FileResult: git.FileResult{Path: cfg.Path(target)},
		}
	}

	opts := git.RewriteOptions{Heuristic: cfg.Heuristic, DryRun: cfg.DryRun}

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	g := &errgroup.Group{}
	g.SetLimit(jobs)

	for i := range results {
		if err := ctx.Err(); err != nil {
			results[i].Status = git.StatusError
			results[i].Err = fmt.Errorf("not processed: %w", err)
			continue
		}

		g.Go(func() error {
			path := results[i].Path
			slog.Debug("resolve", "path", path)

			res := git.RewriteFile(path, opts)
			results[i].FileResult = res

			switch {
			case errors.Is(res.Err, git.ErrNotFound):
				slog.Debug("resolve skipped", "path", path, "reason", "missing")
			case res.Err != nil:
				slog.Warn("resolve failed", "path", path, "error", res.Err)
			case res.Status == git.StatusResolved:
				slog.Debug("resolve done", "path", path, "sections", len(res.Resolutions), "dryRun", cfg.DryRun)
			}
			// per-file failures are reported through results
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Resolved returns the targets whose files were rewritten.
func Resolved(results []Result) []string {
	var targets []string
	for _, r := range results {
		if r.Status == git.StatusResolved {
			targets = append(targets, r.Target)
		}
	}
	return targets
}
