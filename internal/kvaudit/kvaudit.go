// Package kvaudit finds API handlers that still call the legacy KV store and stamps
// them with a marker comment so they can be migrated by hand.
package kvaudit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	MigratedMarker = "// MIGRATED"
	NeedsMarker    = "// NEEDS_SUPABASE_MIGRATION"
)

var (
	DefaultPatterns = []string{"**/*.ts", "**/*.js"}
	DefaultCalls    = []string{"context.env.KV.", "KV.get(", "KV.put(", "KV.delete("}
)

var ErrNoAPIDir = errors.New("api directory not found")

type Status string

const (
	NeedsMigration Status = "NEEDS_MIGRATION"
	MigratedClean  Status = "MIGRATED_CLEAN"
	Clean          Status = "CLEAN"
)

type Options struct {
	Patterns []string
	Calls    []string
	DryRun   bool
}

func (o Options) withDefaults() Options {
	if len(o.Patterns) == 0 {
		o.Patterns = DefaultPatterns
	}
	if len(o.Calls) == 0 {
		o.Calls = DefaultCalls
	}
	return o
}

type FileReport struct {
	Path    string
	Status  Status
	KVCalls int
	Stamped bool
}

// Summary uses the key names of the report the audit has always printed.
type Summary struct {
	NeedsMigration int `json:"NEEDS_MIGRATION" yaml:"NEEDS_MIGRATION"`
	MigratedClean  int `json:"MIGRATED_CLEAN" yaml:"MIGRATED_CLEAN"`
	Clean          int `json:"CLEAN" yaml:"CLEAN"`
	TotalKVCalls   int `json:"TOTAL_KV_CALLS" yaml:"TOTAL_KV_CALLS"`
}

func (s *Summary) add(r FileReport) {
	switch r.Status {
	case NeedsMigration:
		s.NeedsMigration++
	case MigratedClean:
		s.MigratedClean++
	default:
		s.Clean++
	}
	s.TotalKVCalls += r.KVCalls
}

// FindEndpoints returns the files under dir matching any pattern, sorted and unique.
func FindEndpoints(dir string, patterns []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoAPIDir)
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}

	sort.Strings(files)
	return files, nil
}

// CountCalls sums the occurrences of every call prefix. Prefixes may overlap, in which
// case one call site counts more than once.
func CountCalls(content string, calls []string) int {
	total := 0
	for _, call := range calls {
		total += strings.Count(content, call)
	}
	return total
}

// CheckFile classifies path and, for files that still use KV without either marker,
// prepends NeedsMarker unless opts.DryRun is set.
func CheckFile(path string, opts Options) (FileReport, error) {
	opts = opts.withDefaults()
	report := FileReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return report, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	migrated := strings.Contains(content, MigratedMarker)
	report.KVCalls = CountCalls(content, opts.Calls)

	switch {
	case report.KVCalls > 0:
		report.Status = NeedsMigration
		if migrated || strings.Contains(content, NeedsMarker) || opts.DryRun {
			return report, nil
		}
		stamped := NeedsMarker + "\n" + content
		if err := os.WriteFile(path, []byte(stamped), info.Mode().Perm()); err != nil {
			return report, fmt.Errorf("stamp %s: %w", path, err)
		}
		report.Stamped = true
	case migrated:
		report.Status = MigratedClean
	default:
		report.Status = Clean
	}

	return report, nil
}

// Run audits every endpoint under dir. A file that cannot be read is logged and left
// out of the summary.
func Run(dir string, opts Options) (Summary, []FileReport, error) {
	opts = opts.withDefaults()

	files, err := FindEndpoints(dir, opts.Patterns)
	if err != nil {
		return Summary{}, nil, err
	}

	var (
		summary Summary
		reports []FileReport
	)
	for _, file := range files {
		report, err := CheckFile(file, opts)
		if err != nil {
			slog.Warn("kvaudit failed", "path", file, "error", err)
			continue
		}
		summary.add(report)
		reports = append(reports, report)
	}

	return summary, reports, nil
}
