package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"
)

const BackupSuffix = ".conflict_backup"

var (
	ErrNotFound        = errors.New("file not found")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrNoBackup        = errors.New("no conflict backup")
)

type RewriteStatus int

const (
	StatusUnscanned RewriteStatus = iota
	StatusNoConflict
	StatusResolved
	StatusNotFound
	StatusError
)

func (s RewriteStatus) String() string {
	switch s {
	case StatusNoConflict:
		return "no-conflict"
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not-found"
	case StatusError:
		return "error"
	default:
		return "unscanned"
	}
}

type FileResult struct {
	Path        string
	Status      RewriteStatus
	Original    string
	Final       string
	BackupPath  string
	Resolutions []Resolution
	Err         error
}

func (r FileResult) Message() string {
	switch r.Status {
	case StatusResolved:
		return "Fixed"
	case StatusNoConflict:
		return "No conflicts found"
	case StatusNotFound:
		return "File not found"
	case StatusError:
		return fmt.Sprintf("Error: %v", r.Err)
	default:
		return "Not processed"
	}
}

type RewriteOptions struct {
	Heuristic Heuristic
	DryRun    bool
}

func BackupPath(path string) string {
	return path + BackupSuffix
}

// RewriteFile resolves every conflict section in path. The pre-rewrite content is kept
// at BackupPath(path) whenever the file changes.
func RewriteFile(path string, opts RewriteOptions) FileResult {
	result := FileResult{Path: path}

	fail := func(err error) FileResult {
		result.Status = StatusError
		result.Err = err
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Status = StatusNotFound
			result.Err = fmt.Errorf("%s: %w", path, ErrNotFound)
			return result
		}
		return fail(fmt.Errorf("stat %s: %w", path, err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", path, err))
	}
	if !utf8.Valid(data) {
		return fail(fmt.Errorf("%s: %w", path, ErrInvalidEncoding))
	}

	content := string(data)
	result.Original = content

	final, resolutions := ResolveContent(content, opts.Heuristic)
	result.Final = final
	result.Resolutions = resolutions

	if len(resolutions) == 0 {
		result.Status = StatusNoConflict
		return result
	}

	if opts.DryRun {
		result.Status = StatusResolved
		return result
	}

	backup := BackupPath(path)
	if err := os.WriteFile(backup, data, info.Mode().Perm()); err != nil {
		return fail(fmt.Errorf("write backup %s: %w", backup, err))
	}
	result.BackupPath = backup

	if err := os.WriteFile(path, []byte(final), info.Mode().Perm()); err != nil {
		return fail(fmt.Errorf("write %s: %w", path, err))
	}

	result.Status = StatusResolved
	return result
}

// RestoreFile puts the backup written by RewriteFile back in place and removes it.
func RestoreFile(path string) error {
	backup := BackupPath(path)

	data, err := os.ReadFile(backup)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNoBackup)
		}
		return fmt.Errorf("read backup %s: %w", backup, err)
	}

	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}

	return os.Remove(backup)
}
