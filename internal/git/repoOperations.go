package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type GitRepo struct {
	WorkDir string
}

func formatCommandError(operation string, err error, stdout, stderr bytes.Buffer) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %v\nStdout: %s\nStderr: %s",
		operation, err, stdout.String(), stderr.String())
}

func New(workDir string) *GitRepo {
	return &GitRepo{WorkDir: workDir}
}

func (repo *GitRepo) run(operation string, args ...string) (bytes.Buffer, error) {
	cmd := exec.Command("git", args...)
	cmd.Env = os.Environ()
	cmd.Dir = repo.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout, formatCommandError(operation, err, stdout, stderr)
}

func (repo *GitRepo) GetCurrentBranch() (string, error) {
	stdout, err := repo.run("get current branch", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ConflictedFiles lists unmerged paths under WorkDir, relative to WorkDir. Conflicts
// elsewhere in the repository are not listed.
func (repo *GitRepo) ConflictedFiles() ([]string, error) {
	stdout, err := repo.run("list conflicted files", "diff", "--name-only", "--relative", "--diff-filter=U")
	if err != nil {
		return nil, err
	}

	var files []string
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Git quotes filenames with special characters - remove the quotes
		if strings.HasPrefix(line, "\"") && strings.HasSuffix(line, "\"") {
			line = line[1 : len(line)-1]
		}

		if line != "" {
			files = append(files, line)
		}
	}

	return files, scanner.Err()
}

func (repo *GitRepo) AddFiles(files []string) error {
	if len(files) == 0 {
		return nil
	}

	args := append([]string{"add", "--"}, files...)
	_, err := repo.run("add files", args...)
	return err
}
