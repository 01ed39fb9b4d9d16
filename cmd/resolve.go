package cmd

import (
	"fmt"
	"log/slog"

	"github.com/corpeningc/maintkit/internal/git"
	"github.com/corpeningc/maintkit/internal/resolver"
	"github.com/corpeningc/maintkit/internal/ui"
	"github.com/spf13/cobra"
)

type resolveFlags struct {
	dryRun  bool
	fromGit bool
	stage   bool
	pick    bool
	preview bool
}

func newResolveCmd(a *app) *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve [paths...]",
		Short: "Resolve git conflict markers by picking the richer side",
		Long: "Replaces every conflict section in the target files with one side, chosen by a fixed content heuristic. " +
			"The original file is kept next to it with a .conflict_backup suffix. Review the result before committing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "report what would change without writing files")
	cmd.Flags().BoolVarP(&flags.fromGit, "from-git", "g", false, "resolve the files git reports as unmerged instead of the configured targets")
	cmd.Flags().BoolVarP(&flags.stage, "stage", "s", false, "git add files after resolving them")
	cmd.Flags().BoolVarP(&flags.pick, "pick", "p", false, "choose the files to resolve interactively")
	cmd.Flags().BoolVar(&flags.preview, "preview", false, "show the chosen sides and confirm before writing")
	cmd.Flags().IntP("jobs", "j", 1, "files to process in parallel")

	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, args []string, flags resolveFlags) error {
	repo := git.New(a.cfg.BaseDir)

	targets := a.cfg.Targets
	switch {
	case len(args) > 0:
		targets = args
	case flags.fromGit:
		files, err := repo.ConflictedFiles()
		if err != nil {
			return fmt.Errorf("error getting conflicted files: %w", err)
		}
		targets = files
	}

	if len(targets) == 0 {
		a.out.Info("No files to resolve.")
		return nil
	}

	if flags.pick {
		selected, err := ui.SelectFiles("Select files to resolve:", targets)
		if err != nil {
			return fmt.Errorf("error selecting files: %w", err)
		}
		if len(selected) == 0 {
			a.out.Info("No files selected.")
			return nil
		}
		targets = selected
	}

	rc := a.cfg.Resolver(flags.dryRun)
	rc.TargetPaths = targets

	if flags.preview {
		dry := rc
		dry.DryRun = true
		planned := resolver.Run(cmd.Context(), dry)

		fileResults := make([]git.FileResult, len(planned))
		for i, r := range planned {
			fileResults[i] = r.FileResult
		}
		if err := ui.ShowPreview(fileResults); err != nil {
			return err
		}

		if !flags.dryRun {
			ok, err := ui.Confirm(fmt.Sprintf("Write %d resolved file(s)?", len(resolver.Resolved(planned))))
			if err != nil {
				return err
			}
			if !ok {
				a.out.Info("Nothing written.")
				return nil
			}
		}
	}

	a.out.Title("🔧 Starting automatic conflict resolution...")
	a.out.Info("")

	results := resolver.Run(cmd.Context(), rc)
	for _, r := range results {
		a.out.FileResult(r.Target, r.FileResult)
	}

	if flags.stage && !flags.dryRun {
		resolved := resolver.Resolved(results)
		if err := repo.AddFiles(resolved); err != nil {
			// staging is best effort, the files are already rewritten
			slog.Error("stage resolved files", "error", err)
		} else if len(resolved) > 0 {
			a.out.Info("Staged %d file(s).", len(resolved))
		}
	}

	a.out.Info("")
	a.out.Success("Conflict resolution completed!")
	return nil
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [paths...]",
		Short: "Put back the .conflict_backup copies written by resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := a.cfg.Resolver(false)
			if len(args) > 0 {
				rc.TargetPaths = args
			}

			for _, target := range rc.TargetPaths {
				path := rc.Path(target)
				if err := git.RestoreFile(path); err != nil {
					a.out.Warning("%s: %v", target, err)
					continue
				}
				a.out.Success("%s: restored", target)
			}
			return nil
		},
	}
}
