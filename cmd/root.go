package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/corpeningc/maintkit/internal/config"
	"github.com/corpeningc/maintkit/internal/logging"
	"github.com/corpeningc/maintkit/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by every subcommand of one root command.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	out *ui.Printer
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "maintkit",
		Short: "Maintenance chores for the web app repository",
		Long:  "Resolves merge conflicts with a content heuristic, applies SQL schemas to the remote database and audits legacy KV usage",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default ./maintkit.yaml or ~/.config/maintkit/maintkit.yaml)")
	rootCmd.PersistentFlags().StringP("base-dir", "C", "", "directory target paths are relative to")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newResolveCmd(a))
	rootCmd.AddCommand(newRestoreCmd(a))
	rootCmd.AddCommand(newSchemaCmd(a))
	rootCmd.AddCommand(newKVAuditCmd(a))
	rootCmd.AddCommand(newShellCmd(a, NewRootCmd))

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logging.Setup(cmd.ErrOrStderr(), verbose)

	a.out = ui.NewPrinter(cmd.OutOrStdout())

	// only flags given on the command line override the config file
	bindings := map[string]string{
		"base_dir":    "base-dir",
		"jobs":        "jobs",
		"kvaudit.dir": "dir",
		"schema.dsn":  "dsn",
		"schema.rpc":  "rpc",
		"schema.url":  "url",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
