package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/corpeningc/maintkit/internal/kvaudit"
	"github.com/corpeningc/maintkit/internal/schema"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newKVAuditCmd(a *app) *cobra.Command {
	var (
		dryRun     bool
		format     string
		probeTable string
	)

	cmd := &cobra.Command{
		Use:   "kvaudit",
		Short: "Count legacy KV store calls in the API handlers and mark files that need migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.KVAudit.Dir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(a.cfg.BaseDir, dir)
			}

			a.out.Title("--- KV to database migration audit ---")

			summary, reports, err := kvaudit.Run(dir, kvaudit.Options{
				Patterns: a.cfg.KVAudit.Patterns,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				a.out.Info("No API files found to migrate.")
				return nil
			}

			a.out.Info("Found %d API file(s).", len(reports))
			for _, r := range reports {
				a.out.KVReport(r)
			}

			a.out.Info("")
			a.out.Title("--- Migration summary ---")
			if err := writeSummary(cmd.OutOrStdout(), format, summary); err != nil {
				return err
			}

			if probeTable != "" {
				a.out.Info("")
				a.out.Title("--- Database connection check ---")
				exec := schema.NewRESTExecutor(a.cfg.Schema.URL, a.cfg.Schema.Key, a.cfg.Schema.RPC)
				rows, err := exec.ProbeTable(cmd.Context(), probeTable)
				if err != nil {
					a.out.Error("Database connection error: %v", err)
					return nil
				}
				a.out.Success("Connected. Rows read from %s: %d", probeTable, rows)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "API directory to audit (default from config: api)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "count calls without stamping files")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "summary format: json or yaml")
	cmd.Flags().StringVar(&probeTable, "probe-table", "", "read one row from this table to check the database connection")

	return cmd
}

func writeSummary(w io.Writer, format string, summary kvaudit.Summary) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
