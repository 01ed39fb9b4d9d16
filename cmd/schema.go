package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corpeningc/maintkit/internal/schema"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Database schema chores",
	}

	applyCmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Execute a SQL file statement by statement on the remote database",
		Long: "Splits the SQL file on semicolons and sends each statement to the database's exec rpc endpoint " +
			"(or over a direct connection when a DSN is configured). Failed statements are reported and skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := a.cfg.Schema.File
			if len(args) == 1 {
				file = args[0]
			}
			if !filepath.IsAbs(file) {
				file = filepath.Join(a.cfg.BaseDir, file)
			}
			return a.runSchemaApply(cmd.Context(), file)
		},
	}

	applyCmd.Flags().String("url", "", "database REST base url (env SUPABASE_URL)")
	applyCmd.Flags().String("dsn", "", "postgres connection string, used instead of the REST endpoint (env DATABASE_URL)")
	applyCmd.Flags().String("rpc", schema.DefaultRPC, "rpc function that executes raw SQL")

	schemaCmd.AddCommand(applyCmd)
	return schemaCmd
}

type closer interface {
	Close(ctx context.Context) error
}

func (a *app) runSchemaApply(ctx context.Context, file string) error {
	a.out.Title("Schema application")
	a.out.Info("")

	exec, err := schema.NewExecutor(ctx, a.cfg.Schema)
	if err != nil {
		return err
	}
	if c, ok := exec.(closer); ok {
		defer c.Close(context.Background())
	}

	a.out.Info("🔍 Testing database connection...")
	if err := exec.Ping(ctx); err != nil {
		a.out.Error("Connection failed: %v", err)
		return fmt.Errorf("cannot proceed without connection: %w", err)
	}
	a.out.Success("Database connection successful")
	a.out.Info("")

	a.out.Info("📖 Reading schema file...")
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("schema file: %w", err)
	}
	a.out.Success("Schema loaded (%s)", humanize.Bytes(uint64(len(data))))

	statements := schema.SplitStatements(string(data))
	a.out.Info("📝 Found %d SQL statements", len(statements))

	summary := schema.Apply(ctx, exec, statements, a.out.Statement)
	a.out.SchemaSummary(summary)

	if summary.Failed > 0 {
		a.out.Hint("Some errors may be expected (e.g., 'already exists')")
		return fmt.Errorf("schema applied with %d errors", summary.Failed)
	}

	a.out.Info("🎉 Schema applied successfully!")
	return nil
}
