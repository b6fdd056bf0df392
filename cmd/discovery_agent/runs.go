package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/field-discovery/internal/db"
	"github.com/jonathan/field-discovery/internal/observability"
)

var runsCommand = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List persisted discovery runs, or show one run's schema and stats",
	Long: `Without arguments, lists the most recent discovery runs stored in the database.
With a run ID, prints that run's persisted schema and usage stats.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunsCmd,
}

var (
	runsDatabaseURL string
	runsLimit       int
)

func init() {
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runsCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")

	rootCmd.AddCommand(runsCommand)
}

func runRunsCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	databaseURL := runsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if len(args) == 0 {
		return listRuns(ctx, database)
	}
	return showRun(ctx, database, args[0])
}

func listRuns(ctx context.Context, database *db.DB) error {
	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No discovery runs persisted.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-5s  %-20s  %s\n", "ID", "STATUS", "DOCS", "CREATED", "FINGERPRINT")
	for _, run := range runs {
		fp := run.Fingerprint
		if len(fp) > 16 {
			fp = fp[:16] + "…"
		}
		fmt.Printf("%-36s  %-10s  %-5d  %-20s  %s\n",
			run.ID, run.Status, run.DocCount,
			run.CreatedAt.Format("2006-01-02 15:04:05"), fp)
	}
	return nil
}

func showRun(ctx context.Context, database *db.DB, rawID string) error {
	runID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", rawID, err)
	}

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	fmt.Printf("Run %s: %s, %d document(s), created %s\n",
		run.ID, run.Status, run.DocCount, run.CreatedAt.Format("2006-01-02 15:04:05"))

	printer := observability.NewPrinter(os.Stdout)

	schema, err := database.GetSchemaByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if schema == nil {
		fmt.Println("No schema persisted for this run.")
	} else {
		printer.PrintSchema(schema)
	}

	stats, err := database.GetStatsByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if stats == nil {
		fmt.Println("No stats persisted for this run.")
	} else {
		printer.PrintStats(stats)
	}
	return nil
}
