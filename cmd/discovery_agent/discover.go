package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/field-discovery/internal/cache"
	"github.com/jonathan/field-discovery/internal/config"
	"github.com/jonathan/field-discovery/internal/db"
	"github.com/jonathan/field-discovery/internal/discovery"
	"github.com/jonathan/field-discovery/internal/ingestion"
	"github.com/jonathan/field-discovery/internal/llm"
	"github.com/jonathan/field-discovery/internal/observability"
	"github.com/jonathan/field-discovery/internal/types"
)

var discoverCommand = &cobra.Command{
	Use:   "discover",
	Short: "Discover a field schema from a set of documents",
	Long: `Runs the discovery pipeline end-to-end: per-document field extraction -> cross-document merge -> consolidation -> location indexing.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runDiscoverCmd,
}

var (
	discoverConfigPath     string
	discoverDocsDir        string
	discoverDocs           []string
	discoverDocxPaths      []string
	discoverInstructions   string
	discoverNoConsolidate  bool
	discoverConcurrency    int
	discoverFuzzyThreshold int
	discoverValidateShape  bool
	discoverModel          string
	discoverAPIKey         string
	discoverRedisAddr      string
	discoverDatabaseURL    string
	discoverOutput         string
	discoverVerbose        bool
)

func init() {
	// Config file flag (processed first)
	discoverCommand.Flags().StringVar(&discoverConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	discoverCommand.Flags().StringVarP(&discoverDocsDir, "docs-dir", "d", "", "Directory of document files (mutually exclusive with --doc)")
	discoverCommand.Flags().StringArrayVar(&discoverDocs, "doc", nil, "Document file path (repeatable, mutually exclusive with --docs-dir)")
	discoverCommand.Flags().StringArrayVar(&discoverDocxPaths, "docx", nil, "Original .docx file for location fallback (repeatable)")
	discoverCommand.Flags().StringVarP(&discoverInstructions, "instructions", "i", "", "Extraction guidance passed to the model")
	discoverCommand.Flags().BoolVar(&discoverNoConsolidate, "no-consolidate", false, "Skip the model-backed consolidation pass")
	discoverCommand.Flags().IntVar(&discoverConcurrency, "concurrency", 0, "Parallel extraction calls (0 = sequential)")
	discoverCommand.Flags().IntVar(&discoverFuzzyThreshold, "fuzzy-threshold", 0, "Reference similarity cutoff 0-100 (0 = default)")
	discoverCommand.Flags().BoolVar(&discoverValidateShape, "validate-shape", false, "JSON Schema validation on model responses")
	discoverCommand.Flags().StringVar(&discoverModel, "model", "", "Override the extraction model name (default gemini-2.5-flash)")
	discoverCommand.Flags().StringVarP(&discoverOutput, "output", "o", "", "Path to write the schema JSON to (default stdout)")
	discoverCommand.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	discoverCommand.Flags().StringVar(&discoverAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Redis address for the result cache; omit for in-process caching only
	discoverCommand.Flags().StringVar(&discoverRedisAddr, "redis", "", "Redis address for the result cache (optional, defaults to REDIS_ADDR env var)")

	// Database URL for run persistence
	discoverCommand.Flags().StringVar(&discoverDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(discoverCommand)
}

// mergeFlags applies explicitly-set CLI flags over the loaded config.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("docs-dir") {
		cfg.DocsDir = discoverDocsDir
	}
	if cmd.Flags().Changed("doc") {
		cfg.Docs = discoverDocs
	}
	if cmd.Flags().Changed("docx") {
		cfg.DocxPaths = discoverDocxPaths
	}
	if cmd.Flags().Changed("instructions") {
		cfg.Instructions = discoverInstructions
	}
	if cmd.Flags().Changed("no-consolidate") {
		cfg.NoConsolidate = discoverNoConsolidate
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = discoverConcurrency
	}
	if cmd.Flags().Changed("fuzzy-threshold") {
		cfg.FuzzyThreshold = discoverFuzzyThreshold
	}
	if cmd.Flags().Changed("validate-shape") {
		cfg.ValidateShape = discoverValidateShape
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = discoverModel
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = discoverAPIKey
	}
	if cmd.Flags().Changed("redis") {
		cfg.RedisAddr = discoverRedisAddr
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = discoverDatabaseURL
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = discoverOutput
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = discoverVerbose
	}
}

func runDiscoverCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if discoverConfigPath != "" {
		loadedCfg, err := config.LoadConfig(discoverConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if discoverVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", discoverConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	mergeFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 3: Validate required fields
	if cfg.DocsDir == "" && len(cfg.Docs) == 0 {
		return fmt.Errorf("either --docs-dir or --doc must be provided (via flag or config)")
	}

	// Step 4: API Key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 5: Optional service endpoints from env
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Load documents
	var docs []types.Document
	var err error
	if cfg.DocsDir != "" {
		docs, err = ingestion.LoadDir(cfg.DocsDir)
	} else {
		docs, err = ingestion.LoadDocuments(cfg.Docs)
	}
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	fmt.Printf("Loaded %d document(s)\n", len(docs))

	// Model client
	var modelCfg *llm.Config
	if cfg.Model != "" {
		modelCfg = llm.DefaultConfig().WithModel(llm.TierStandard, cfg.Model)
	}
	client, err := llm.NewClient(ctx, modelCfg, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer client.Close()

	// Result cache: Redis when configured, in-process otherwise. A
	// Redis that is down at startup degrades rather than aborting.
	var store cache.Store
	if cfg.RedisAddr != "" {
		backend, err := cache.NewRedisBackend(ctx, cfg.RedisAddr)
		if err != nil {
			fmt.Printf("Warning: Redis unavailable (%v), using in-process cache\n", err)
			store = cache.NewFallbackStore(nil)
		} else {
			defer backend.Close()
			store = cache.NewFallbackStore(backend)
		}
	} else {
		store = cache.NewFallbackStore(nil)
	}

	printer := observability.NewPrinter(os.Stdout)

	opts := discovery.Options{
		Consolidate:    !cfg.NoConsolidate,
		MaxConcurrent:  cfg.Concurrency,
		FuzzyThreshold: cfg.FuzzyThreshold,
		ValidateShape:  cfg.ValidateShape,
	}
	if cfg.Verbose {
		opts.OnProgress = func(ev discovery.ProgressEvent) {
			fmt.Printf("[%s] %s\n", ev.Stage, ev.Message)
		}
	}

	engine := discovery.NewEngine(client, store, opts)
	result, err := engine.Discover(ctx, discovery.Request{
		Documents:        docs,
		DocPaths:         cfg.DocxPaths,
		UserInstructions: cfg.Instructions,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if cfg.Verbose {
		printer.PrintSchema(result.Schema)
		for _, section := range result.Schema {
			for _, key := range section.FieldOrder {
				printer.PrintLocations(section.Fields[key])
			}
		}
	}
	printer.PrintStats(result.Stats)

	// Persist the run when a database is configured
	if cfg.DatabaseURL != "" {
		if err := persistRun(ctx, cfg.DatabaseURL, docs, result); err != nil {
			fmt.Printf("Warning: Failed to persist run: %v\n", err)
		}
	}

	return writeResult(cfg.Output, result)
}

// persistRun stores the schema and stats as run artifacts. A failed
// artifact save marks the run failed instead of completed.
func persistRun(ctx context.Context, databaseURL string, docs []types.Document, result *discovery.Result) error {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := database.CreateRun(ctx, result.Fingerprint, len(docs))
	if err != nil {
		return err
	}
	if err := database.SaveRunResult(ctx, runID, result.Schema, result.Stats); err != nil {
		_ = database.CompleteRun(ctx, runID, "failed")
		return fmt.Errorf("failed to save run artifacts: %w", err)
	}
	return database.CompleteRun(ctx, runID, "completed")
}

// writeResult emits the discovery result as JSON to a file or stdout.
func writeResult(output string, result *discovery.Result) error {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if output == "" {
		fmt.Println(string(jsonBytes))
		return nil
	}
	if err := os.WriteFile(output, append(jsonBytes, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Result written to %s\n", output)
	return nil
}
