package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archlens/archlens/internal/coordinator"
	"github.com/archlens/archlens/internal/extract"
	"github.com/archlens/archlens/internal/graph"
)

var (
	scanProject   string
	scanLanguages []string
	scanDryRun    bool
)

// supportedLanguages in registration order.
var supportedLanguages = []string{"python", "javascript", "typescript", "java"}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Extract code structure and build the project graph",
	Long: `Scan walks a source tree, extracts entities and relationships per
language, and upserts them into the Neo4j knowledge graph.

Examples:
  archlens scan . --project myapp
  archlens scan /src/backend --project backend --languages python,java
  archlens scan . --project myapp --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanProject, "project", "p", "", "project name scoping the graph (required)")
	scanCmd.Flags().StringSliceVarP(&scanLanguages, "languages", "l", nil, "languages to extract (default: all supported)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "extract only, skip the graph build")
	scanCmd.MarkFlagRequired("project")
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	languages := scanLanguages
	if len(languages) == 0 {
		languages = supportedLanguages
	}

	coord := coordinator.New(coordinator.Config{
		Workers:     cfg.Coordinator.Workers,
		FileTimeout: time.Duration(cfg.Coordinator.FileTimeoutSec) * time.Second,
	}, logger)
	coord.Register(extract.NewPythonExtractor())
	coord.Register(extract.NewJavaScriptExtractor())
	coord.Register(extract.NewTypeScriptExtractor())
	coord.Register(extract.NewJavaExtractor())

	if cfg.Coordinator.CachePath != "" {
		cache, err := coordinator.OpenParseCache(cfg.Coordinator.CachePath)
		if err != nil {
			logger.WithError(err).Warn("parse cache unavailable, continuing without it")
		} else {
			defer cache.Close()
			coord.WithCache(cache)
		}
	}

	fmt.Printf("ArchLens scan\n")
	fmt.Printf("Project:   %s\n", scanProject)
	fmt.Printf("Path:      %s\n", args[0])
	fmt.Printf("Languages: %v\n\n", languages)

	result := coord.Coordinate(ctx, coordinator.ProjectContext{
		CodePath:          args[0],
		DetectedLanguages: languages,
	})

	fmt.Printf("Extraction: %d/%d files ok (%.0f%%), %d entities, %d relationships in %s\n",
		result.SuccessfulFiles, result.TotalFiles, result.SuccessRate()*100,
		result.TotalEntities, result.TotalRelationships, result.Duration.Round(time.Millisecond))
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}

	if scanDryRun {
		fmt.Println("\nDry run: graph build skipped")
		return nil
	}

	client, err := connectGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to graph store: %w", err)
	}
	defer client.Close(ctx)

	buildResult := graph.NewBuilder(client).Build(ctx, result, scanProject)
	fmt.Printf("\nGraph build: %d nodes, %d relationships in %s\n",
		buildResult.NodesCreated, buildResult.RelationshipsCreated,
		buildResult.Duration.Round(time.Millisecond))
	for _, w := range buildResult.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if !buildResult.Success {
		return fmt.Errorf("graph build failed: %v", buildResult.Errors)
	}

	fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
