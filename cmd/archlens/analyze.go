package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/archlens/archlens/internal/analysis"
	"github.com/archlens/archlens/internal/models"
)

var (
	analyzeModule string
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [project]",
	Short: "Run architectural analyses on a project graph",
	Long: `Analyze inspects the knowledge graph built by scan and reports
architectural findings: circular dependencies between files and classes,
and public elements nothing in the project references.

Examples:
  archlens analyze myapp
  archlens analyze myapp --module cycles`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeModule, "module", "m", "all", "analysis module: all, cycles, or unused")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text, json, or yaml")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	projectName := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := connectGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to graph store: %w", err)
	}
	defer client.Close(ctx)

	analyzer := analysis.NewAnalyzerWithConfig(client, analysis.Config{
		MaxCycleLength:     cfg.Analysis.MaxCycleLength,
		MaxCyclesPerGraph:  cfg.Analysis.MaxCyclesPerGraph,
		VisitBudget:        cfg.Analysis.VisitBudget,
		UnusedElementLimit: cfg.Analysis.UnusedElementLimit,
	})

	var result *models.AnalysisResult
	switch analyzeModule {
	case "all":
		result = analyzer.AnalyzeProjectArchitecture(ctx, projectName)
	case "cycles":
		result = analyzer.DetectCircularDependencies(ctx, projectName)
	case "unused":
		result = analyzer.DetectUnusedPublicElements(ctx, projectName)
	default:
		return fmt.Errorf("unknown analysis module: %s (expected all, cycles, or unused)", analyzeModule)
	}

	switch analyzeFormat {
	case "text":
		printAnalysis(result)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	case "yaml":
		if err := yaml.NewEncoder(os.Stdout).Encode(result); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format: %s (expected text, json, or yaml)", analyzeFormat)
	}

	if !result.Success {
		return fmt.Errorf("analysis failed: %v", result.Errors)
	}
	return nil
}

func printAnalysis(result *models.AnalysisResult) {
	fmt.Printf("ArchLens analysis: %s\n", result.ProjectName)
	fmt.Printf("Findings: %d (%s)\n\n", len(result.Findings), result.Duration.Round(time.Millisecond))

	findings := append([]models.AnalysisFinding(nil), result.Findings...)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() > findings[j].Severity.Rank()
	})

	for _, f := range findings {
		fmt.Printf("[%s] %s\n", f.Severity, f.Title)
		fmt.Printf("  %s\n", f.Description)
		if f.FilePath != "" {
			fmt.Printf("  file: %s\n", f.FilePath)
		}
		for _, rec := range f.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		fmt.Println()
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e)
	}
}
