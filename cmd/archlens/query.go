package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/archlens/archlens/internal/query"
)

var (
	queryProject string
	queryLimit   int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the project knowledge graph",
}

func init() {
	queryCmd.PersistentFlags().StringVarP(&queryProject, "project", "p", "", "project name (required)")
	queryCmd.PersistentFlags().IntVarP(&queryLimit, "limit", "n", query.DefaultLimit, "max results")
	queryCmd.MarkPersistentFlagRequired("project")

	queryCmd.AddCommand(overviewCmd)
	queryCmd.AddCommand(complexityCmd)
	queryCmd.AddCommand(callsCmd)
	queryCmd.AddCommand(apiCmd)
	queryCmd.AddCommand(refactorCmd)
}

// withService loads config, connects, and hands the query service to fn.
func withService(fn func(ctx context.Context, svc *query.Service) error) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := connectGraph(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to graph store: %w", err)
	}
	defer client.Close(ctx)
	return fn(ctx, query.NewService(client))
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Entity and relationship counts for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *query.Service) error {
			overview, err := svc.Overview(ctx, queryProject)
			if err != nil {
				return err
			}
			fmt.Printf("Project %s: %d entities, %d relationships\n",
				overview.ProjectName, overview.TotalEntities, overview.TotalRelationships)
			fmt.Printf("Languages: %v\n\n", overview.Languages)
			for _, entityType := range sortedCountKeys(overview.EntityCounts) {
				fmt.Printf("  %-12s %d\n", entityType, overview.EntityCounts[entityType])
			}
			fmt.Println()
			for _, relType := range sortedCountKeys(overview.RelationshipCounts) {
				fmt.Printf("  %-12s %d\n", relType, overview.RelationshipCounts[relType])
			}
			return nil
		})
	},
}

var complexityCmd = &cobra.Command{
	Use:   "complexity",
	Short: "Classes ranked by summed method complexity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *query.Service) error {
			classes, err := svc.ClassComplexityRanking(ctx, queryProject, queryLimit)
			if err != nil {
				return err
			}
			for _, c := range classes {
				fmt.Printf("%-50s methods=%-4d public=%-4d complexity=%-5d avg=%.1f score=%.1f\n",
					c.QualifiedName, c.MethodCount, c.PublicMethodCount,
					c.TotalComplexity, c.AverageComplexity, c.ComplexityScore)
			}
			return nil
		})
	},
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Most-called methods and their callers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *query.Service) error {
			patterns, err := svc.MethodCallPatterns(ctx, queryProject, queryLimit)
			if err != nil {
				return err
			}
			for _, p := range patterns {
				fmt.Printf("%-50s callers=%d files=%d\n", p.QualifiedName, p.CallerCount, p.CallerFileCount)
				for _, caller := range p.Callers {
					fmt.Printf("    <- %s\n", caller)
				}
			}
			return nil
		})
	},
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Public API surface of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *query.Service) error {
			elements, err := svc.PublicAPISurface(ctx, queryProject, queryLimit)
			if err != nil {
				return err
			}
			for _, e := range elements {
				fmt.Printf("%-12s %-10s %s\n", e.Kind, e.Visibility, e.QualifiedName)
			}
			return nil
		})
	},
}

var refactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Classes flagged for size or complexity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *query.Service) error {
			candidates, err := svc.RefactoringCandidates(ctx, queryProject, queryLimit)
			if err != nil {
				return err
			}
			for _, c := range candidates {
				fmt.Printf("%-50s %s\n", c.QualifiedName, c.Reason)
			}
			return nil
		})
	},
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
