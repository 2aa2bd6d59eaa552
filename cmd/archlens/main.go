package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/archlens/archlens/internal/config"
	apperrors "github.com/archlens/archlens/internal/errors"
	"github.com/archlens/archlens/internal/graph"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", apperrors.GetType(err), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "archlens",
	Short: "ArchLens - code knowledge graphs and architectural analysis",
	Long: `ArchLens extracts code structure from multi-language source trees,
builds a queryable knowledge graph in Neo4j, and runs architectural
analyses (circular dependencies, unused public elements) on top of it.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./archlens.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`ArchLens {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(queryCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// connectGraph opens the Neo4j client with the configured batch profile.
func connectGraph(ctx context.Context, cfg *config.Config) (*graph.Client, error) {
	client, err := graph.NewClientWithDatabase(ctx,
		cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		return nil, err
	}
	switch cfg.Neo4j.BatchProfile {
	case "small":
		client.SetBatchConfig(graph.SmallProjectBatchConfig())
	case "large":
		client.SetBatchConfig(graph.LargeProjectBatchConfig())
	}
	return client, nil
}
