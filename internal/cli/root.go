package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argus/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - semantic document search and pattern detection",
	Long: `Argus ingests documents, embeds them into a vector index, and makes them
semantically searchable. A pattern-detection layer finds relationships
between documents: similar documents, thematic clusters, suggested
connections, and network centrality.

Example usage:
  argus ingest ./docs              # Ingest a directory of documents
  argus search -q "supply chains"  # Semantic search
  argus cluster                    # Group documents into themes
  argus network                    # Analyze the document network`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./argus.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "corpus directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
