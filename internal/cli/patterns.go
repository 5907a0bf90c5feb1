package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/usecase"
)

var (
	clusterCount     int
	clusterJSON      bool
	suggestDoc       int64
	suggestThreshold float64
	suggestJSON      bool
	networkJSON      bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group documents into thematic clusters",
	Long: `Cluster the completed documents by embedding similarity and label each
cluster with a theme derived from member titles.

Examples:
  argus cluster                 # Auto-derived cluster count
  argus cluster --clusters 4    # Fixed cluster count`,
	RunE: runCluster,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest connections for a document",
	Long: `Suggest document-to-document connections whose similarity clears the
threshold, with a confidence tier per suggestion.

Examples:
  argus suggest --doc 3
  argus suggest --doc 3 --threshold 0.8`,
	RunE: runSuggest,
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Analyze the document similarity network",
	Long: `Build the pairwise similarity matrix over all completed documents and
report central documents, isolated documents and network density. This
is quadratic in corpus size; expect it to take a while on large corpora.`,
	RunE: runNetwork,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.Flags().IntVar(&clusterCount, "clusters", 0, "cluster count (0 = auto)")
	clusterCmd.Flags().BoolVar(&clusterJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().Int64Var(&suggestDoc, "doc", 0, "document id (required)")
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", 0, "similarity threshold (0 = config default)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "output as JSON")
	suggestCmd.MarkFlagRequired("doc")

	rootCmd.AddCommand(networkCmd)
	networkCmd.Flags().BoolVar(&networkJSON, "json", false, "output as JSON")
}

func newDetector(p *pipeline) *usecase.PatternDetector {
	detector := usecase.NewPatternDetector(p.catalog, p.index)
	detector.SetSimilarityThreshold(GetConfig().Patterns.SimilarityThreshold)
	return detector
}

func runCluster(cmd *cobra.Command, args []string) error {
	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	result := newDetector(p).ClusterDocuments(clusterCount)
	if result.Err != "" {
		return fmt.Errorf("clustering failed: %s", result.Err)
	}

	if clusterJSON {
		return printJSON(result)
	}

	if len(result.Clusters) == 0 {
		fmt.Printf("Not enough embedded documents to cluster (%d available).\n", result.TotalDocuments)
		return nil
	}

	themes := make(map[int]string, len(result.Themes))
	for _, theme := range result.Themes {
		themes[theme.ClusterID] = theme.ThemeName
	}

	fmt.Printf("%d documents in %d clusters:\n\n", result.TotalDocuments, result.NClusters)
	for _, c := range result.Clusters {
		fmt.Printf("Cluster %d - %s (%d documents)\n", c.ClusterID, themes[c.ClusterID], c.Size)
		for _, doc := range c.Documents {
			fmt.Printf("  %d: %s\n", doc.ID, doc.Title)
		}
		fmt.Println()
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	connections := newDetector(p).SuggestConnections(suggestDoc, suggestThreshold)

	if suggestJSON {
		return printJSON(connections)
	}

	if len(connections) == 0 {
		fmt.Println("No connections to suggest.")
		return nil
	}
	for _, conn := range connections {
		fmt.Printf("doc %d -> doc %d [%s] %s (%d matching chunks)\n",
			conn.SourceDocumentID, conn.TargetDocumentID, conn.Confidence, conn.Reason, conn.MatchingChunks)
	}
	return nil
}

func runNetwork(cmd *cobra.Command, args []string) error {
	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	analysis := newDetector(p).AnalyzeNetwork()
	if analysis.Err != "" {
		return fmt.Errorf("network analysis failed: %s", analysis.Err)
	}

	if networkJSON {
		return printJSON(analysis)
	}

	fmt.Printf("Documents: %d, connections: %d, density: %.4f\n\n",
		analysis.TotalDocuments, analysis.TotalConnections, analysis.NetworkDensity)

	if len(analysis.CentralDocuments) > 0 {
		fmt.Println("Central documents:")
		for _, doc := range analysis.CentralDocuments {
			fmt.Printf("  %d: %s (%d connections, centrality %.4f)\n",
				doc.DocumentID, doc.Filename, doc.Connections, doc.CentralityScore)
		}
		fmt.Println()
	}
	if len(analysis.IsolatedDocuments) > 0 {
		fmt.Println("Isolated documents:")
		for _, doc := range analysis.IsolatedDocuments {
			fmt.Printf("  %d: %s\n", doc.DocumentID, doc.Filename)
		}
	}
	return nil
}
