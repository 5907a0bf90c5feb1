package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argus/internal/usecase"
)

var (
	searchQuery string
	searchTopK  int
	searchDocs  []int64
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Semantic search across ingested documents",
	Long: `Search for relevant document chunks by meaning rather than keywords.

Examples:
  argus search -q "shell companies in shipping"
  argus search -q "ransomware payments" --top-k 10 --json
  argus search -q "aliases" --docs 3,7`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().Int64SliceVar(&searchDocs, "docs", nil, "restrict to these document ids")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := searchTopK
	if topK <= 0 {
		topK = cfg.Search.TopK
	}

	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	engine := usecase.NewSearchEngine(p.catalog, p.embedder, p.index, p.cache, cfg.Search.SnippetContext)

	results, err := engine.Search(context.Background(), searchQuery, topK, searchDocs)
	if err != nil {
		return err
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s (doc %d, chunk %d, score %.4f)\n", i+1, r.DocumentTitle, r.DocumentID, r.ChunkIndex, r.RelevanceScore)
		fmt.Printf("   %s\n\n", r.Snippet)
	}
	return nil
}
