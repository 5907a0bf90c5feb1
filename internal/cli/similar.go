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
	similarDoc   int64
	similarChunk int
	similarTopK  int
	similarJSON  bool
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find documents or chunks similar to a given one",
	Long: `Find documents similar to a document, or chunks similar to one chunk.

Examples:
  argus similar --doc 3              # Documents similar to document 3
  argus similar --doc 3 --chunk 0    # Chunks similar to chunk 0 of document 3`,
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)
	similarCmd.Flags().Int64Var(&similarDoc, "doc", 0, "document id (required)")
	similarCmd.Flags().IntVar(&similarChunk, "chunk", -1, "chunk index (chunk mode)")
	similarCmd.Flags().IntVarP(&similarTopK, "top-k", "k", 5, "number of results")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output as JSON")
	similarCmd.MarkFlagRequired("doc")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	if similarChunk >= 0 {
		engine := usecase.NewSearchEngine(p.catalog, p.embedder, p.index, p.cache, cfg.Search.SnippetContext)
		results, err := engine.SimilarChunks(context.Background(), similarDoc, similarChunk, similarTopK)
		if err != nil {
			return err
		}
		if similarJSON {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No similar chunks found.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%d. %s (doc %d, chunk %d, score %.4f)\n", i+1, r.DocumentTitle, r.DocumentID, r.ChunkIndex, r.RelevanceScore)
			fmt.Printf("   %s\n\n", r.Snippet)
		}
		return nil
	}

	detector := usecase.NewPatternDetector(p.catalog, p.index)
	detector.SetSimilarityThreshold(cfg.Patterns.SimilarityThreshold)

	similar := detector.SimilarDocuments(similarDoc, similarTopK)
	if similarJSON {
		return printJSON(similar)
	}
	if len(similar) == 0 {
		fmt.Println("No similar documents found.")
		return nil
	}
	for i, s := range similar {
		fmt.Printf("%d. %s (doc %d, similarity %.4f, %d matching chunks)\n", i+1, s.Filename, s.DocumentID, s.Similarity, s.MatchingChunks)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
