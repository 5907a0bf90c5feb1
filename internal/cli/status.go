package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/usecase"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-document embedding coverage",
	Long: `List all documents with their processing status and embedding coverage.
Coverage below 100% means part of the document is not yet searchable.`,
	RunE: runStatus,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a document, its chunks and its vectors",
	RunE:  runDelete,
}

var deleteDoc int64

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().Int64Var(&deleteDoc, "doc", 0, "document id (required)")
	deleteCmd.MarkFlagRequired("doc")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	docs, err := p.catalog.ListDocuments()
	if err != nil {
		return err
	}

	engine := usecase.NewSearchEngine(p.catalog, p.embedder, p.index, nil, cfg.Search.SnippetContext)

	if statusJSON {
		summaries := make([]any, 0, len(docs))
		for _, doc := range docs {
			summary, err := engine.DocumentSummary(doc.ID)
			if err != nil {
				continue
			}
			summaries = append(summaries, summary)
		}
		return printJSON(summaries)
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	for _, doc := range docs {
		summary, err := engine.DocumentSummary(doc.ID)
		if err != nil {
			continue
		}
		line := fmt.Sprintf("%d: %s [%s] %d/%d chunks embedded (%.1f%%)",
			doc.ID, doc.Filename, doc.Status, summary.EmbeddedChunks, summary.TotalChunks, summary.EmbeddingCoverage)
		if doc.ErrorMessage != "" {
			line += " - " + doc.ErrorMessage
		}
		fmt.Println(line)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	p, err := openPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	processor := usecase.NewProcessor(p.catalog, p.embedder, p.index, nil, p.cache)

	if err := processor.Delete(deleteDoc); err != nil {
		return err
	}
	fmt.Printf("Deleted document %d\n", deleteDoc)
	return nil
}
