package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"argus/internal/adapter/chunker"
	"argus/internal/adapter/fs"
	"argus/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents for semantic search",
	Long: `Ingest documents in the given directory: each file is chunked, embedded
and written to the vector index. State is stored in .argus/ within the
corpus directory.

Examples:
  argus ingest .                # Ingest current directory
  argus ingest /path/to/docs    # Ingest specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	cfg := GetConfig()

	p, err := openPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}

	chk := chunker.NewParagraphChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	processor := usecase.NewProcessor(p.catalog, p.embedder, p.index, chk, p.cache)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
	)

	ingested := 0
	degraded := 0
	failed := 0

	for _, file := range files {
		text, err := fs.ReadFile(file.Path)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "\nfailed to read %s: %v\n", file.Path, err)
			bar.Add(1)
			continue
		}

		doc, err := processor.Ingest(context.Background(), file.Name, text)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "\nfailed to ingest %s: %v\n", file.Path, err)
		case doc.ErrorMessage != "":
			degraded++
		default:
			ingested++
		}
		bar.Add(1)
	}

	fmt.Printf("\nIngested %d documents (%d degraded, %d failed)\n", ingested, degraded, failed)
	return nil
}
