package cli

import (
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"argus/config"
	"argus/internal/adapter/cache"
	"argus/internal/adapter/embedding"
	"argus/internal/adapter/store"
	"argus/internal/port"
)

// pipeline bundles the opened backends a command needs.
type pipeline struct {
	catalog  *store.Catalog
	index    port.VectorIndex
	embedder port.Embedder
	cache    *cache.SearchCache

	vectorDB *bbolt.DB
}

func (p *pipeline) Close() {
	if p.vectorDB != nil {
		p.vectorDB.Close()
	}
	if p.catalog != nil {
		p.catalog.Close()
	}
}

// openPipeline wires catalog, vector index and embedder for the corpus
// directory according to the loaded config.
func openPipeline(requireIndex bool) (*pipeline, error) {
	cfg := GetConfig()
	dir := GetRootDir()

	if requireIndex {
		if _, err := os.Stat(config.CatalogDBPath(dir)); os.IsNotExist(err) {
			return nil, fmt.Errorf("no corpus found in %s. Run 'argus ingest' first", dir)
		}
	}
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .argus directory: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := store.NewCatalog(config.CatalogDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	p := &pipeline{
		catalog:  catalog,
		embedder: embedder,
		cache: cache.NewSearchCache(
			cfg.Search.CacheSize,
			time.Duration(cfg.Search.CacheTTL)*time.Second,
		),
	}

	switch cfg.Vector.Backend {
	case "qdrant":
		qdrant := store.NewQdrantIndex(store.QdrantConfig{
			URL:        cfg.Vector.URL,
			APIKey:     os.Getenv(cfg.Vector.APIKeyEnv),
			Collection: cfg.Vector.Collection,
		})
		if err := qdrant.Init(embedder.Dimension()); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to init qdrant collection: %w", err)
		}
		p.index = qdrant
	default:
		db, err := bbolt.Open(config.VectorDBPath(dir), 0600, nil)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to open vector db: %w", err)
		}
		p.vectorDB = db
		index, err := store.NewBoltVectorIndex(db, embedder.Dimension())
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to open vector index: %w", err)
		}
		p.index = index
	}

	return p, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		baseURL := cfg.Embedding.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, baseURL)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL), nil
	case "mock":
		dimension := cfg.Embedding.Dimension
		if dimension <= 0 {
			dimension = 64
		}
		return embedding.NewMockEmbedder(dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: openai, ollama, mock)", cfg.Embedding.Provider)
	}
}
