package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the argus pipeline.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Patterns  PatternsConfig  `yaml:"patterns"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
}

// IngestConfig holds ingestion configuration.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// SearchConfig holds search configuration.
type SearchConfig struct {
	TopK           int `yaml:"top_k"`
	SnippetContext int `yaml:"snippet_context"`
	CacheSize      int `yaml:"cache_size"`
	CacheTTL       int `yaml:"cache_ttl_seconds"`
}

// PatternsConfig holds pattern detection configuration.
type PatternsConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	Backend    string `yaml:"backend"` // "bolt", "qdrant"
	URL        string `yaml:"url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Collection string `yaml:"collection"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.markdown"},
			Excludes:     []string{"**/.git/**", "**/.argus/**", "**/node_modules/**"},
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Search: SearchConfig{
			TopK:           20,
			SnippetContext: 150,
			CacheSize:      100,
			CacheTTL:       300,
		},
		Patterns: PatternsConfig{
			SimilarityThreshold: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 768,
		},
		Vector: VectorConfig{
			Backend:    "bolt",
			Collection: "documents",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// argus.yaml, then .argus/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "argus.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".argus", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CatalogDBPath returns the path to the document catalog database.
func CatalogDBPath(dir string) string {
	return filepath.Join(dir, ".argus", "catalog.db")
}

// VectorDBPath returns the path to the local vector index database.
func VectorDBPath(dir string) string {
	return filepath.Join(dir, ".argus", "vectors.db")
}

// EnsureDataDir ensures the .argus directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".argus"), 0755)
}
