package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sentvec/internal/domain"
)

// SourceConfig declares one corpus file. Prefix becomes the tag prefix for
// every line; Label and Split say how the pipeline uses the documents.
// Source order is meaningful: it fixes the materialized collection order.
type SourceConfig struct {
	Path   string `yaml:"path"`
	Prefix string `yaml:"prefix"`
	Label  string `yaml:"label"` // positive | negative | none
	Split  string `yaml:"split"` // train | test | extra
}

// CorpusConfig lists the corpus sources in order.
type CorpusConfig struct {
	Sources []SourceConfig `yaml:"sources"`
}

// OpenAIVectorizerConfig holds configuration for the remote embeddings client.
type OpenAIVectorizerConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorizerConfig selects and configures the document vectorizer.
type VectorizerConfig struct {
	Type      string                  `yaml:"type"` // pvdbow | tfidf | openai
	Dimension int                     `yaml:"dimension"`
	Negative  int                     `yaml:"negative"`
	MinCount  int                     `yaml:"min_count"`
	Epochs    int                     `yaml:"epochs"`
	Alpha     float64                 `yaml:"alpha"`
	MinAlpha  float64                 `yaml:"min_alpha"`
	Seed      int64                   `yaml:"seed"`
	OpenAI    *OpenAIVectorizerConfig `yaml:"openai,omitempty"`
}

// ClassifierConfig configures logistic-regression fitting.
type ClassifierConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	L2           float64 `yaml:"l2"`
	Seed         int64   `yaml:"seed"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"` // memory | qdrant
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// ModelConfig names the paths trained artifacts are saved to.
type ModelConfig struct {
	VectorizerPath string `yaml:"vectorizer_path"`
	ClassifierPath string `yaml:"classifier_path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Vectorizer  VectorizerConfig  `yaml:"vectorizer"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Model       ModelConfig       `yaml:"model"`
	Workers     int               `yaml:"workers"`
	LogLevel    string            `yaml:"log_level"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/sentvec/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sentvec", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{Sources: []SourceConfig{
			{Path: "data/train-pos.txt", Prefix: "TRAIN_POS", Label: domain.LabelPositive, Split: "train"},
			{Path: "data/train-neg.txt", Prefix: "TRAIN_NEG", Label: domain.LabelNegative, Split: "train"},
			{Path: "data/test-pos.txt", Prefix: "TEST_POS", Label: domain.LabelPositive, Split: "test"},
			{Path: "data/test-neg.txt", Prefix: "TEST_NEG", Label: domain.LabelNegative, Split: "test"},
			{Path: "data/train-unsup.txt", Prefix: "TRAIN_UNS", Label: domain.LabelNone, Split: "extra"},
		}},
		Vectorizer:  VectorizerConfig{Type: "pvdbow"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Model: ModelConfig{
			VectorizerPath: "model/vectors.bin",
			ClassifierPath: "model/classifier.json",
		},
		LogLevel: "info",
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Vectorizer.Type == "" {
		cfg.Vectorizer.Type = "pvdbow"
	}
	if cfg.Vectorizer.Dimension == 0 {
		cfg.Vectorizer.Dimension = 100
	}
	if cfg.Vectorizer.Negative == 0 {
		cfg.Vectorizer.Negative = 5
	}
	if cfg.Vectorizer.MinCount == 0 {
		cfg.Vectorizer.MinCount = 2
	}
	if cfg.Vectorizer.Epochs == 0 {
		cfg.Vectorizer.Epochs = 10
	}
	if cfg.Vectorizer.Alpha == 0 {
		cfg.Vectorizer.Alpha = 0.025
	}
	if cfg.Vectorizer.MinAlpha == 0 {
		cfg.Vectorizer.MinAlpha = 0.0001
	}
	if cfg.Vectorizer.Seed == 0 {
		cfg.Vectorizer.Seed = 1
	}
	if cfg.Vectorizer.Type == "openai" && cfg.Vectorizer.OpenAI != nil {
		if cfg.Vectorizer.OpenAI.BaseURL == "" {
			cfg.Vectorizer.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Vectorizer.OpenAI.APIKeyEnv == "" {
			cfg.Vectorizer.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Vectorizer.OpenAI.Model == "" {
			cfg.Vectorizer.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Vectorizer.OpenAI.TimeoutSecs == 0 {
			cfg.Vectorizer.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Classifier.LearningRate == 0 {
		cfg.Classifier.LearningRate = 0.05
	}
	if cfg.Classifier.Epochs == 0 {
		cfg.Classifier.Epochs = 50
	}
	if cfg.Classifier.L2 == 0 {
		cfg.Classifier.L2 = 0.0001
	}
	if cfg.Classifier.Seed == 0 {
		cfg.Classifier.Seed = 1
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for i := range cfg.Corpus.Sources {
		if cfg.Corpus.Sources[i].Label == "" {
			cfg.Corpus.Sources[i].Label = domain.LabelNone
		}
		if cfg.Corpus.Sources[i].Split == "" {
			cfg.Corpus.Sources[i].Split = "extra"
		}
	}
}

func validate(cfg *AppConfig) error {
	for _, src := range cfg.Corpus.Sources {
		switch src.Label {
		case domain.LabelPositive, domain.LabelNegative, domain.LabelNone:
		default:
			return fmt.Errorf("source %s: unknown label %q", src.Path, src.Label)
		}
		switch src.Split {
		case "train", "test", "extra":
		default:
			return fmt.Errorf("source %s: unknown split %q", src.Path, src.Split)
		}
	}
	return nil
}
