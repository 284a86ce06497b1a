package main

import (
	"flag"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sentvec/internal/classify"
	"sentvec/internal/config"
	"sentvec/internal/corpus"
	"sentvec/internal/domain"
	"sentvec/internal/embedding/openai"
	"sentvec/internal/embedding/pvdbow"
	"sentvec/internal/embedding/tfidf"
	"sentvec/internal/report"
	"sentvec/internal/service"
	"sentvec/internal/tui"
	"sentvec/internal/vectorstore"
	"sentvec/internal/vectorstore/memory"
	"sentvec/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/sentvec/config.yaml if not provided)")
	flag.Parse()

	log := logrus.New()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	pipeline, err := assemble(cfg, log)
	if err != nil {
		log.Fatalf("assemble pipeline: %v", err)
	}

	if err := pipeline.Ingest(); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	if err := pipeline.Train(); err != nil {
		log.Fatalf("training failed: %v", err)
	}
	metrics, err := pipeline.FitAndEvaluate()
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	m := tui.New(pipeline, report.Summary(metrics))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

// assemble wires the configured components into a pipeline.
func assemble(cfg *config.AppConfig, log *logrus.Logger) (*service.Pipeline, error) {
	if len(cfg.Corpus.Sources) == 0 {
		return nil, fmt.Errorf("no corpus sources configured")
	}
	sources := make([]corpus.Source, len(cfg.Corpus.Sources))
	meta := make(map[string]service.SourceMeta, len(cfg.Corpus.Sources))
	for i, src := range cfg.Corpus.Sources {
		sources[i] = corpus.Source{Path: src.Path, Prefix: src.Prefix}
		meta[src.Prefix] = service.SourceMeta{Label: src.Label, Split: src.Split}
	}
	loader, err := corpus.New(corpus.Config{Sources: sources})
	if err != nil {
		return nil, err
	}

	var vectorizer domain.Vectorizer
	switch cfg.Vectorizer.Type {
	case "pvdbow", "":
		vectorizer = pvdbow.New(pvdbow.Config{
			Dimension: cfg.Vectorizer.Dimension,
			Negative:  cfg.Vectorizer.Negative,
			MinCount:  cfg.Vectorizer.MinCount,
			Alpha:     cfg.Vectorizer.Alpha,
			MinAlpha:  cfg.Vectorizer.MinAlpha,
			Epochs:    cfg.Vectorizer.Epochs,
			Seed:      cfg.Vectorizer.Seed,
		})
	case "tfidf":
		vectorizer = tfidf.New()
	case "openai":
		if cfg.Vectorizer.OpenAI == nil {
			return nil, fmt.Errorf("openai vectorizer config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Vectorizer.OpenAI.BaseURL,
			APIKeyEnv: cfg.Vectorizer.OpenAI.APIKeyEnv,
			Model:     cfg.Vectorizer.OpenAI.Model,
			Timeout:   time.Duration(cfg.Vectorizer.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai vectorizer init failed: %w", err)
		}
		vectorizer = client
	default:
		return nil, fmt.Errorf("unknown vectorizer: %s", cfg.Vectorizer.Type)
	}

	var store vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		store = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		store = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	classifier := classify.New(classify.Config{
		LearningRate: cfg.Classifier.LearningRate,
		Epochs:       cfg.Classifier.Epochs,
		L2:           cfg.Classifier.L2,
		Seed:         cfg.Classifier.Seed,
	})

	return service.New(loader, vectorizer, classifier, store, meta, service.Options{
		Epochs:  cfg.Vectorizer.Epochs,
		Workers: cfg.Workers,
		Logger:  log,
	}), nil
}
