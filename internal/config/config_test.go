package config

import (
	"os"
	"path/filepath"
	"testing"

	"sentvec/internal/domain"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vectorizer.Type != "pvdbow" {
		t.Errorf("expected pvdbow default, got %q", cfg.Vectorizer.Type)
	}
	if cfg.Vectorizer.Dimension != 100 {
		t.Errorf("expected dimension 100, got %d", cfg.Vectorizer.Dimension)
	}
	if len(cfg.Corpus.Sources) != 5 {
		t.Errorf("expected 5 default sources, got %d", len(cfg.Corpus.Sources))
	}
}

func TestLoad_AppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
corpus:
  sources:
    - path: pos.txt
      prefix: POS
      label: positive
      split: train
    - path: neg.txt
      prefix: NEG
      label: negative
      split: train
vectorizer:
  type: pvdbow
  dimension: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vectorizer.Dimension != 50 {
		t.Errorf("expected dimension 50, got %d", cfg.Vectorizer.Dimension)
	}
	if cfg.Vectorizer.Epochs != 10 {
		t.Errorf("expected default epochs 10, got %d", cfg.Vectorizer.Epochs)
	}
	if cfg.Classifier.Epochs != 50 {
		t.Errorf("expected default classifier epochs 50, got %d", cfg.Classifier.Epochs)
	}
	if cfg.VectorStore.Type != "memory" {
		t.Errorf("expected memory store default, got %q", cfg.VectorStore.Type)
	}
}

func TestLoad_UnlabeledSourceDefaultsToNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
corpus:
  sources:
    - path: extra.txt
      prefix: EXTRA
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Corpus.Sources[0].Label != domain.LabelNone {
		t.Errorf("expected none label, got %q", cfg.Corpus.Sources[0].Label)
	}
	if cfg.Corpus.Sources[0].Split != "extra" {
		t.Errorf("expected extra split, got %q", cfg.Corpus.Sources[0].Split)
	}
}

func TestLoad_RejectsUnknownLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
corpus:
  sources:
    - path: pos.txt
      prefix: POS
      label: upbeat
      split: train
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Vectorizer.Dimension = 25
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Vectorizer.Dimension != 25 {
		t.Errorf("expected dimension 25 after roundtrip, got %d", loaded.Vectorizer.Dimension)
	}
}
