package service

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"sentvec/internal/classify"
	"sentvec/internal/corpus"
	"sentvec/internal/domain"
	"sentvec/internal/embedding/pvdbow"
	"sentvec/internal/vectorstore/memory"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func repeatLines(line string, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// testPipeline builds a tiny two-class corpus with an unlabeled extra source.
func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	trainPos := write("train-pos.txt", repeatLines("great wonderful movie lovely acting", 10))
	trainNeg := write("train-neg.txt", repeatLines("terrible awful movie boring acting", 10))
	testPos := write("test-pos.txt", repeatLines("wonderful lovely film", 4))
	testNeg := write("test-neg.txt", repeatLines("awful boring film", 4))
	unsup := write("train-unsup.txt", repeatLines("some film with words", 6))

	loader, err := corpus.New(corpus.Config{
		Sources: []corpus.Source{
			{Path: trainPos, Prefix: "TRAIN_POS"},
			{Path: trainNeg, Prefix: "TRAIN_NEG"},
			{Path: testPos, Prefix: "TEST_POS"},
			{Path: testNeg, Prefix: "TEST_NEG"},
			{Path: unsup, Prefix: "TRAIN_UNS"},
		},
		Rand: rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	meta := map[string]SourceMeta{
		"TRAIN_POS": {Label: domain.LabelPositive, Split: "train"},
		"TRAIN_NEG": {Label: domain.LabelNegative, Split: "train"},
		"TEST_POS":  {Label: domain.LabelPositive, Split: "test"},
		"TEST_NEG":  {Label: domain.LabelNegative, Split: "test"},
		"TRAIN_UNS": {Label: domain.LabelNone, Split: "extra"},
	}
	vectorizer := pvdbow.New(pvdbow.Config{Dimension: 16, MinCount: 1, Epochs: 5, Seed: 2})
	classifier := classify.New(classify.Config{Epochs: 80, Seed: 2})
	return New(loader, vectorizer, classifier, memory.NewStorage(), meta, Options{
		Epochs:  5,
		Workers: 2,
		Logger:  quietLogger(),
	})
}

func TestPipeline_EndToEnd(t *testing.T) {
	p := testPipeline(t)
	if err := p.Ingest(); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := p.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	metrics, err := p.FitAndEvaluate()
	if err != nil {
		t.Fatalf("fit and evaluate: %v", err)
	}
	// 4 positive + 4 negative test reviews; the unlabeled pool must not leak in.
	if metrics.Total != 8 {
		t.Fatalf("expected 8 evaluated test reviews, got %d", metrics.Total)
	}

	pred, err := p.Classify("a wonderful lovely movie")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if pred.Label != domain.LabelPositive && pred.Label != domain.LabelNegative {
		t.Fatalf("unexpected label %q", pred.Label)
	}
	if pred.Probability < 0.5 || pred.Probability > 1 {
		t.Fatalf("confidence out of range: %f", pred.Probability)
	}
}

func TestPipeline_SimilarReturnsTrainReviews(t *testing.T) {
	p := testPipeline(t)
	if err := p.Ingest(); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := p.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := p.FitAndEvaluate(); err != nil {
		t.Fatalf("fit and evaluate: %v", err)
	}
	results, err := p.Similar("great wonderful movie", 5)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected similar results")
	}
	for _, r := range results {
		if !strings.HasPrefix(r.Review.Tag, "TRAIN_POS") && !strings.HasPrefix(r.Review.Tag, "TRAIN_NEG") {
			t.Fatalf("expected only labeled training reviews in the store, got tag %s", r.Review.Tag)
		}
	}
}

func TestPipeline_TrainBeforeIngest(t *testing.T) {
	p := testPipeline(t)
	if err := p.Train(); err == nil {
		t.Fatal("expected error training before ingest")
	}
}

func TestPipeline_SaveModel(t *testing.T) {
	p := testPipeline(t)
	if err := p.Ingest(); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := p.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := p.FitAndEvaluate(); err != nil {
		t.Fatalf("fit and evaluate: %v", err)
	}
	dir := t.TempDir()
	vpath := filepath.Join(dir, "vectors.bin")
	cpath := filepath.Join(dir, "classifier.json")
	if err := p.SaveModel(vpath, cpath); err != nil {
		t.Fatalf("save model: %v", err)
	}
	for _, path := range []string{vpath, cpath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected non-empty artifact at %s", path)
		}
	}
}
