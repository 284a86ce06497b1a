package pvdbow

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"sentvec/internal/domain"
)

func trainingDocs() []domain.TaggedDocument {
	lines := []string{
		"great movie wonderful acting great story",
		"terrible movie awful acting boring story",
		"wonderful film great cast and great direction",
		"awful film boring plot terrible pacing",
		"great fun wonderful characters great script",
		"boring mess terrible script awful ending",
	}
	docs := make([]domain.TaggedDocument, len(lines))
	for i, line := range lines {
		prefix := "POS"
		if i%2 == 1 {
			prefix = "NEG"
		}
		docs[i] = domain.TaggedDocument{
			Words: strings.Fields(line),
			Tag:   prefix + "_" + string(rune('0'+i/2)),
		}
	}
	return docs
}

func builtModel(t *testing.T) (*Model, []domain.TaggedDocument) {
	t.Helper()
	m := New(Config{Dimension: 20, MinCount: 1, Epochs: 5, Seed: 7})
	docs := trainingDocs()
	if err := m.Build(docs); err != nil {
		t.Fatalf("build: %v", err)
	}
	return m, docs
}

func TestBuild_EmptyCollection(t *testing.T) {
	m := New(Config{})
	if err := m.Build(nil); err == nil {
		t.Fatal("expected error for empty collection")
	}
}

func TestBuild_MinCountFiltersRareWords(t *testing.T) {
	m := New(Config{Dimension: 10, MinCount: 2, Epochs: 2})
	docs := []domain.TaggedDocument{
		{Words: []string{"common", "common", "rare"}, Tag: "A_0"},
		{Words: []string{"common", "unique"}, Tag: "A_1"},
	}
	if err := m.Build(docs); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := m.vocab["common"]; !ok {
		t.Error("expected 'common' in vocabulary")
	}
	if _, ok := m.vocab["rare"]; ok {
		t.Error("did not expect 'rare' in vocabulary")
	}
}

func TestDocVector_ShapeAndDistinctness(t *testing.T) {
	m, docs := builtModel(t)
	for i := 0; i < 3; i++ {
		if err := m.TrainEpoch(docs); err != nil {
			t.Fatalf("epoch %d: %v", i, err)
		}
	}
	v0, err := m.DocVector("POS_0")
	if err != nil {
		t.Fatalf("lookup POS_0: %v", err)
	}
	v1, err := m.DocVector("POS_1")
	if err != nil {
		t.Fatalf("lookup POS_1: %v", err)
	}
	if len(v0) != 20 || len(v1) != 20 {
		t.Fatalf("expected 20-dimensional vectors, got %d and %d", len(v0), len(v1))
	}
	if reflect.DeepEqual(v0, v1) {
		t.Fatal("expected distinct vectors for distinct tags")
	}
}

func TestDocVector_UnknownTag(t *testing.T) {
	m, _ := builtModel(t)
	if _, err := m.DocVector("MISSING_0"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDocVector_ReturnsCopy(t *testing.T) {
	m, _ := builtModel(t)
	v, _ := m.DocVector("POS_0")
	v[0] = 999
	again, _ := m.DocVector("POS_0")
	if again[0] == 999 {
		t.Fatal("DocVector must not expose internal state")
	}
}

func TestTrainEpoch_BeforeBuild(t *testing.T) {
	m := New(Config{})
	if err := m.TrainEpoch(trainingDocs()); err == nil {
		t.Fatal("expected error before Build")
	}
}

func TestInfer_DimensionAndVocabOnly(t *testing.T) {
	m, docs := builtModel(t)
	if err := m.TrainEpoch(docs); err != nil {
		t.Fatalf("train: %v", err)
	}
	vec, err := m.Infer([]string{"great", "wonderful", "unseenword"})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(vec) != 20 {
		t.Fatalf("expected 20-dimensional inferred vector, got %d", len(vec))
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	m, docs := builtModel(t)
	for i := 0; i < 2; i++ {
		if err := m.TrainEpoch(docs); err != nil {
			t.Fatalf("train: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := New(Config{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Dimension() != m.Dimension() {
		t.Fatalf("dimension mismatch: %d vs %d", loaded.Dimension(), m.Dimension())
	}
	for _, tag := range []string{"POS_0", "NEG_0", "NEG_2"} {
		want, err := m.DocVector(tag)
		if err != nil {
			t.Fatalf("original lookup %s: %v", tag, err)
		}
		got, err := loaded.DocVector(tag)
		if err != nil {
			t.Fatalf("loaded lookup %s: %v", tag, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("vector for %s changed across save/load", tag)
		}
	}
}

func TestSave_BeforeBuild(t *testing.T) {
	m := New(Config{})
	if err := m.Save(filepath.Join(t.TempDir(), "model.bin")); err == nil {
		t.Fatal("expected error saving an unbuilt model")
	}
}
