package classify

import (
	"math/rand"
	"path/filepath"
	"testing"
)

// separableSet builds a toy set where positives cluster around (1,1) and
// negatives around (-1,-1).
func separableSet(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, 0, 2*n)
	labels := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		features = append(features, []float64{1 + rng.NormFloat64()*0.3, 1 + rng.NormFloat64()*0.3})
		labels = append(labels, Positive)
		features = append(features, []float64{-1 + rng.NormFloat64()*0.3, -1 + rng.NormFloat64()*0.3})
		labels = append(labels, Negative)
	}
	return features, labels
}

func TestFit_SeparableData(t *testing.T) {
	X, y := separableSet(50, 3)
	m := New(Config{Epochs: 100, Seed: 3})
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	acc, err := m.Score(X, y)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if acc < 0.9 {
		t.Fatalf("expected accuracy >= 0.9 on separable data, got %.3f", acc)
	}
}

func TestFit_InputValidation(t *testing.T) {
	m := New(Config{})
	if err := m.Fit(nil, nil); err == nil {
		t.Fatal("expected error for empty training set")
	}
	if err := m.Fit([][]float64{{1}}, []int{Positive, Negative}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if err := m.Fit([][]float64{{1}, {2, 3}}, []int{Positive, Negative}); err == nil {
		t.Fatal("expected error for ragged feature rows")
	}
	if err := m.Fit([][]float64{{1}}, []int{7}); err == nil {
		t.Fatal("expected error for non-binary label")
	}
}

func TestPredict_Confidence(t *testing.T) {
	X, y := separableSet(50, 5)
	m := New(Config{Epochs: 100, Seed: 5})
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	label, prob := m.Predict([]float64{1.2, 0.9})
	if label != Positive {
		t.Fatalf("expected positive prediction, got %d", label)
	}
	if prob < 0.5 || prob > 1 {
		t.Fatalf("confidence out of range: %f", prob)
	}
}

func TestEvaluate_Confusion(t *testing.T) {
	X, y := separableSet(20, 9)
	m := New(Config{Epochs: 100, Seed: 9})
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	metrics, err := m.Evaluate(X, y)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if metrics.Total != 40 {
		t.Fatalf("expected 40 evaluated examples, got %d", metrics.Total)
	}
	cells := 0
	for _, row := range metrics.Confusion {
		for _, n := range row {
			cells += n
		}
	}
	if cells != metrics.Total {
		t.Fatalf("confusion cells sum to %d, want %d", cells, metrics.Total)
	}
}

func TestEvaluate_BeforeFit(t *testing.T) {
	m := New(Config{})
	if _, err := m.Evaluate([][]float64{{1}}, []int{Positive}); err == nil {
		t.Fatal("expected error before fit")
	}
}

func TestSnapshot_Roundtrip(t *testing.T) {
	X, y := separableSet(30, 11)
	m := New(Config{Epochs: 100, Seed: 11})
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	path := filepath.Join(t.TempDir(), "classifier.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := New(Config{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, x := range X {
		wantLabel, wantProb := m.Predict(x)
		gotLabel, gotProb := loaded.Predict(x)
		if wantLabel != gotLabel || wantProb != gotProb {
			t.Fatalf("prediction changed across snapshot: (%d %f) vs (%d %f)", wantLabel, wantProb, gotLabel, gotProb)
		}
	}
}
