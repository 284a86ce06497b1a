package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Labels used by the binary classifier. Callers map them to sentiment names.
const (
	Negative = 0
	Positive = 1
)

// Config controls logistic-regression fitting. Zero values fall back to the
// defaults below.
type Config struct {
	LearningRate float64 // default 0.05
	Epochs       int     // default 50
	L2           float64 // ridge penalty, default 0.0001
	Seed         int64   // default 1
}

func (c *Config) applyDefaults() {
	if c.LearningRate == 0 {
		c.LearningRate = 0.05
	}
	if c.Epochs <= 0 {
		c.Epochs = 50
	}
	if c.L2 == 0 {
		c.L2 = 0.0001
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// LogisticRegression is a binary classifier fit with stochastic gradient
// descent over fixed-length feature vectors.
type LogisticRegression struct {
	cfg     Config
	weights []float64
	bias    float64
	rng     *rand.Rand
	fitted  bool
}

// New returns an unfitted classifier.
func New(cfg Config) *LogisticRegression {
	cfg.applyDefaults()
	return &LogisticRegression{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Fit learns weights from parallel feature/label slices. Labels must be
// Negative or Positive. Examples are visited in a freshly shuffled order
// each epoch.
func (m *LogisticRegression) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return errors.New("empty training set")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("features and labels length mismatch: %d vs %d", len(features), len(labels))
	}
	dim := len(features[0])
	for i, x := range features {
		if len(x) != dim {
			return fmt.Errorf("feature row %d has dimension %d, want %d", i, len(x), dim)
		}
		if labels[i] != Negative && labels[i] != Positive {
			return fmt.Errorf("label %d at row %d is not binary", labels[i], i)
		}
	}

	m.weights = make([]float64, dim)
	m.bias = 0
	order := make([]int, len(features))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, idx := range order {
			x := features[idx]
			p := sigmoid(m.decision(x))
			g := float64(labels[idx]) - p
			for d := range m.weights {
				m.weights[d] += m.cfg.LearningRate * (g*x[d] - m.cfg.L2*m.weights[d])
			}
			m.bias += m.cfg.LearningRate * g
		}
	}
	m.fitted = true
	return nil
}

// Predict returns the predicted label and the confidence of that label.
func (m *LogisticRegression) Predict(vector []float64) (int, float64) {
	p := sigmoid(m.decision(vector))
	if p >= 0.5 {
		return Positive, p
	}
	return Negative, 1 - p
}

// Score returns accuracy over a held-out labeled set.
func (m *LogisticRegression) Score(features [][]float64, labels []int) (float64, error) {
	metrics, err := m.Evaluate(features, labels)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(), nil
}

func (m *LogisticRegression) decision(x []float64) float64 {
	n := len(x)
	if len(m.weights) < n {
		n = len(m.weights)
	}
	sum := m.bias
	for i := 0; i < n; i++ {
		sum += m.weights[i] * x[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Metrics captures evaluation results on a labeled dataset.
type Metrics struct {
	Total     int
	Correct   int
	Confusion map[int]map[int]int // actual -> predicted -> count
}

// Accuracy returns the fraction of correct predictions in [0,1].
func (m Metrics) Accuracy() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total)
}

// Evaluate runs the classifier over a labeled set and tallies a confusion
// matrix.
func (m *LogisticRegression) Evaluate(features [][]float64, labels []int) (Metrics, error) {
	if !m.fitted {
		return Metrics{}, errors.New("classifier not fitted")
	}
	if len(features) != len(labels) {
		return Metrics{}, fmt.Errorf("features and labels length mismatch: %d vs %d", len(features), len(labels))
	}
	confusion := map[int]map[int]int{
		Negative: {},
		Positive: {},
	}
	correct := 0
	for i, x := range features {
		predicted, _ := m.Predict(x)
		if predicted == labels[i] {
			correct++
		}
		confusion[labels[i]][predicted]++
	}
	return Metrics{Total: len(features), Correct: correct, Confusion: confusion}, nil
}

// Snapshot is the JSON wire form of a fitted classifier.
type Snapshot struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Save writes the fitted weights as JSON at the given path.
func (m *LogisticRegression) Save(path string) error {
	if !m.fitted {
		return errors.New("nothing to save: classifier not fitted")
	}
	data, err := json.MarshalIndent(Snapshot{Weights: m.weights, Bias: m.bias}, "", "  ")
	if err != nil {
		return fmt.Errorf("save classifier: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save classifier: %w", err)
	}
	return nil
}

// Load replaces the classifier state with a snapshot written by Save.
func (m *LogisticRegression) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}
	m.weights = snap.Weights
	m.bias = snap.Bias
	m.fitted = true
	return nil
}
