package pvdbow

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"sentvec/internal/domain"
)

// Config controls training of the distributed-bag-of-words paragraph-vector
// model. Zero values fall back to the defaults below.
type Config struct {
	Dimension int     // vector length, default 100
	Negative  int     // negative samples per target word, default 5
	MinCount  int     // drop words rarer than this, default 2
	Alpha     float64 // initial learning rate, default 0.025
	MinAlpha  float64 // floor of the linear decay, default 0.0001
	Epochs    int     // planned epochs, drives the decay schedule, default 10
	Seed      int64   // RNG seed, default 1
}

func (c *Config) applyDefaults() {
	if c.Dimension <= 0 {
		c.Dimension = 100
	}
	if c.Negative <= 0 {
		c.Negative = 5
	}
	if c.MinCount <= 0 {
		c.MinCount = 2
	}
	if c.Alpha == 0 {
		c.Alpha = 0.025
	}
	if c.MinAlpha == 0 {
		c.MinAlpha = 0.0001
	}
	if c.Epochs <= 0 {
		c.Epochs = 10
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

const (
	tableSize   = 1 << 17 // unigram negative-sampling table entries
	tablePower  = 0.75
	maxExp      = 6.0 // clamp for the logistic function, word2vec convention
	inferPasses = 50  // gradient steps when inferring an unseen document
)

// Model is a PV-DBOW paragraph-vector model with negative sampling: each
// document vector is trained to predict the words it contains against
// sampled noise words. Word output weights are shared across documents.
type Model struct {
	cfg     Config
	vocab   map[string]int
	words   []string
	counts  []int
	tags    map[string]int
	docVecs [][]float64
	wordOut [][]float64
	table   []int
	rng     *rand.Rand
	epoch   int
	built   bool
}

// New returns an untrained model.
func New(cfg Config) *Model {
	cfg.applyDefaults()
	return &Model{
		cfg:   cfg,
		vocab: make(map[string]int),
		tags:  make(map[string]int),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Name returns the identifier of this vectorizer implementation.
func (m *Model) Name() string { return "pvdbow" }

// Dimension returns the configured vector length.
func (m *Model) Dimension() int { return m.cfg.Dimension }

// Build scans the collection once: it fixes the vocabulary (words at or above
// MinCount, in a stable sorted order), registers one vector per tag with a
// small random initialization, and precomputes the negative-sampling table.
func (m *Model) Build(docs []domain.TaggedDocument) error {
	if len(docs) == 0 {
		return errors.New("empty collection for vocabulary build")
	}
	raw := make(map[string]int)
	for _, doc := range docs {
		for _, w := range doc.Words {
			raw[w]++
		}
	}
	terms := make([]string, 0, len(raw))
	for w, n := range raw {
		if n >= m.cfg.MinCount {
			terms = append(terms, w)
		}
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no words reach min_count; corpus too small")
	}

	m.vocab = make(map[string]int, len(terms))
	m.words = terms
	m.counts = make([]int, len(terms))
	for i, w := range terms {
		m.vocab[w] = i
		m.counts[i] = raw[w]
	}

	m.tags = make(map[string]int, len(docs))
	m.docVecs = make([][]float64, 0, len(docs))
	for _, doc := range docs {
		if _, ok := m.tags[doc.Tag]; ok {
			return fmt.Errorf("duplicate document tag %q", doc.Tag)
		}
		m.tags[doc.Tag] = len(m.docVecs)
		m.docVecs = append(m.docVecs, m.randomVector())
	}

	m.wordOut = make([][]float64, len(terms))
	for i := range m.wordOut {
		m.wordOut[i] = make([]float64, m.cfg.Dimension)
	}
	m.buildTable()
	m.epoch = 0
	m.built = true
	return nil
}

// TrainEpoch runs one pass over the documents in the order given. The
// learning rate decays linearly from Alpha to MinAlpha across the planned
// number of epochs; extra passes continue at MinAlpha.
func (m *Model) TrainEpoch(docs []domain.TaggedDocument) error {
	if !m.built {
		return errors.New("vocabulary not built")
	}
	alpha := m.cfg.Alpha - (m.cfg.Alpha-m.cfg.MinAlpha)*float64(m.epoch)/float64(m.cfg.Epochs)
	if alpha < m.cfg.MinAlpha {
		alpha = m.cfg.MinAlpha
	}
	for _, doc := range docs {
		idx, ok := m.tags[doc.Tag]
		if !ok {
			return fmt.Errorf("unknown document tag %q; rebuild before training new documents", doc.Tag)
		}
		vec := m.docVecs[idx]
		for _, w := range doc.Words {
			target, ok := m.vocab[w]
			if !ok {
				continue
			}
			m.trainTarget(vec, target, alpha, true)
		}
	}
	m.epoch++
	return nil
}

// DocVector returns a copy of the trained vector for the given tag.
func (m *Model) DocVector(tag string) ([]float64, error) {
	idx, ok := m.tags[tag]
	if !ok {
		return nil, fmt.Errorf("unknown tag %q", tag)
	}
	out := make([]float64, m.cfg.Dimension)
	copy(out, m.docVecs[idx])
	return out, nil
}

// Infer trains a fresh document vector for unseen text against the frozen
// word weights and returns it.
func (m *Model) Infer(words []string) ([]float64, error) {
	if !m.built {
		return nil, errors.New("vocabulary not built")
	}
	vec := m.randomVector()
	alpha := m.cfg.Alpha
	decay := (m.cfg.Alpha - m.cfg.MinAlpha) / float64(inferPasses)
	for pass := 0; pass < inferPasses; pass++ {
		for _, w := range words {
			target, ok := m.vocab[w]
			if !ok {
				continue
			}
			m.trainTarget(vec, target, alpha, false)
		}
		alpha -= decay
		if alpha < m.cfg.MinAlpha {
			alpha = m.cfg.MinAlpha
		}
	}
	return vec, nil
}

// trainTarget applies one negative-sampling update: the document vector is
// pushed toward the target word and away from Negative sampled noise words.
// updateOutput is false during inference, which must not move word weights.
func (m *Model) trainTarget(vec []float64, target int, alpha float64, updateOutput bool) {
	update := make([]float64, m.cfg.Dimension)
	for k := 0; k <= m.cfg.Negative; k++ {
		var word int
		var label float64
		if k == 0 {
			word, label = target, 1
		} else {
			word = m.table[m.rng.Intn(len(m.table))]
			if word == target {
				continue
			}
			label = 0
		}
		out := m.wordOut[word]
		g := (label - sigmoid(dot(vec, out))) * alpha
		for i := range update {
			update[i] += g * out[i]
			if updateOutput {
				out[i] += g * vec[i]
			}
		}
	}
	for i := range vec {
		vec[i] += update[i]
	}
}

func (m *Model) buildTable() {
	m.table = make([]int, tableSize)
	var total float64
	for _, n := range m.counts {
		total += math.Pow(float64(n), tablePower)
	}
	word := 0
	cum := math.Pow(float64(m.counts[0]), tablePower) / total
	for i := 0; i < tableSize; i++ {
		m.table[i] = word
		if float64(i)/tableSize > cum && word < len(m.counts)-1 {
			word++
			cum += math.Pow(float64(m.counts[word]), tablePower) / total
		}
	}
}

func (m *Model) randomVector() []float64 {
	vec := make([]float64, m.cfg.Dimension)
	for i := range vec {
		vec[i] = (m.rng.Float64() - 0.5) / float64(m.cfg.Dimension)
	}
	return vec
}

func sigmoid(x float64) float64 {
	if x > maxExp {
		return 1
	}
	if x < -maxExp {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// snapshot is the gob wire form of a trained model.
type snapshot struct {
	Cfg     Config
	Words   []string
	Counts  []int
	Tags    []string
	DocVecs [][]float64
	WordOut [][]float64
	Epoch   int
}

// Save writes the trained model as a gob blob at the given path.
func (m *Model) Save(path string) error {
	if !m.built {
		return errors.New("nothing to save: vocabulary not built")
	}
	tags := make([]string, len(m.docVecs))
	for tag, idx := range m.tags {
		tags[idx] = tag
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer f.Close()
	snap := snapshot{
		Cfg:     m.cfg,
		Words:   m.words,
		Counts:  m.counts,
		Tags:    tags,
		DocVecs: m.docVecs,
		WordOut: m.wordOut,
		Epoch:   m.epoch,
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load replaces the model state with a blob previously written by Save.
func (m *Model) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer f.Close()
	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	m.cfg = snap.Cfg
	m.cfg.applyDefaults()
	m.words = snap.Words
	m.counts = snap.Counts
	m.vocab = make(map[string]int, len(snap.Words))
	for i, w := range snap.Words {
		m.vocab[w] = i
	}
	m.tags = make(map[string]int, len(snap.Tags))
	for i, tag := range snap.Tags {
		m.tags[tag] = i
	}
	m.docVecs = snap.DocVecs
	m.wordOut = snap.WordOut
	m.epoch = snap.Epoch
	m.rng = rand.New(rand.NewSource(m.cfg.Seed))
	m.buildTable()
	m.built = true
	return nil
}
