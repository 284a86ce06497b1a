package tfidf

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"sentvec/internal/domain"
	"sentvec/internal/tokenize"
)

// Vectorizer produces TF-IDF document vectors behind the same interface as
// the trained paragraph-vector model. Build fixes the vocabulary and IDF
// values and caches one vector per tag; there is no iterative training, so
// TrainEpoch is a no-op.
type Vectorizer struct {
	vocab     map[string]int
	terms     []string
	idf       []float64
	docVecs   map[string][]float64
	stopwords map[string]struct{}
	built     bool
}

// New returns an unbuilt TF-IDF vectorizer.
func New() *Vectorizer {
	return &Vectorizer{
		vocab:     make(map[string]int),
		docVecs:   make(map[string][]float64),
		stopwords: tokenize.Stopwords(),
	}
}

// Name returns the identifier of this vectorizer implementation.
func (v *Vectorizer) Name() string { return "tfidf" }

// Dimension returns the vocabulary size, which is the vector length.
func (v *Vectorizer) Dimension() int { return len(v.terms) }

// Build computes document frequencies over the collection, fixes a stable
// sorted vocabulary with smoothed IDF values, and caches a vector per tag.
func (v *Vectorizer) Build(docs []domain.TaggedDocument) error {
	if len(docs) == 0 {
		return errors.New("empty collection for TF-IDF build")
	}
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, w := range doc.Words {
			if _, stop := v.stopwords[w]; stop {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			df[w]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in collection")
	}
	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.vocab[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.docVecs = make(map[string][]float64, len(docs))
	v.built = true
	for _, doc := range docs {
		if _, ok := v.docVecs[doc.Tag]; ok {
			return fmt.Errorf("duplicate document tag %q", doc.Tag)
		}
		vec, err := v.Infer(doc.Words)
		if err != nil {
			return err
		}
		v.docVecs[doc.Tag] = vec
	}
	return nil
}

// TrainEpoch is a no-op: TF-IDF vectors are fully determined at build time.
func (v *Vectorizer) TrainEpoch(docs []domain.TaggedDocument) error {
	if !v.built {
		return errors.New("tfidf vectorizer not built")
	}
	return nil
}

// DocVector returns a copy of the cached vector for the given tag.
func (v *Vectorizer) DocVector(tag string) ([]float64, error) {
	vec, ok := v.docVecs[tag]
	if !ok {
		return nil, fmt.Errorf("unknown tag %q", tag)
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}

// Infer computes the L2-normalized TF-IDF vector for a token sequence.
func (v *Vectorizer) Infer(words []string) ([]float64, error) {
	if !v.built {
		return nil, errors.New("tfidf vectorizer not built")
	}
	vec := make([]float64, len(v.terms))
	tf := make(map[int]int)
	total := 0
	for _, w := range words {
		if _, stop := v.stopwords[w]; stop {
			continue
		}
		if idx, ok := v.vocab[w]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
	}
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

type snapshot struct {
	Terms   []string
	IDF     []float64
	Tags    []string
	DocVecs [][]float64
}

// Save writes the vocabulary, IDF values and cached document vectors.
func (v *Vectorizer) Save(path string) error {
	if !v.built {
		return errors.New("nothing to save: tfidf vectorizer not built")
	}
	tags := make([]string, 0, len(v.docVecs))
	for tag := range v.docVecs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	vecs := make([][]float64, len(tags))
	for i, tag := range tags {
		vecs[i] = v.docVecs[tag]
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(snapshot{Terms: v.terms, IDF: v.idf, Tags: tags, DocVecs: vecs}); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load restores state previously written by Save.
func (v *Vectorizer) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer f.Close()
	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	v.terms = snap.Terms
	v.idf = snap.IDF
	v.vocab = make(map[string]int, len(snap.Terms))
	for i, term := range snap.Terms {
		v.vocab[term] = i
	}
	v.docVecs = make(map[string][]float64, len(snap.Tags))
	for i, tag := range snap.Tags {
		v.docVecs[tag] = snap.DocVecs[i]
	}
	v.built = true
	return nil
}
