package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"sentvec/internal/classify"
	"sentvec/internal/corpus"
	"sentvec/internal/domain"
	"sentvec/internal/tokenize"
	"sentvec/internal/vectorstore"
)

// SourceMeta carries the pipeline-level properties of a corpus source. The
// loader itself only knows tags; labels and split membership are resolved
// here by tag prefix.
type SourceMeta struct {
	Label string
	Split string
}

// Options tune the pipeline.
type Options struct {
	Epochs  int // vectorizer training epochs, default 10
	Workers int // feature-matrix assembly workers, default 4
	Logger  *logrus.Logger
}

// Pipeline owns the corpus loader, vectorizer, classifier and vector store as
// explicit handles and drives them through ingest, training and evaluation.
type Pipeline struct {
	loader     *corpus.Loader
	vectorizer domain.Vectorizer
	classifier *classify.LogisticRegression
	store      vectorstore.Storage
	meta       map[string]SourceMeta // tag prefix -> meta
	epochs     int
	workers    int
	log        *logrus.Logger
	records    []record
}

// record is one ingested document in materialization order, with its source
// metadata resolved.
type record struct {
	review domain.Review
	words  []string
	split  string
}

// New assembles a pipeline. meta maps tag prefixes to their label and split.
func New(loader *corpus.Loader, vectorizer domain.Vectorizer, classifier *classify.LogisticRegression, store vectorstore.Storage, meta map[string]SourceMeta, opts Options) *Pipeline {
	if opts.Epochs <= 0 {
		opts.Epochs = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Pipeline{
		loader:     loader,
		vectorizer: vectorizer,
		classifier: classifier,
		store:      store,
		meta:       meta,
		epochs:     opts.Epochs,
		workers:    opts.Workers,
		log:        opts.Logger,
	}
}

// Ingest materializes the corpus and builds the vectorizer vocabulary.
func (p *Pipeline) Ingest() error {
	docs, err := p.loader.Materialize()
	if err != nil {
		return fmt.Errorf("materialize corpus: %w", err)
	}
	p.records = make([]record, 0, len(docs))
	for _, doc := range docs {
		meta, err := p.resolve(doc.Tag)
		if err != nil {
			return err
		}
		p.records = append(p.records, record{
			review: domain.Review{
				Tag:   doc.Tag,
				Text:  strings.Join(doc.Words, " "),
				Label: meta.Label,
			},
			words: doc.Words,
			split: meta.Split,
		})
	}
	if err := p.vectorizer.Build(docs); err != nil {
		return fmt.Errorf("build vectorizer: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"documents":  len(docs),
		"vectorizer": p.vectorizer.Name(),
		"dimension":  p.vectorizer.Dimension(),
	}).Info("corpus ingested")
	return nil
}

// Train runs the configured number of vectorizer epochs, reshuffling the
// working collection between epochs so no epoch sees the same presentation
// order.
func (p *Pipeline) Train() error {
	for epoch := 0; epoch < p.epochs; epoch++ {
		docs, err := p.loader.Documents()
		if err != nil {
			return err
		}
		if err := p.vectorizer.TrainEpoch(docs); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		if err := p.loader.Shuffle(); err != nil {
			return err
		}
		p.log.WithField("epoch", epoch+1).Debug("vectorizer epoch complete")
	}
	p.log.WithField("epochs", p.epochs).Info("vectorizer training complete")
	return nil
}

// FitAndEvaluate fits the classifier on the train split, scores it on the
// test split, and indexes the labeled training reviews in the vector store.
func (p *Pipeline) FitAndEvaluate() (classify.Metrics, error) {
	trainX, trainY, trainReviews, err := p.buildFeatures("train")
	if err != nil {
		return classify.Metrics{}, err
	}
	if err := p.classifier.Fit(trainX, trainY); err != nil {
		return classify.Metrics{}, fmt.Errorf("fit classifier: %w", err)
	}

	testX, testY, _, err := p.buildFeatures("test")
	if err != nil {
		return classify.Metrics{}, err
	}
	metrics, err := p.classifier.Evaluate(testX, testY)
	if err != nil {
		return classify.Metrics{}, fmt.Errorf("evaluate classifier: %w", err)
	}

	if err := p.store.Init(p.vectorizer.Dimension()); err != nil {
		return classify.Metrics{}, fmt.Errorf("init vector store: %w", err)
	}
	if err := p.store.Upsert(trainReviews, trainX); err != nil {
		return classify.Metrics{}, fmt.Errorf("index training reviews: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"train":    len(trainX),
		"test":     metrics.Total,
		"accuracy": metrics.Accuracy(),
	}).Info("classifier fitted and scored")
	return metrics, nil
}

// buildFeatures assembles parallel feature/label slices for the labeled
// documents of one split. Rows are filled by a small worker pool; each worker
// owns a disjoint index range.
func (p *Pipeline) buildFeatures(split string) ([][]float64, []int, []domain.Review, error) {
	var selected []record
	for _, r := range p.records {
		if r.split == split && r.review.Label != domain.LabelNone {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return nil, nil, nil, fmt.Errorf("no labeled documents in split %q", split)
	}

	features := make([][]float64, len(selected))
	labels := make([]int, len(selected))
	reviews := make([]domain.Review, len(selected))

	workers := p.workers
	if workers > len(selected) {
		workers = len(selected)
	}
	chunk := (len(selected) + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(selected) {
			hi = len(selected)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				vec, err := p.vectorizer.DocVector(selected[i].review.Tag)
				if err != nil {
					errs[w] = err
					return
				}
				features[i] = vec
				labels[i] = labelCode(selected[i].review.Label)
				reviews[i] = selected[i].review
			}
		}(w, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, nil, nil, fmt.Errorf("build features for split %q: %w", split, err)
		}
	}
	return features, labels, reviews, nil
}

// Classify infers a vector for free text and predicts its sentiment.
func (p *Pipeline) Classify(text string) (domain.Prediction, error) {
	vec, err := p.vectorizer.Infer(tokenize.Words(text))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("infer vector: %w", err)
	}
	code, prob := p.classifier.Predict(vec)
	return domain.Prediction{Label: labelName(code), Probability: prob}, nil
}

// Similar returns the stored training reviews closest to the given text.
func (p *Pipeline) Similar(text string, topK int) ([]domain.SimilarResult, error) {
	vec, err := p.vectorizer.Infer(tokenize.Words(text))
	if err != nil {
		return nil, fmt.Errorf("infer vector: %w", err)
	}
	return p.store.Search(vec, topK)
}

// SaveModel persists the vectorizer and classifier to the given paths; an
// empty path skips that artifact.
func (p *Pipeline) SaveModel(vectorizerPath, classifierPath string) error {
	if vectorizerPath != "" {
		if err := p.vectorizer.Save(vectorizerPath); err != nil {
			return err
		}
		p.log.WithField("path", vectorizerPath).Info("vectorizer saved")
	}
	if classifierPath != "" {
		if err := p.classifier.Save(classifierPath); err != nil {
			return err
		}
		p.log.WithField("path", classifierPath).Info("classifier saved")
	}
	return nil
}

func (p *Pipeline) resolve(tag string) (SourceMeta, error) {
	idx := strings.LastIndex(tag, "_")
	if idx < 0 {
		return SourceMeta{}, fmt.Errorf("malformed tag %q", tag)
	}
	meta, ok := p.meta[tag[:idx]]
	if !ok {
		return SourceMeta{}, fmt.Errorf("no source metadata for tag prefix %q", tag[:idx])
	}
	return meta, nil
}

func labelCode(label string) int {
	if label == domain.LabelPositive {
		return classify.Positive
	}
	return classify.Negative
}

func labelName(code int) string {
	if code == classify.Positive {
		return domain.LabelPositive
	}
	return domain.LabelNegative
}
