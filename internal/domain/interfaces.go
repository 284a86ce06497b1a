package domain

// Sentiment labels attached to corpus sources. Sources labeled none take part
// in vector training but never in classifier fitting or scoring.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNone     = "none"
)

// TaggedDocument is one tokenized line of a corpus source together with its
// synthetic tag "<prefix>_<line_index>".
type TaggedDocument struct {
	Words []string
	Tag   string
}

// Review is the stored form of a training document: its tag, the review text
// and the sentiment label of its source.
type Review struct {
	Tag   string
	Text  string
	Label string
}

// Prediction is the classifier verdict for a piece of text.
type Prediction struct {
	Label       string
	Probability float64
}

// SimilarResult is a stored review matched by vector similarity.
type SimilarResult struct {
	Review Review
	Score  float64
}

// Vectorizer learns a fixed-length numeric vector per tagged document plus a
// way to infer vectors for unseen text. Build runs once over the materialized
// collection; TrainEpoch runs one pass in whatever order the caller presents
// the documents, so the caller controls reshuffling between epochs.
type Vectorizer interface {
	Name() string
	Build(docs []TaggedDocument) error
	TrainEpoch(docs []TaggedDocument) error
	Dimension() int
	DocVector(tag string) ([]float64, error)
	Infer(words []string) ([]float64, error)
	Save(path string) error
	Load(path string) error
}

// Classifier fits on parallel feature/label slices and predicts a binary
// sentiment with a confidence for the predicted class.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	Predict(vector []float64) (label int, probability float64)
	Score(features [][]float64, labels []int) (float64, error)
}
