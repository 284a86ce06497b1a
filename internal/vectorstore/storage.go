package vectorstore

import "sentvec/internal/domain"

// Storage persists review vectors keyed by tag and supports similarity
// search over them.
type Storage interface {
	Init(dimension int) error
	Upsert(reviews []domain.Review, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SimilarResult, error)
	Clear() error
}
