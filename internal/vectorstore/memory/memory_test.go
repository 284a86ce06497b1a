package memory

import (
	"testing"

	"sentvec/internal/domain"
)

func TestInit_InvalidDimension(t *testing.T) {
	s := NewStorage()
	if err := s.Init(0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s := NewStorage()
	if err := s.Init(3); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := s.Upsert(
		[]domain.Review{{Tag: "A_0", Text: "good", Label: domain.LabelPositive}},
		[][]float64{{1, 2}},
	)
	if err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
}

func TestSearch_TopHitIsSelf(t *testing.T) {
	s := NewStorage()
	if err := s.Init(3); err != nil {
		t.Fatalf("init: %v", err)
	}
	reviews := []domain.Review{
		{Tag: "A_0", Text: "good movie", Label: domain.LabelPositive},
		{Tag: "A_1", Text: "bad movie", Label: domain.LabelNegative},
		{Tag: "B_0", Text: "ok film", Label: domain.LabelPositive},
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	if err := s.Upsert(reviews, vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := s.Search([]float64{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].Review.Tag != "A_0" {
		t.Fatalf("expected A_0 as top hit, got %s", res[0].Review.Tag)
	}
	if res[0].Score < res[1].Score {
		t.Fatal("expected descending scores")
	}
}

func TestUpsert_ReplacesExistingTag(t *testing.T) {
	s := NewStorage()
	if err := s.Init(2); err != nil {
		t.Fatalf("init: %v", err)
	}
	rev := []domain.Review{{Tag: "A_0", Text: "v1", Label: domain.LabelPositive}}
	if err := s.Upsert(rev, [][]float64{{1, 0}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	rev[0].Text = "v2"
	if err := s.Upsert(rev, [][]float64{{0, 1}}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	res, err := s.Search([]float64{0, 1}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected a single stored review, got %d", len(res))
	}
	if res[0].Review.Text != "v2" {
		t.Fatalf("expected replacement, got %q", res[0].Review.Text)
	}
}
