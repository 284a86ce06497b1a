package tokenize

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Words lowercases the text and extracts unicode word tokens. Punctuation is
// dropped; apostrophes inside words ("don't") are kept.
func Words(text string) []string {
	lower := strings.ToLower(text)
	return wordPattern.FindAllString(lower, -1)
}

// Stopwords returns the shared English stopword set used by frequency-based
// vectorizers. Neural vectorizers keep stopwords and rely on frequency
// subsampling instead.
func Stopwords() map[string]struct{} {
	m := make(map[string]struct{}, len(stopwordList))
	for _, w := range stopwordList {
		m[w] = struct{}{}
	}
	return m
}

var stopwordList = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
}
