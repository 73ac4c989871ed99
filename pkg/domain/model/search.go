package model

// SearchResult is one retrieved document with its similarity score.
// Distance is the squared L2 distance between unit-normalized vectors;
// Similarity is reported as 1 - distance, which approximates cosine
// similarity for unit vectors and may go negative for distant ones.
type SearchResult struct {
	Document   *Document `json:"document"`
	Similarity float64   `json:"similarity"`
	Distance   float64   `json:"distance"`
}
