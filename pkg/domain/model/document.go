package model

// Document is one indexed unit of retrievable event content. Content is
// the canonicalized text blob used for both embedding and context
// injection; Metadata carries auxiliary display fields (city, url,
// dates) that are never embedded.
type Document struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
