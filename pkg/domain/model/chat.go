package model

// ChatResult is the outcome of one chat pipeline run.
// Invariant: UsedRAG == false implies Sources is empty; UsedRAG == true
// implies all Sources came from a single index generation.
type ChatResult struct {
	Response string          `json:"response"`
	Sources  []*SearchResult `json:"sources"`
	Query    string          `json:"query"`
	UsedRAG  bool            `json:"used_rag"`
}
