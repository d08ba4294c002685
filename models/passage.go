package models

// Passage is a unit of extracted document text with its provenance.
// Passages are immutable once extracted; their identity inside an index is positional.
type Passage struct {
	Text     string `json:"text"`
	Source   string `json:"source,omitempty"`
	Page     string `json:"page,omitempty"`
	FullPath string `json:"full_path,omitempty"`
}

// ScoredPassage is one entry of a query result set.
type ScoredPassage struct {
	Passage
	Score float64 `json:"score"`
}
