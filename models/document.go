package models

// UploadResponse represents the response after a document was stored and the index rebuilt
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Passages int    `json:"passages"`
}

// RebuildResponse reports the size of a freshly built index
type RebuildResponse struct {
	Message  string `json:"message"`
	Passages int    `json:"passages"`
}
