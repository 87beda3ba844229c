package models

// Document is a single page returned by a crawl.
type Document struct {
	SourceURL string
	Content   string
}

// RecordMetadata is the payload stored alongside an embedding.
type RecordMetadata struct {
	URL            string `json:"url"`
	ContentPreview string `json:"content_preview"`
	FullContent    string `json:"full_content"`
}

// Record is an embedded document ready for upsert into the vector store.
type Record struct {
	ID        string
	Embedding []float32
	Metadata  RecordMetadata
}

// Match is a single similarity-search hit. Score is cosine similarity in
// [0,1]; results are ordered best first.
type Match struct {
	ID       string
	Score    float64
	Metadata RecordMetadata
}
