package models

// IngestStatus is a point-in-time snapshot of an ingestion run. Errors is
// ordered; per-seed and per-document failures accumulate there without
// aborting the run.
type IngestStatus struct {
	InProgress     bool     `json:"in_progress"`
	Completed      bool     `json:"completed"`
	TotalURLs      int      `json:"total_urls"`
	ProcessedURLs  int      `json:"processed_urls"`
	SuccessfulDocs int      `json:"successful_docs"`
	Errors         []string `json:"errors"`
}
