package model

// ChunkFailure records one chunk that could not be embedded or stored.
type ChunkFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestReport summarizes one ingestion run. Partial failure is a
// normal outcome; callers inspect Failed instead of getting an error.
type IngestReport struct {
	FileID      string         `json:"file_id"`
	TotalChunks int            `json:"total_chunks"`
	Processed   int            `json:"processed"`
	Succeeded   []int          `json:"succeeded"`
	Failed      []ChunkFailure `json:"failed"`
	Truncated   bool           `json:"truncated"`
}
