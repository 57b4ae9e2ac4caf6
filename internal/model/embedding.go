package model

// ChunkEmbedding is one stored chunk of a file with its vector.
// The vector dimension is whatever the embedding provider produced;
// records embedded by different providers may coexist for one file and
// are isolated at ranking time.
type ChunkEmbedding struct {
	ID          int64             `json:"id"`
	FileID      string            `json:"file_id"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Content     string            `json:"content"`
	Embedding   []float32         `json:"embedding"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Ctime       int64             `json:"ctime"`
}

// Match is an ephemeral ranking result; never persisted.
type Match struct {
	Content    string            `json:"content"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EmbeddingStats summarizes the stored chunks of one file.
type EmbeddingStats struct {
	FileID          string `json:"file_id"`
	TotalEmbeddings int    `json:"total_embeddings"`
	AvgChunkLength  int    `json:"avg_chunk_length"`
	FirstCtime      int64  `json:"first_ctime"`
	LastCtime       int64  `json:"last_ctime"`
}
