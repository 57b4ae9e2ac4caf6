package model

// StudyFile is the metadata row for an uploaded document. The parsed
// text is immutable after creation; re-uploading produces a new file id.
type StudyFile struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	WordCount int    `json:"word_count"`
	// Text holds the extracted text, capped at storage time.
	Text       string `json:"text,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
	Ctime      int64  `json:"ctime"`
}
