package model

// ChatMessage is one stored turn: the user message and the reply it got.
// FileID is nil when the turn was not grounded on an uploaded file.
type ChatMessage struct {
	ID          int64   `json:"id"`
	SessionID   string  `json:"session_id"`
	UserMessage string  `json:"user_message"`
	AIResponse  string  `json:"ai_response"`
	FileID      *string `json:"file_id,omitempty"`
	Ctime       int64   `json:"ctime"`
}
