package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFileID returns an opaque identity for an uploaded document.
func NewFileID() string {
	return uuid.NewString()
}

// NewSessionID returns a chat session token. Sessions are anonymous;
// the token is identity enough for history lookup.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}
