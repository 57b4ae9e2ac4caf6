package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrParseFailed
	ErrAIUnavailable
	ErrStoreFailed
	ErrTooMany
)
