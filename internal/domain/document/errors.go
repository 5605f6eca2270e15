package document

import "errors"

var (
	// ErrNotExtractable means the file produced no meaningful text.
	ErrNotExtractable = errors.New("could not extract meaningful text from the file")
	// ErrUnsupportedType means the file extension is not accepted.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge means the upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
)
