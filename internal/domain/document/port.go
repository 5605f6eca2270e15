package document

import "context"

// Extractor turns an uploaded file on local disk into plain text.
// It returns ErrNotExtractable when no usable text can be produced.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ArchiveStore keeps a copy of the original upload.
type ArchiveStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
