package session

import "context"

// Patch derives the next version of a record from the current one.
type Patch func(Record) Record

// Store keeps session records. Only the request that created a record writes
// to it; any number of readers may poll concurrently.
type Store interface {
	Create(ctx context.Context, id string, rec Record) error
	Update(ctx context.Context, id string, patch Patch) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
