package report

import "context"

// Repository port for persisting and querying archived analyses
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Report, error)
	Ping(ctx context.Context) error
}
