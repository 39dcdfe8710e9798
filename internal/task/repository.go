package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// ListVisibleTo returns every task the user owns or is assigned to,
	// ordered by id (ULIDs, so creation order).
	ListVisibleTo(ctx context.Context, userID string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}
