package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// GetByToken resolves an API token to its user, or a NotFound error.
	GetByToken(ctx context.Context, token string) (*User, error)
	// ExistingIDs reports which of the given ids reference a registered user,
	// in a single batch against the store.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}
