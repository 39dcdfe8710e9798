package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/docstore"
)

const usersPrefix = "users"

// UsersPrefix is the store prefix the user directory lives under. Exposed so
// the local-storage watcher can point fsnotify at the right directory.
const UsersPrefix = usersPrefix

type YAMLRepository struct {
	store docstore.Store
}

func NewYAMLRepository(s docstore.Store) *YAMLRepository {
	return &YAMLRepository{store: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", usersPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, u *user.User) error {
	exists, err := r.store.Has(ctx, key(u.ID))
	if err != nil {
		return cerr.WrapStoreWriteError("user", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "User already exists", nil)
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("marshal user: %w", err))
	}
	if err := r.store.Put(ctx, key(u.ID), data); err != nil {
		return cerr.WrapStoreWriteError("user", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*user.User, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStoreReadError("user", err)
	}
	var u user.User
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("unmarshal user: %w", err))
	}
	return &u, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*user.User, error) {
	keys, err := r.store.Keys(ctx, usersPrefix)
	if err != nil {
		return nil, cerr.WrapStoreReadError("users", err)
	}
	sort.Strings(keys)

	var users []*user.User
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var u user.User
		if err := yaml.Unmarshal(data, &u); err != nil {
			continue
		}
		users = append(users, &u)
	}
	return users, nil
}

func (r *YAMLRepository) GetByToken(ctx context.Context, token string) (*user.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Token != "" && u.Token == token {
			return u, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "User not found", nil)
}

func (r *YAMLRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, done := existing[id]; done {
			continue
		}
		ok, err := r.store.Has(ctx, key(id))
		if err != nil {
			return nil, cerr.WrapStoreReadError("user", err)
		}
		existing[id] = ok
	}
	return existing, nil
}
