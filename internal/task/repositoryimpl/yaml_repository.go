package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/docstore"
)

const tasksPrefix = "tasks"

type YAMLRepository struct {
	store docstore.Store
}

func NewYAMLRepository(s docstore.Store) *YAMLRepository {
	return &YAMLRepository{store: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", tasksPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	exists, err := r.store.Has(ctx, key(t.ID))
	if err != nil {
		return cerr.WrapStoreWriteError("task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "Task already exists", nil)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("marshal task: %w", err))
	}
	if err := r.store.Put(ctx, key(t.ID), data); err != nil {
		return cerr.WrapStoreWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStoreReadError("task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("unmarshal task: %w", err))
	}
	return &t, nil
}

func (r *YAMLRepository) ListVisibleTo(ctx context.Context, userID string) ([]*task.Task, error) {
	keys, err := r.store.Keys(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStoreReadError("tasks", err)
	}
	sort.Strings(keys)

	var visible []*task.Task
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		if !t.VisibleTo(userID) {
			continue
		}
		visible = append(visible, &t)
	}
	return visible, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task) error {
	exists, err := r.store.Has(ctx, key(t.ID))
	if err != nil {
		return cerr.WrapStoreWriteError("task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "Task not found", nil)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("marshal task: %w", err))
	}
	if err := r.store.Put(ctx, key(t.ID), data); err != nil {
		return cerr.WrapStoreWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStoreDeleteError("task", err)
	}
	return nil
}
