package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/pushsubscription"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/docstore"
)

const subscriptionsPrefix = "pushsubscriptions"

type YAMLRepository struct {
	store docstore.Store
}

func NewYAMLRepository(s docstore.Store) *YAMLRepository {
	return &YAMLRepository{store: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", subscriptionsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, sub *pushsubscription.Subscription) error {
	data, err := yaml.Marshal(sub)
	if err != nil {
		return cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("marshal subscription: %w", err))
	}
	if err := r.store.Put(ctx, key(sub.ID), data); err != nil {
		return cerr.WrapStoreWriteError("subscription", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*pushsubscription.Subscription, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStoreReadError("subscription", err)
	}
	var sub pushsubscription.Subscription
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return nil, cerr.NewError(cerr.Internal, "Internal Server Error", fmt.Errorf("unmarshal subscription: %w", err))
	}
	return &sub, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*pushsubscription.Subscription, error) {
	keys, err := r.store.Keys(ctx, subscriptionsPrefix)
	if err != nil {
		return nil, cerr.WrapStoreReadError("subscriptions", err)
	}
	sort.Strings(keys)

	var subs []*pushsubscription.Subscription
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var sub pushsubscription.Subscription
		if err := yaml.Unmarshal(data, &sub); err != nil {
			continue
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}

func (r *YAMLRepository) ListByUser(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var subs []*pushsubscription.Subscription
	for _, sub := range all {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStoreDeleteError("subscription", err)
	}
	return nil
}

func (r *YAMLRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range all {
		if sub.Endpoint == endpoint {
			return sub, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "Subscription not found", nil)
}
