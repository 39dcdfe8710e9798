package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeRecoversPanic(t *testing.T) {
	fn := Safe(func() error {
		panic("worker blew up")
	})

	err := fn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker blew up")
}

func TestSafePassesThroughError(t *testing.T) {
	want := errors.New("plain failure")
	fn := Safe(func() error {
		return want
	})

	assert.Equal(t, want, fn())
}

func TestSafeNilOnSuccess(t *testing.T) {
	fn := Safe(func() error {
		return nil
	})

	assert.NoError(t, fn())
}

func TestSafeContextRecoversPanic(t *testing.T) {
	fn := SafeContext(func(ctx context.Context) error {
		panic("watcher blew up")
	})

	err := fn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watcher blew up")
}

func TestSafeContextPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	fn := SafeContext(func(ctx context.Context) error {
		if ctx.Value(key{}) != "v" {
			return errors.New("context not forwarded")
		}
		return nil
	})

	assert.NoError(t, fn(ctx))
}
