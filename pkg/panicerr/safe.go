package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

func run(fn func() error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn()
	})
	if err != nil {
		return err
	}
	return catcher.Recovered().AsError()
}

// Safe wraps fn so that a panic inside it comes back as an error instead of
// taking the process down. Used for long-lived goroutines whose death should
// be logged, not fatal.
func Safe(fn func() error) func() error {
	return func() error {
		return run(fn)
	}
}

// SafeContext is Safe for context-taking functions.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return run(func() error {
			return fn(ctx)
		})
	}
}
