package clog

import (
	"context"
	"sync"
)

// ctxAttrs is a mutable, request-scoped attribute bag. Middleware seeds it at
// the start of a request and any code below can add attributes that end up on
// the single request log line.
type ctxAttrs struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type ctxAttrsKey struct{}

// ContextWithAttrs returns a context carrying an empty attribute bag.
func ContextWithAttrs(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrsKey{}, &ctxAttrs{attrs: make(map[string]any)})
}

// AddAttr records a single attribute on the request's bag, if present.
func AddAttr(ctx context.Context, key string, value any) {
	bag, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	bag.mu.Lock()
	bag.attrs[key] = value
	bag.mu.Unlock()
}

// AddAttrs records several attributes at once.
func AddAttrs(ctx context.Context, attrs map[string]any) {
	bag, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	bag.mu.Lock()
	for k, v := range attrs {
		bag.attrs[k] = v
	}
	bag.mu.Unlock()
}

// Attrs returns a copy of the bag's current contents.
func Attrs(ctx context.Context) map[string]any {
	bag, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	bag.mu.RLock()
	defer bag.mu.RUnlock()
	out := make(map[string]any, len(bag.attrs))
	for k, v := range bag.attrs {
		out[k] = v
	}
	return out
}

const (
	// ErrorAttrKey carries the request's error on the log line.
	ErrorAttrKey = "error.message"
	// StackAttrKey carries a captured stack trace on the log line.
	StackAttrKey = "error.stack"
	// CallerAttrKey carries the resolved caller user id.
	CallerAttrKey = "caller_id"
)

func AddError(ctx context.Context, err error) {
	AddAttr(ctx, ErrorAttrKey, err)
}

func AddStack(ctx context.Context, stack string) {
	AddAttr(ctx, StackAttrKey, stack)
}
