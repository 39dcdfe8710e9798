package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

// Resolver turns a request credential into a caller user id. It is the only
// thing the middleware knows about identity; storage-backed resolution is
// wired in by the caller.
type Resolver func(ctx context.Context, token string) (callerID string, err error)

type callerIDKey struct{}

// CallerID returns the authenticated caller's user id, or "" when the request
// did not pass through the middleware.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(callerIDKey{}).(string)
	return id
}

// ContextWithCallerID is exposed for tests that exercise handlers directly.
func ContextWithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey{}, callerID)
}

// Middleware resolves the request's bearer token to a caller id before any
// handler runs. Requests without a resolvable identity are rejected with 401
// and never reach the handlers.
func Middleware(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := tokenFromRequest(r)
			if token == "" {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "Please authenticate using a valid token", nil)
				return
			}
			callerID, err := resolve(ctx, token)
			if err != nil || callerID == "" {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "Please authenticate using a valid token", err)
				return
			}

			clog.AddAttr(ctx, clog.CallerAttrKey, callerID)
			next.ServeHTTP(w, r.WithContext(ContextWithCallerID(ctx, callerID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		if strings.HasPrefix(v, "Bearer ") {
			return strings.TrimPrefix(v, "Bearer ")
		}
		return v
	}
	return r.Header.Get("X-Auth-Token")
}
