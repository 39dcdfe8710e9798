package cerr

import (
	"context"
	"net/http"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	response any
	err      error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	rr, _ := ctx.Value(responseReceiverKey{}).(*responseReceiver)
	return rr
}

// SetJSONResponse records the success payload for the current request.
func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

// SetJSONError records the failure for the current request.
func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

// SetNewJSONError is shorthand for SetJSONError(NewError(...)).
func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewResponseMiddleware wires a response receiver into the request context and
// serializes whatever the handler deposited once it returns. Handlers under
// this middleware never touch the ResponseWriter themselves.
func NewResponseMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}
