package pushnotification_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/pushnotification"
	pushsubrepo "github.com/taskdeck/taskdeck/internal/pushsubscription/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/docstore"
)

func newPushRouter(t *testing.T, vapidEnv *config.VAPIDEnv) http.Handler {
	t.Helper()
	store, err := docstore.NewDir(t.TempDir())
	require.NoError(t, err)
	srv := pushnotification.NewServer(vapidEnv, pushsubrepo.NewYAMLRepository(store))

	r := chi.NewRouter()
	r.Use(cerr.NewResponseMiddleware())
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if caller := req.Header.Get("X-Test-Caller"); caller != "" {
				req = req.WithContext(auth.ContextWithCallerID(req.Context(), caller))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/push/vapid-key", srv.VapidKey)
	r.Post("/push/subscriptions", srv.Subscribe)
	r.Delete("/push/subscriptions/{id}", srv.Unsubscribe)
	return r
}

func pushRequest(t *testing.T, router http.Handler, caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Test-Caller", caller)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVapidKey(t *testing.T) {
	router := newPushRouter(t, &config.VAPIDEnv{VAPIDPublicKey: "pub-key"})

	rec := pushRequest(t, router, "u1", http.MethodGet, "/push/vapid-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"publicKey":"pub-key"}`, rec.Body.String())
}

func TestVapidKeyUnconfigured(t *testing.T) {
	router := newPushRouter(t, &config.VAPIDEnv{})

	rec := pushRequest(t, router, "u1", http.MethodGet, "/push/vapid-key", nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestSubscribeIsIdempotentByEndpoint(t *testing.T) {
	router := newPushRouter(t, &config.VAPIDEnv{})
	body := map[string]string{
		"endpoint":  "https://push.example/ep1",
		"p256dhKey": "p256",
		"authKey":   "auth",
	}

	rec := pushRequest(t, router, "u1", http.MethodPost, "/push/subscriptions", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotEmpty(t, first.ID)

	// same endpoint again keeps the same subscription id
	rec = pushRequest(t, router, "u1", http.MethodPost, "/push/subscriptions", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)
}

func TestSubscribeRejectsIncompleteBody(t *testing.T) {
	router := newPushRouter(t, &config.VAPIDEnv{})

	rec := pushRequest(t, router, "u1", http.MethodPost, "/push/subscriptions", map[string]string{
		"endpoint": "https://push.example/ep1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnsubscribeRequiresOwnership(t *testing.T) {
	router := newPushRouter(t, &config.VAPIDEnv{})

	rec := pushRequest(t, router, "u1", http.MethodPost, "/push/subscriptions", map[string]string{
		"endpoint":  "https://push.example/ep1",
		"p256dhKey": "p256",
		"authKey":   "auth",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = pushRequest(t, router, "u2", http.MethodDelete, "/push/subscriptions/"+created.ID, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = pushRequest(t, router, "u1", http.MethodDelete, "/push/subscriptions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":"Subscription has been removed"}`, rec.Body.String())

	rec = pushRequest(t, router, "u1", http.MethodDelete, "/push/subscriptions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
