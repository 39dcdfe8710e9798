package pushnotification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/pushsubscription"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
	}
}

type vapidKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

func (s *Server) VapidKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(ctx, vapidKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

type subscribeRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
}

type subscribeResponse struct {
	ID string `json:"id"`
}

// Subscribe registers a webpush endpoint for the caller. Re-registering an
// existing endpoint refreshes its keys and owner.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid request body", err)
		return
	}
	if req.Endpoint == "" || req.P256dhKey == "" || req.AuthKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint, p256dhKey and authKey are required", nil)
		return
	}

	sub, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	if err == nil {
		sub.UserID = callerID
		sub.P256dhKey = req.P256dhKey
		sub.AuthKey = req.AuthKey
		if err := s.repo.Create(ctx, sub); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, subscribeResponse{ID: sub.ID})
		return
	}
	if !cerr.IsCode(err, cerr.NotFound) {
		cerr.SetJSONError(ctx, err)
		return
	}

	sub = &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		UserID:    callerID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, subscribeResponse{ID: sub.ID})
}

type unsubscribeResponse struct {
	Success string `json:"success"`
}

// Unsubscribe removes one of the caller's subscriptions by id.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)
	subID := chi.URLParam(r, "id")

	sub, err := s.repo.Get(ctx, subID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if sub.UserID != callerID {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "Not Allowed", nil)
		return
	}
	if err := s.repo.Delete(ctx, subID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, unsubscribeResponse{Success: "Subscription has been removed"})
}
