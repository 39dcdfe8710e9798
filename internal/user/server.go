package user

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

// Summary is the wire shape of a directory entry: just enough to populate an
// assignment picker.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type registerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register creates a user and mints its API token. The token is returned here
// and never again.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid request body", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Name is required", nil)
		return
	}

	u := &User{
		ID:        ulid.Make().String(),
		Name:      req.Name,
		Email:     strings.TrimSpace(req.Email),
		Token:     auth.NewToken(),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttr(ctx, "user_id", u.ID)

	cerr.SetJSONResponse(ctx, registerResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Token:     u.Token,
		CreatedAt: u.CreatedAt,
	})
}

// List returns every registered user's id and name. Any authenticated caller
// may enumerate the directory.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	summaries := make([]Summary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, Summary{ID: u.ID, Name: u.Name})
	}
	cerr.SetJSONResponse(ctx, summaries)
}
