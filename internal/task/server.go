package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type Server struct {
	repo     Repository
	userRepo user.Repository
	enricher *Enricher
	eventBus *eventbus.Bus
}

func NewServer(repo Repository, userRepo user.Repository, enricher *Enricher, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		userRepo: userRepo,
		enricher: enricher,
		eventBus: eventBus,
	}
}

// Wire is the raw task shape returned by create and update. Listing returns
// the Enriched shape instead.
type Wire struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Tag             string     `json:"tag,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Status          string     `json:"status"`
	AssignedMembers []string   `json:"assignedMembers"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toWire(t *Task) Wire {
	members := t.AssignedMemberIDs
	if members == nil {
		members = []string{}
	}
	return Wire{
		ID:              t.ID,
		Owner:           t.OwnerID,
		Title:           t.Title,
		Description:     t.Description,
		Tag:             t.Tag,
		DueDate:         t.DueDate,
		Status:          t.Status,
		AssignedMembers: members,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// List returns every task the caller owns or is assigned to, enriched with
// owner and member names.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)

	tasks, err := s.repo.ListVisibleTo(ctx, callerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	enriched := make([]*Enriched, 0, len(tasks))
	for _, t := range tasks {
		e, err := s.enricher.Enrich(ctx, t)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		enriched = append(enriched, e)
	}
	cerr.SetJSONResponse(ctx, enriched)
}

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tag         string     `json:"tag"`
	DueDate     *time.Time `json:"dueDate"`
	Users       []string   `json:"users"`
}

// Create persists a new task owned by the caller. Assigned members are taken
// exactly as given: order preserved, duplicates preserved. Member existence is
// checked before the field rules; when both fail, the member error wins.
func (s *Server) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid request body", err)
		return
	}

	// One batch existence query, then report the first missing id in input
	// order. Nothing is persisted unless every referenced member exists.
	existing, err := s.userRepo.ExistingIDs(ctx, req.Users)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	for _, id := range req.Users {
		if !existing[id] {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("User with ID %s does not exist", id), nil)
			return
		}
	}

	if fields := validateFields(req.Title, req.Description); len(fields) > 0 {
		cerr.SetJSONError(ctx, cerr.NewFieldErrors(fields))
		return
	}

	now := time.Now()
	t := &Task{
		ID:                ulid.Make().String(),
		OwnerID:           callerID,
		Title:             req.Title,
		Description:       req.Description,
		Tag:               req.Tag,
		DueDate:           req.DueDate,
		Status:            DefaultStatus,
		AssignedMemberIDs: req.Users,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttr(ctx, "task_id", t.ID)

	s.eventBus.PublishNew(eventbus.EventTypeTaskCreated, t.ID, callerID, map[string]string{
		"title": t.Title,
	})

	cerr.SetJSONResponse(ctx, toWire(t))
}

type updateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tag         string     `json:"tag"`
	DueDate     *time.Time `json:"dueDate"`
	Status      string     `json:"status"`
}

type updateResponse struct {
	Task Wire `json:"task"`
}

// Update applies a patch-by-presence: only non-empty fields change, so this
// call cannot clear a field back to empty. Only the owner may update.
//
// The patch is persisted before the ownership check runs; a rejected
// non-owner update therefore still mutates the stored task. Callers depend on
// this ordering, so it stays.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)
	taskID := chi.URLParam(r, "id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid request body", err)
		return
	}

	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	changed := map[string]string{}
	if req.Title != "" {
		t.Title = req.Title
		changed["title"] = t.Title
	}
	if req.Description != "" {
		t.Description = req.Description
		changed["description"] = t.Description
	}
	if req.Tag != "" {
		t.Tag = req.Tag
		changed["tag"] = t.Tag
	}
	if req.Status != "" {
		t.Status = req.Status
		changed["status"] = t.Status
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
		changed["dueDate"] = t.DueDate.Format(time.RFC3339)
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if t.OwnerID != callerID {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "Not allowed to update this task", nil)
		return
	}
	clog.AddAttr(ctx, "task_id", t.ID)

	// Metadata carries only the fields this patch actually touched.
	s.eventBus.PublishNew(eventbus.EventTypeTaskUpdated, t.ID, callerID, changed)

	cerr.SetJSONResponse(ctx, updateResponse{Task: toWire(t)})
}

type deleteResponse struct {
	Success string `json:"success"`
}

// Delete removes a task permanently. Deletion is authorized by assignment
// membership, not ownership: an owner who is not self-assigned cannot delete,
// while any assigned member can.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)
	taskID := chi.URLParam(r, "id")

	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if !t.AssignedTo(callerID) {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "Not Allowed", nil)
		return
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttr(ctx, "task_id", taskID)

	s.eventBus.PublishNew(eventbus.EventTypeTaskDeleted, taskID, callerID, nil)

	cerr.SetJSONResponse(ctx, deleteResponse{Success: "Task has been deleted"})
}
