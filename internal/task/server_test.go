package task_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/docstore"
)

type testEnv struct {
	router   http.Handler
	userRepo *userrepo.YAMLRepository
	taskRepo *taskrepo.YAMLRepository
	bus      *eventbus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := docstore.NewDir(t.TempDir())
	require.NoError(t, err)

	userRepo := userrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	enricher := task.NewEnricher(user.NewNameCache(userRepo))
	bus := eventbus.New()
	srv := task.NewServer(taskRepo, userRepo, enricher, bus)

	r := chi.NewRouter()
	r.Use(cerr.NewResponseMiddleware())
	// Stand-in for the auth middleware: caller id comes from a test header.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if caller := req.Header.Get("X-Test-Caller"); caller != "" {
				req = req.WithContext(auth.ContextWithCallerID(req.Context(), caller))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/tasks", srv.List)
	r.Post("/tasks", srv.Create)
	r.Put("/tasks/{id}", srv.Update)
	r.Delete("/tasks/{id}", srv.Delete)

	return &testEnv{router: r, userRepo: userRepo, taskRepo: taskRepo, bus: bus}
}

func (e *testEnv) addUser(t *testing.T, id, name string) {
	t.Helper()
	err := e.userRepo.Create(context.Background(), &user.User{
		ID:        id,
		Name:      name,
		Token:     id + "-token",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func (e *testEnv) addTask(t *testing.T, id, owner string, members ...string) {
	t.Helper()
	now := time.Now()
	err := e.taskRepo.Create(context.Background(), &task.Task{
		ID:                id,
		OwnerID:           owner,
		Title:             "Task " + id,
		Description:       "description of " + id,
		Status:            task.DefaultStatus,
		AssignedMemberIDs: members,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
}

func (e *testEnv) request(t *testing.T, caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Test-Caller", caller)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestListVisibleTasks(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")
	env.addUser(t, "u3", "Carol")
	env.addTask(t, "t1", "u1", "u2")
	env.addTask(t, "t2", "u2")
	env.addTask(t, "t3", "u3", "u3")

	ids := func(list []task.Enriched) []string {
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = e.ID
		}
		return out
	}

	rec := env.request(t, "u1", http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"t1"}, ids(decode[[]task.Enriched](t, rec)))

	// u2 sees t1 (assigned) and t2 (owned)
	rec = env.request(t, "u2", http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"t1", "t2"}, ids(decode[[]task.Enriched](t, rec)))

	rec = env.request(t, "u3", http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"t3"}, ids(decode[[]task.Enriched](t, rec)))
}

func TestListVisibleTasksEnrichesNames(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")
	env.addUser(t, "u3", "Carol")
	env.addTask(t, "t1", "u1", "u3", "u2")

	rec := env.request(t, "u1", http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]task.Enriched](t, rec)
	require.Len(t, list, 1)

	assert.Equal(t, task.OwnerRef{ID: "u1", Name: "Alice"}, list[0].Owner)
	// names in stored member order
	assert.Equal(t, []string{"Carol", "Bob"}, list[0].AssignedMembers)
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")

	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "Fix bug",
		"description": "needs fixing",
		"tag":         "bug",
		"dueDate":     due,
		"users":       []string{"u2", "u2"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[task.Wire](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.Owner)
	assert.Equal(t, "Fix bug", created.Title)
	assert.Equal(t, task.DefaultStatus, created.Status)
	// literal input: duplicates and order preserved
	assert.Equal(t, []string{"u2", "u2"}, created.AssignedMembers)
	require.NotNil(t, created.DueDate)
	assert.True(t, created.DueDate.Equal(due))

	stored, err := env.taskRepo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u2"}, stored.AssignedMemberIDs)
}

func TestCreateTaskUnknownMember(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")

	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "Fix bug",
		"description": "needs fixing",
		"users":       []string{"u2", "ghost", "phantom"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]string](t, rec)
	// first missing id in input order
	assert.Equal(t, "User with ID ghost does not exist", body["error"])

	// nothing persisted
	tasks, err := env.taskRepo.ListVisibleTo(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTaskMemberErrorBeatsFieldValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	// both a too-short title and an unknown member: the member error wins
	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "ab",
		"description": "hi",
		"users":       []string{"ghost"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "User with ID ghost does not exist", body["error"])
}

func TestCreateTaskFieldValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "ab",
		"description": "hi",
		"users":       []string{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[struct {
		Errors []cerr.FieldError `json:"errors"`
	}](t, rec)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, cerr.FieldError{Field: "title", Message: "Enter a valid Title"}, body.Errors[0])
	assert.Equal(t, cerr.FieldError{Field: "description", Message: "Description must be of at least 5 characters"}, body.Errors[1])
}

func TestUpdateTaskByOwner(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addTask(t, "t1", "u1")

	rec := env.request(t, "u1", http.MethodPut, "/tasks/t1", map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Task task.Wire `json:"task"`
	}](t, rec)
	assert.Equal(t, "completed", body.Task.Status)
	// absent fields untouched
	assert.Equal(t, "Task t1", body.Task.Title)

	stored, err := env.taskRepo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "completed", stored.Status)
}

func TestUpdateTaskEmptyFieldsIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addTask(t, "t1", "u1")

	// empty strings are "absent", not "clear this field"
	rec := env.request(t, "u1", http.MethodPut, "/tasks/t1", map[string]any{
		"title":       "",
		"description": "",
		"tag":         "urgent",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.taskRepo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Task t1", stored.Title)
	assert.Equal(t, "description of t1", stored.Description)
	assert.Equal(t, "urgent", stored.Tag)
}

func TestUpdateTaskEventCarriesChangedFieldsOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addTask(t, "t1", "u1")
	_, events := env.bus.Subscribe(4)

	rec := env.request(t, "u1", http.MethodPut, "/tasks/t1", map[string]any{
		"title": "renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case ev := <-events:
		assert.Equal(t, eventbus.EventTypeTaskUpdated, ev.Type)
		assert.Equal(t, "t1", ev.TaskID)
		assert.Equal(t, map[string]string{"title": "renamed"}, ev.Metadata)
	case <-time.After(time.Second):
		t.Fatal("update event not published")
	}
}

func TestCreateTaskValidatesCharacterLengths(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	// 2 characters, 4 bytes: still too short
	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "éé",
		"description": "long enough",
		"users":       []string{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Errors []cerr.FieldError `json:"errors"`
	}](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Enter a valid Title", body.Errors[0].Message)

	// 3 characters is enough regardless of byte width
	rec = env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "ééé",
		"description": "ありがとうございます",
		"users":       []string{},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	rec := env.request(t, "u1", http.MethodPut, "/tasks/missing", map[string]any{"title": "new"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Task not found", body["error"])
}

func TestUpdateTaskByNonOwnerStillPersistsPatch(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")
	env.addTask(t, "t1", "u1", "u2")

	rec := env.request(t, "u2", http.MethodPut, "/tasks/t1", map[string]any{
		"title": "hijacked",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Not allowed to update this task", body["error"])

	// the store is mutated before the ownership check; the rejected patch
	// has already stuck
	stored, err := env.taskRepo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "hijacked", stored.Title)
}

func TestDeleteTaskRequiresAssignment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")
	env.addTask(t, "t1", "u1", "u2")

	// the owner is not assigned, so the owner cannot delete
	rec := env.request(t, "u1", http.MethodDelete, "/tasks/t1", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Not Allowed", body["error"])

	// any assigned member can
	rec = env.request(t, "u2", http.MethodDelete, "/tasks/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	success := decode[map[string]string](t, rec)
	assert.Equal(t, "Task has been deleted", success["success"])

	_, err := env.taskRepo.Get(context.Background(), "t1")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestDeleteTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	rec := env.request(t, "u1", http.MethodDelete, "/tasks/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Task not found", body["error"])
}

func TestCreateThenListRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")
	env.addUser(t, "u2", "Bob")

	rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
		"title":       "Fix bug",
		"description": "needs fixing",
		"tag":         "bug",
		"users":       []string{"u2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[task.Wire](t, rec)

	rec = env.request(t, "u2", http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]task.Enriched](t, rec)
	require.Len(t, list, 1)

	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Alice", list[0].Owner.Name)
	assert.Equal(t, []string{"Bob"}, list[0].AssignedMembers)
}

func TestCreateTasksAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "Alice")

	for i := 0; i < 3; i++ {
		rec := env.request(t, "u1", http.MethodPost, "/tasks", map[string]any{
			"title":       fmt.Sprintf("task %d", i),
			"description": "something to do",
			"users":       []string{},
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.request(t, "u1", http.MethodGet, "/tasks", nil)
	list := decode[[]task.Enriched](t, rec)
	assert.Len(t, list, 3)
}
