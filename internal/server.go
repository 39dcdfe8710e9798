package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/pushnotification"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type Server struct {
	server     *http.Server
	env        *config.Env
	resolve    auth.Resolver
	userServer *user.Server
	taskServer *task.Server
	pushServer *pushnotification.Server
}

func NewServer(
	env *config.Env,
	resolve auth.Resolver,
	userServer *user.Server,
	taskServer *task.Server,
	pushServer *pushnotification.Server,
) *Server {
	return &Server{
		env:        env,
		resolve:    resolve,
		userServer: userServer,
		taskServer: taskServer,
		pushServer: pushServer,
	}
}

// Handler builds the full route tree. Exposed separately from ListenAndServe
// so tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.RequestLogger(),
			cerr.NewResponseMiddleware(),
		)
		r.NotFound(func(_ http.ResponseWriter, req *http.Request) {
			cerr.SetNewJSONError(req.Context(), cerr.NotFound, "not found", nil)
		})

		// Registration is the only route reachable without a token.
		r.Post("/users", s.userServer.Register)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.resolve))

			r.Get("/users", s.userServer.List)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.taskServer.List)
				r.Post("/", s.taskServer.Create)
				r.Put("/{id}", s.taskServer.Update)
				r.Delete("/{id}", s.taskServer.Delete)
			})

			r.Route("/push", func(r chi.Router) {
				r.Get("/vapid-key", s.pushServer.VapidKey)
				r.Post("/subscriptions", s.pushServer.Subscribe)
				r.Delete("/subscriptions/{id}", s.pushServer.Unsubscribe)
			})
		})
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)

	return h2c.NewHandler(handler, &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of every
// request, so cancelling it (shutdown signal) also cancels in-flight work.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
