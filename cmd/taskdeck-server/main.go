package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	server "github.com/taskdeck/taskdeck/internal"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/pushnotification"
	pushsubrepo "github.com/taskdeck/taskdeck/internal/pushsubscription/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/clog"
	"github.com/taskdeck/taskdeck/pkg/docstore"
	"github.com/taskdeck/taskdeck/pkg/panicerr"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttrsHandler(handler)))

	// Setup storage
	var store docstore.Store
	var localDir *docstore.Dir
	switch env.StorageEnv.Type {
	case "s3":
		store, err = docstore.NewS3(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 store", "error", err)
			os.Exit(1)
		}
	default:
		localDir, err = docstore.NewDir(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local store", "error", err)
			os.Exit(1)
		}
		store = localDir
	}

	// Setup repositories
	userRepo := userrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup read model and events
	names := user.NewNameCache(userRepo)
	enricher := task.NewEnricher(names)
	bus := eventbus.New()

	// Setup identity resolution
	resolve := func(ctx context.Context, token string) (string, error) {
		u, err := userRepo.GetByToken(ctx, token)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}

	// Setup servers
	userServer := user.NewServer(userRepo)
	taskServer := task.NewServer(taskRepo, userRepo, enricher, bus)

	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushServer := pushnotification.NewServer(vapidEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, taskRepo, names, pushSender)

	srv := server.NewServer(env, resolve, userServer, taskServer, pushServer)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	runDispatcher := panicerr.Safe(func() error {
		pushDispatcher.Start(ctx)
		return nil
	})
	go func() {
		if err := runDispatcher(); err != nil {
			slog.Error("push dispatcher stopped", "error", err)
		}
	}()

	if localDir != nil {
		// Keep enrichment names fresh when user documents change on disk.
		usersDir := filepath.Join(localDir.Root(), userrepo.UsersPrefix)
		if err := os.MkdirAll(usersDir, 0o755); err != nil {
			slog.Error("failed to create users dir", "error", err)
			os.Exit(1)
		}
		watch := panicerr.SafeContext(func(ctx context.Context) error {
			return names.Watch(ctx, usersDir)
		})
		go func() {
			if err := watch(ctx); err != nil {
				slog.Warn("user directory watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
