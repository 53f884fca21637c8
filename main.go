package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/account-portal/internal/config"
	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/handler"
	"github.com/msomdec/account-portal/internal/repository/disk"
	"github.com/msomdec/account-portal/internal/repository/jsonfile"
	"github.com/msomdec/account-portal/internal/repository/s3store"
	"github.com/msomdec/account-portal/internal/repository/sqlite"
	"github.com/msomdec/account-portal/internal/service"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := openStores(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	users, files := st.users, st.files

	sessions := service.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)
	authService := service.NewAuthService(users, sessions, cfg.Session.BcryptCost)
	profileService := service.NewProfileService(users, files)

	var authLimiter *service.TokenBucket
	if cfg.HTTP.AuthRateLimit > 0 {
		authLimiter = service.NewTokenBucket(cfg.HTTP.RateLimitPerSecond(), float64(cfg.HTTP.AuthRateLimit))
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, sessions, profileService, files, authLimiter, cfg.Session.CookieSecure)

	h := handler.Chain(mux, handler.ChainOptions{
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"store", cfg.Store.Driver,
			"uploads", cfg.Upload.Driver,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// stores holds the backends selected by the configuration.
type stores struct {
	users domain.UserRepository
	files domain.FileStore
	db    domain.Database // nil for the JSON store
}

// Close releases the database, if one was opened.
func (s *stores) Close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.Error("close database", "error", err)
	}
}

// openStores builds the credential store and file store selected by cfg.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	st := &stores{}

	var sqlDB *sqlite.DB
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		var err error
		sqlDB, err = sqlite.New(cfg.Store.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		st.db = sqlDB
		if err := st.db.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied", "path", cfg.Store.DatabasePath)
		st.users = sqlDB.Users()
	default:
		repo, err := jsonfile.Open(cfg.Store.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("open users file: %w", err)
		}
		slog.Info("using JSON user store", "path", repo.Path())
		st.users = repo
	}

	switch cfg.Upload.Driver {
	case config.UploadSQLite:
		st.files = sqlDB.FileStore()
	case config.UploadS3:
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.Endpoint != "",
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		st.files = store
	default:
		store, err := disk.NewFileStore(cfg.Upload.Dir)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open upload dir: %w", err)
		}
		slog.Info("storing uploads on disk", "dir", store.Dir())
		st.files = store
	}

	return st, nil
}
