package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/helix/epe-server/internal/auth"
	"github.com/helix/epe-server/internal/blob"
	"github.com/helix/epe-server/internal/catalog"
	"github.com/helix/epe-server/internal/config"
	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/logger"
	"github.com/helix/epe-server/internal/plans"
	"github.com/helix/epe-server/internal/reports"
	"github.com/helix/epe-server/internal/storage"
	"github.com/helix/epe-server/internal/storage/memory"
	"github.com/helix/epe-server/internal/storage/postgres"
	"github.com/helix/epe-server/internal/storage/sqlite"
)

// Storage backends reported by StorageKind.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	log            *logger.Logger
	mux            *http.ServeMux
	storage        storage.Storage
	storageKind    string
	cache          *catalog.RedisCache
	catalog        *catalog.Service
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт новый HTTP сервер
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{
		config: cfg,
		log:    log,
		mux:    http.NewServeMux(),
	}

	if err := s.initStorage(ctx); err != nil {
		return nil, err
	}
	s.initCatalog(ctx)
	if err := s.seedDefaultCatalog(ctx); err != nil {
		s.Close()
		return nil, err
	}

	blobStore, blobMode, err := blob.NewBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	log.Info("reports blob mode", "mode", blobMode)

	s.routes(blobStore)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// initStorage выбирает хранилище: Postgres, затем SQLite, затем память
func (s *Server) initStorage(ctx context.Context) error {
	switch {
	case s.config.DatabaseURL != "":
		s.log.Info("connecting to PostgreSQL")
		pg, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			s.log.Warn("PostgreSQL unavailable, fallback to in-memory storage", "error", err)
			s.storage, s.storageKind = memory.New(), StorageMemory
			return nil
		}
		s.storage, s.storageKind = pg, StoragePostgres

	case s.config.SQLitePath != "":
		lite, err := sqlite.New(ctx, s.config.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", s.config.SQLitePath, err)
		}
		s.storage, s.storageKind = lite, StorageSQLite

	default:
		s.storage, s.storageKind = memory.New(), StorageMemory
	}

	s.log.Info("storage selected", "kind", s.storageKind)
	return nil
}

func (s *Server) initCatalog(ctx context.Context) {
	var cache catalog.Cache
	if s.config.RedisURL != "" {
		rc, err := catalog.NewRedisCache(ctx, s.config.RedisURL)
		if err != nil {
			s.log.Warn("redis unavailable, catalog cache disabled", "error", err)
		} else {
			s.cache = rc
			cache = rc
			s.log.Info("catalog cache enabled", "ttl", s.config.CatalogCacheTTL)
		}
	}
	s.catalog = catalog.NewService(s.storage, cache, s.config.CatalogCacheTTL, s.log)
}

// seedDefaultCatalog loads the bundled catalog into memory storage, and into
// SQLite when the file has no recipes yet. Postgres is seeded by cmd/seed.
func (s *Server) seedDefaultCatalog(ctx context.Context) error {
	switch s.storageKind {
	case StorageMemory:
	case StorageSQLite:
		existing, err := s.storage.ListRecipes(ctx)
		if err != nil {
			return fmt.Errorf("check sqlite catalog: %w", err)
		}
		if len(existing) > 0 {
			return nil
		}
	default:
		return nil
	}

	if _, _, err := s.catalog.Seed(ctx, catalog.Default()); err != nil {
		return fmt.Errorf("seed default catalog: %w", err)
	}
	return nil
}

// routes регистрирует маршруты
func (s *Server) routes(blobStore blob.Store) {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.log)

	// POST /v1/auth/dev - dev token (AUTH_MODE=dev)
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Catalog API
	catalogHandler := catalog.NewHandlers(s.catalog)
	s.mux.HandleFunc("GET /v1/catalog/recipes", catalogHandler.HandleListRecipes)
	s.mux.HandleFunc("GET /v1/catalog/exercises", catalogHandler.HandleListExercises)

	// Plans API
	planner := epe.New(epe.WithLocation(s.config.PlanLocation()))
	plansService := plans.NewService(s.storage, s.catalog, planner, s.log)
	presignTTL := time.Duration(s.config.Blob.S3.PresignTTLSeconds) * time.Second
	reportsService := reports.NewService(blobStore, presignTTL)
	plansHandler := plans.NewHandlers(plansService, reportsService)

	// POST /v1/plans/preview - generate without persisting
	s.mux.HandleFunc("POST /v1/plans/preview", plansHandler.HandlePreview)

	// POST /v1/plans - generate and persist
	s.mux.HandleFunc("POST /v1/plans", plansHandler.HandleCreate)

	// GET /v1/plans - list plan headers
	s.mux.HandleFunc("GET /v1/plans", plansHandler.HandleList)

	// GET /v1/plans/{id} - stored plan
	s.mux.HandleFunc("GET /v1/plans/{id}", plansHandler.HandleGet)

	// GET /v1/plans/{id}/report - PDF/CSV report
	s.mux.HandleFunc("GET /v1/plans/{id}/report", plansHandler.HandleReport)
}

// Handler builds the middleware chain (outermost first): CORS -> Rate Limit -> Auth -> Router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.AuthMode != config.AuthModeNone {
		handler = s.authMiddleware.Wrap(handler)
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// StorageKind reports which backend was selected.
func (s *Server) StorageKind() string {
	return s.storageKind
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"storage": s.storageKind,
	})
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := s.httpServer.Addr

	s.log.Info("server listening", "addr", "http://localhost"+addr)
	s.log.Info("health check", "url", "http://localhost"+addr+"/healthz")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает приём запросов и закрывает ресурсы
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(s.httpServer.Shutdown(ctx), s.Close())
}

// Close закрывает storage и кэш
func (s *Server) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}
