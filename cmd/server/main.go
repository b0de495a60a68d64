package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pulsefeed/backend/internal/config"
	"github.com/pulsefeed/backend/internal/database"
	"github.com/pulsefeed/backend/internal/handlers"
	"github.com/pulsefeed/backend/internal/middleware"
	"github.com/pulsefeed/backend/internal/services"
	"github.com/pulsefeed/backend/internal/storage"
	"github.com/pulsefeed/backend/pkg/logger"
	"github.com/pulsefeed/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	fileService := services.NewFileService(db, store)
	cascadeService := services.NewCascadeService(db, store)
	sweeperService := services.NewSweeperService(db, store)

	// Reconcile the physical store against the metadata rows before the
	// server takes traffic, so no request can observe a stale orphan.
	sweepCtx, cancelSweep := context.WithTimeout(context.Background(), 5*time.Minute)
	removed, err := sweeperService.Run(sweepCtx)
	cancelSweep()
	if err != nil {
		log.Fatalf("startup orphan sweep failed: %v", err)
	}
	logger.Info("startup_sweep_complete", map[string]interface{}{
		"orphans_removed": removed,
	})

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db, store, cascadeService)
	postsHandler := handlers.NewPostsHandler(db, cascadeService)
	commentsHandler := handlers.NewCommentsHandler(db)
	likesHandler := handlers.NewLikesHandler(db)
	filesHandler := handlers.NewFilesHandler(db, fileService, store)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 32 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	api.Get("/users/:id", authMiddleware.OptionalAuth, usersHandler.Get)
	api.Post("/users/me/avatar", authMiddleware.RequireAuth, usersHandler.UploadAvatar)
	api.Delete("/users/me", authMiddleware.RequireAuth, usersHandler.DeleteMe)

	postRoutes := api.Group("/posts")
	postRoutes.Get("/", authMiddleware.OptionalAuth, postsHandler.List)
	postRoutes.Get("/:id", authMiddleware.OptionalAuth, postsHandler.Get)
	postRoutes.Post("/", authMiddleware.RequireAuth, postsHandler.Create)
	postRoutes.Delete("/:id", authMiddleware.RequireAuth, postsHandler.Delete)
	postRoutes.Get("/:id/comments", authMiddleware.OptionalAuth, commentsHandler.ListForPost)
	postRoutes.Post("/:id/comments", authMiddleware.RequireAuth, commentsHandler.Create)
	postRoutes.Post("/:id/like", authMiddleware.RequireAuth, likesHandler.Toggle)

	api.Delete("/comments/:id", authMiddleware.RequireAuth, commentsHandler.Delete)

	fileRoutes := api.Group("/files")
	fileRoutes.Post("/upload", authMiddleware.RequireAuth, filesHandler.Upload)
	fileRoutes.Post("/:id/associate", authMiddleware.RequireAuth, filesHandler.Associate)
	fileRoutes.Get("/:id/download", authMiddleware.OptionalAuth, filesHandler.Download)
	fileRoutes.Delete("/:id", authMiddleware.RequireAuth, filesHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":            cfg.Server.Port,
		"address":         listenAddr,
		"storage_backend": string(cfg.Storage.Backend),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageBackendMinIO:
		store, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageBackendDisk:
		store := storage.NewDiskStore(storage.NewPathResolver(cfg))
		if err := store.EnsureDirs(); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
