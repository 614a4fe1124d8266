package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tinta/internal/auth"
	"tinta/internal/catalog"
	"tinta/internal/config"
	"tinta/internal/handler"
	"tinta/internal/middleware"
	"tinta/internal/repository/postgres"
	"tinta/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	articleRepo := postgres.NewArticleRepository(repoConfig)
	pendingRepo := postgres.NewPendingArticleRepository(repoConfig)
	requestRepo := postgres.NewRequestRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	tagRepo := postgres.NewTagRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Built-in tag catalog
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load tag catalog: %v", err)
	}

	// Create services
	articleService := service.NewArticleService(articleRepo, userRepo, logger)
	tagService := service.NewTagService(tagRepo, registry, logger)
	userService := service.NewUserService(userRepo, logger)
	draftService := service.NewDraftService(pendingRepo, requestRepo, articleRepo, cfg.AutoSaveDebounce, logger)
	defer draftService.Close()
	submissionService := service.NewSubmissionService(draftService, pendingRepo, requestRepo, userRepo, logger)
	resolver := service.NewApprovalResolver(articleRepo, pendingRepo, requestRepo, userRepo, logger)
	workflowService := service.NewWorkflowService(requestRepo, pendingRepo, txManager, resolver, logger)

	// Seed the tag catalog before serving
	if err := tagService.SeedCatalog(ctx); err != nil {
		log.Fatalf("Failed to seed tag catalog: %v", err)
	}

	// Create handlers
	articleHandler := handler.NewArticleHandler(articleService, draftService, logger)
	tagHandler := handler.NewTagHandler(tagService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	draftHandler := handler.NewDraftHandler(draftService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	requestHandler := handler.NewRequestHandler(workflowService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.Health)

	// Published catalog
	mux.HandleFunc("GET /api/articles", articleHandler.ListArticles)
	mux.HandleFunc("GET /api/articles/{id}", articleHandler.GetArticle)
	mux.HandleFunc("DELETE /api/articles/{id}", articleHandler.DeleteArticle)
	mux.HandleFunc("GET /api/articles/{id}/draft", articleHandler.GetArticleDraft)
	mux.HandleFunc("GET /api/articles/{id}/author", articleHandler.GetArticleAuthor)
	mux.HandleFunc("GET /api/articles/{id}/pending-update", requestHandler.CheckPendingUpdate)

	// Tag catalog
	mux.HandleFunc("GET /api/tags", tagHandler.ListTags)

	// Drafts and auto-save
	mux.HandleFunc("GET /api/drafts", draftHandler.ListDrafts)
	mux.HandleFunc("POST /api/drafts", draftHandler.CreateDraft)
	mux.HandleFunc("POST /api/drafts/autosave", draftHandler.AutoSave) // Must come before {id} route
	mux.HandleFunc("POST /api/drafts/autosave/cancel", draftHandler.CancelAutoSave)
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.GetDraft)
	mux.HandleFunc("PUT /api/drafts/{id}", draftHandler.UpdateDraft)
	mux.HandleFunc("DELETE /api/drafts/{id}", draftHandler.DeleteDraft)

	// Submissions
	mux.HandleFunc("POST /api/submissions", submissionHandler.Submit)

	// Request workflow
	mux.HandleFunc("GET /api/requests", requestHandler.ListRequests)
	mux.HandleFunc("POST /api/requests/roles", submissionHandler.SubmitRoleChange) // Must come before {id} route
	mux.HandleFunc("GET /api/requests/{id}", requestHandler.GetRequest)
	mux.HandleFunc("POST /api/requests/{id}/approve", requestHandler.Approve)
	mux.HandleFunc("POST /api/requests/{id}/reject", requestHandler.Reject)
	mux.HandleFunc("POST /api/requests/{id}/cancel", requestHandler.Cancel)

	// Users
	mux.HandleFunc("GET /api/users", userHandler.ListUsers)
	mux.HandleFunc("GET /api/users/me", userHandler.GetMe) // Must come before {id} route
	mux.HandleFunc("GET /api/users/{id}", userHandler.GetUser)
	mux.HandleFunc("PUT /api/users/{id}/role", userHandler.SetRole)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier, userRepo, logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Shut down cleanly on SIGINT/SIGTERM so in-flight saves finish
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
