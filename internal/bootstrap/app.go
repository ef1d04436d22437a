// Package bootstrap wires shared dependencies for the API server and the
// queue worker.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docvault-backend/internal/auth"
	"docvault-backend/internal/doctypes"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/expiry"
	"docvault-backend/internal/ocr"
	"docvault-backend/internal/pipeline"
	"docvault-backend/internal/queue"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/server"
	"docvault-backend/internal/shared/storage/db"
	"docvault-backend/internal/shared/storage/object"
	localstore "docvault-backend/internal/shared/storage/object/local"
	s3store "docvault-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Queue            queue.Client
	Catalog          doctypes.Catalog
	Selector         *ocr.Selector
	DocumentsRepo    documents.DocumentsRepo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	Pipeline         *pipeline.Runner
	Sweeper          *expiry.Sweeper
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and assembles the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, signer, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Queue:   queueClient,
		Catalog: doctypes.NewStaticCatalog(doctypes.Defaults()),
	}
	buildServices(app, signer)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, documents.URLSigner, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil, nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App, signer documents.URLSigner) {
	var docRepo documents.DocumentsRepo
	var reminders expiry.ReminderLog
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		reminders = &expiry.PGReminderLog{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		reminders = expiry.NewMemoryReminderLog()
	}

	azure := ocr.NewAzureEngine(app.Config.AzureDIEndpoint, app.Config.AzureDIKey)
	selector := ocr.NewSelector(&ocr.LocalEngine{}, azure)

	runner := &pipeline.Runner{
		Repo:     docRepo,
		Store:    app.Store,
		Selector: selector,
		Catalog:  app.Catalog,
		Notifier: pipeline.LogNotifier{},
	}

	// Queue when configured, otherwise run enrichment inline in a
	// goroutine; the upload response never waits for analysis either way.
	var enricher documents.Enricher
	if app.Queue != nil {
		enricher = &pipeline.QueueEnricher{Client: app.Queue}
	} else {
		enricher = &pipeline.InlineEnricher{Runner: runner}
	}

	docSvc := &documents.Service{
		Catalog:  app.Catalog,
		Store:    app.Store,
		Repo:     docRepo,
		Enricher: enricher,
		Signer:   signer,
	}

	app.Selector = selector
	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.DocumentsHandler = documents.NewHandler(docSvc, app.Catalog)
	app.Pipeline = runner
	app.Sweeper = &expiry.Sweeper{
		Repo:      docRepo,
		Reminders: reminders,
		Notifier:  expiry.LogNotifier{},
	}
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)
}
