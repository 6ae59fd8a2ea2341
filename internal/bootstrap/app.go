package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/auth"
	"intake-backend/internal/imagecodec"
	"intake-backend/internal/intake"
	"intake-backend/internal/llm"
	"intake-backend/internal/llm/gemini"
	"intake-backend/internal/llm/openai"
	"intake-backend/internal/queue"
	"intake-backend/internal/sessions"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/server"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/storage/db"
	"intake-backend/internal/shared/storage/object"
	localstore "intake-backend/internal/shared/storage/object/local"
	s3store "intake-backend/internal/shared/storage/object/s3"
	"intake-backend/internal/uploads"
)

const sessionJanitorInterval = 10 * time.Minute

// App holds shared dependencies and the wired router.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Queue          queue.Client
	SessionStore   sessions.Store
	Sessions       *sessions.Manager
	Extractor      llm.Extractor
	UploadsRepo    uploads.Repo
	UploadsService *uploads.Service
	IntakeService  *intake.Service
	AuthHandler    *auth.Handler
	IntakeHandler  *intake.Handler
	UploadsHandler *uploads.Handler

	closers []io.Closer
}

// Options adjusts how Build resolves dependencies.
type Options struct {
	// Profile selects database pool defaults.
	Profile db.Profile
	// Extractor overrides the provider chosen from config.
	Extractor llm.Extractor
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if opts.Profile == "" {
		opts.Profile = db.ProfileServer
	}

	sqlDB, err := buildDB(ctx, cfg, opts.Profile)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildQueue(ctx, app); err != nil {
		return nil, err
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor, err = NewExtractor(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	app.Extractor = extractor

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		DB:             app.DB,
		Sessions:       app.Sessions,
		AuthHandler:    app.AuthHandler,
		IntakeHandler:  app.IntakeHandler,
		UploadsHandler: app.UploadsHandler,
		RateLimiter:    middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// StartBackground runs maintenance loops until ctx is done.
func (a *App) StartBackground(ctx context.Context) {
	go sessions.RunJanitor(ctx, a.SessionStore, sessionJanitorInterval, nil)
}

// Close releases connections opened by Build.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config, profile db.Profile) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory stores")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if db.IsLambdaRuntime() {
		profile = db.ProfileLambda
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, profile)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory stores: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.QueueBackend {
	case "sqs":
		client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return err
		}
		app.Queue = client
	case "amqp":
		client, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		app.Queue = client
		app.closers = append(app.closers, client)
	default:
		app.Queue = queue.NopClient{}
	}
	return nil
}

// NewExtractor picks the extraction provider named by LLM_PROVIDER. In dev a missing
// key yields a placeholder that fails every call.
func NewExtractor(ctx context.Context, cfg config.Config) (llm.Extractor, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" && isDevLike(cfg.Env) {
			log.Printf("bootstrap: GEMINI_API_KEY empty; extraction disabled")
			return llm.PlaceholderExtractor{}, nil
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; extraction disabled")
			return llm.PlaceholderExtractor{}, nil
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAIBaseURL)
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var sessionStore sessions.Store
	var uploadsRepo uploads.Repo
	if app.DB != nil {
		sessionStore = &sessions.PGStore{DB: app.DB}
		uploadsRepo = &uploads.PGRepo{DB: app.DB}
	} else {
		sessionStore = sessions.NewMemoryStore(nil)
		uploadsRepo = uploads.NewMemoryRepo()
	}

	codec, err := sessions.NewCodec(cfg.SessionSecret, nil)
	if err != nil {
		return fmt.Errorf("session codec: %w", err)
	}
	mgr := &sessions.Manager{
		Store:  sessionStore,
		Codec:  codec,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionCookieSecure,
	}

	uploadsSvc := &uploads.Service{
		Store:           app.Store,
		Repo:            uploadsRepo,
		StorageProvider: cfg.ObjectStoreType,
	}

	intakeSvc := &intake.Service{
		Uploads:   uploadsSvc,
		Encoder:   &imagecodec.Encoder{Store: app.Store, MaxDimension: cfg.ImageMaxDimension},
		Extractor: app.Extractor,
		Limiter:   intake.NewLimiter(cfg.MaxConcurrentExtractions, cfg.ExtractionQueueWait),
		Timeout:   cfg.ExtractionTimeout,
		Queue:     app.Queue,
	}

	creds := auth.Credentials{
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}

	app.SessionStore = sessionStore
	app.Sessions = mgr
	app.UploadsRepo = uploadsRepo
	app.UploadsService = uploadsSvc
	app.IntakeService = intakeSvc
	app.AuthHandler = auth.NewHandler(mgr, creds)
	app.IntakeHandler = intake.NewHandler(intakeSvc, cfg.MaxUploadBytes)
	app.UploadsHandler = uploads.NewHandler(uploadsSvc)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
