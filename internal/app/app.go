package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalcoach"
	"github.com/templui/goalcoach/internal/config"
	"github.com/templui/goalcoach/internal/db"
	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/goalflow"
	"github.com/templui/goalcoach/internal/llm"
	"github.com/templui/goalcoach/internal/markdown"
	"github.com/templui/goalcoach/internal/middleware"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/service"
	"github.com/templui/goalcoach/internal/storage"
	"github.com/templui/goalcoach/internal/telemetry"
)

type App struct {
	Cfg                   *config.Config
	DB                    *sqlx.DB
	Preferences           goalflow.Preferences
	ExportOptions         export.Options
	ChatLimiter           *middleware.RateLimiter
	ChatService           *service.ChatService
	GoalService           *service.GoalService
	RecommendationService *service.RecommendationService
	TemplateService       *service.TemplateService
	FileService           *service.FileService // nil without object storage
}

// New wires the application. ctx bounds background work such as the rate
// limiter sweep and must outlive the server.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a, err := wire(ctx, cfg, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*App, error) {
	prefs, err := Preferences(cfg)
	if err != nil {
		return nil, err
	}
	exportOpts := ExportOptions(cfg)

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	fileRepository := repository.NewFileRepository(database)
	messageRepository, err := repository.NewCachedMessageRepository(
		repository.NewMessageRepository(database),
		cfg.HistoryCacheSize,
		cfg.HistoryLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history cache: %w", err)
	}

	// Storage
	var fileService *service.FileService
	fileStorage, err := storage.New(ctx, cfg)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		slog.Info("attachment storage disabled, attachments are only noted in the prompt")
	case err != nil:
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	default:
		fileService = service.NewFileService(fileRepository, fileStorage)
	}

	// Language model
	completer, err := Completer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Services
	parser := markdown.NewParser()
	templatesFS, err := fs.Sub(goalcoach.TemplatesFS, "content/templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open templates: %w", err)
	}
	templateService, err := service.NewTemplateService(templatesFS, parser)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	goalService := service.NewGoalService(goalRepository, cfg.GoalLimit)
	workflow := goalflow.New(
		goalflow.WithTemplates(templateService),
		goalflow.WithExportOptions(exportOpts),
	)
	chatService := service.NewChatService(
		workflow,
		messageRepository,
		goalService,
		fileService,
		completer,
		parser,
		prefs,
		cfg.HistoryLimit,
	)
	recommendationService := service.NewRecommendationService(goalService, completer)

	return &App{
		Cfg:                   cfg,
		DB:                    database,
		Preferences:           prefs,
		ExportOptions:         exportOpts,
		ChatLimiter:           middleware.NewRateLimiter(ctx, cfg.ChatRateLimit, cfg.ChatRateWindow),
		ChatService:           chatService,
		GoalService:           goalService,
		RecommendationService: recommendationService,
		TemplateService:       templateService,
		FileService:           fileService,
	}, nil
}

// Preferences are the workflow preferences applied to every chat message.
func Preferences(cfg *config.Config) (goalflow.Preferences, error) {
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return goalflow.Preferences{}, fmt.Errorf("invalid EXPORT_FORMAT: %w", err)
	}
	return goalflow.Preferences{
		DefaultExportFormat: format,
		AutoGenerate:        cfg.AutoExport,
		IncludeTemplates:    cfg.IncludeTemplates,
	}, nil
}

func ExportOptions(cfg *config.Config) export.Options {
	opts := export.DefaultOptions()
	opts.ProductName = cfg.AppName
	return opts
}

// Completer returns nil when no language model is configured. Calls are
// logged and counted.
func Completer(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	observers := llm.Observers{llm.LogObserver{}}
	metrics, err := llm.NewMetricsObserver(telemetry.Meter("goalcoach/llm"))
	if err != nil {
		slog.Warn("failed to create llm metrics", "error", err)
	} else {
		observers = append(observers, metrics)
	}

	completer, err := llm.New(ctx, llm.Config{
		Provider:   cfg.LLMProvider,
		APIKey:     cfg.LLMAPIKey(),
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.LLMModel,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	}, observers)
	if errors.Is(err, llm.ErrDisabled) {
		slog.Info("language model disabled, replies come from the goal workflow only")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	slog.Info("language model enabled", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	return completer, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
