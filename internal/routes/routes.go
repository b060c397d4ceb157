package routes

import (
	"net/http"

	"github.com/templui/goalcoach/internal/app"
	"github.com/templui/goalcoach/internal/handler"
	"github.com/templui/goalcoach/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.TemplateService)
	health := handler.NewHealthHandler(app.DB)
	chat := handler.NewChatHandler(app.ChatService)
	goal := handler.NewGoalHandler(app.GoalService, app.RecommendationService, app.ExportOptions, app.Preferences.DefaultExportFormat)
	templates := handler.NewTemplateHandler(app.TemplateService)

	mux := http.NewServeMux()

	// ============================================================================
	// PAGES
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.ChatPage)
	mux.HandleFunc("GET /health", health.Health)

	// ============================================================================
	// API
	// ============================================================================

	// Chat (rate limited per client IP)
	mux.HandleFunc("POST /api/chat", app.ChatLimiter.Limit(chat.Chat))
	mux.HandleFunc("GET /api/chat/history", chat.History)

	// Goals
	mux.HandleFunc("GET /api/goals", goal.List)
	mux.HandleFunc("GET /api/goals/export", goal.Export)
	mux.HandleFunc("GET /api/goals/recommendations", goal.Recommendations)
	mux.HandleFunc("GET /api/goals/{id}", goal.Get)
	mux.HandleFunc("PATCH /api/goals/{id}/progress", goal.UpdateProgress)
	mux.HandleFunc("DELETE /api/goals/{id}", goal.Delete)

	// Templates
	mux.HandleFunc("GET /api/templates", templates.List)
	mux.HandleFunc("GET /api/templates/{id}", templates.Get)

	// Attachments (only with object storage)
	if app.FileService != nil {
		files := handler.NewFileHandler(app.FileService)
		mux.HandleFunc("GET /api/chat/attachments", files.List)
		mux.HandleFunc("GET /api/files/{id}", files.Download)
		mux.HandleFunc("DELETE /api/files/{id}", files.Delete)
	}

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config first, SecurityHeaders reads the S3 endpoint
		middleware.NonceMiddleware, // before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RealIP,
		middleware.RequestLogging,
		middleware.Tracing, // last, so it sees the matched route pattern
	)
}
