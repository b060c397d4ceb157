package handler

import (
	"net/http"

	"github.com/templui/goalcoach/internal/ctxkeys"
	"github.com/templui/goalcoach/internal/service"
	"github.com/templui/goalcoach/internal/ui"
	"github.com/templui/goalcoach/internal/ui/pages"
)

type HomeHandler struct {
	templateService *service.TemplateService
}

func NewHomeHandler(templateService *service.TemplateService) *HomeHandler {
	return &HomeHandler{templateService: templateService}
}

func (h *HomeHandler) ChatPage(w http.ResponseWriter, r *http.Request) {
	appName := "Goalcoach"
	if cfg := ctxkeys.Config(r.Context()); cfg != nil && cfg.AppName != "" {
		appName = cfg.AppName
	}
	ui.Render(w, r, http.StatusOK, pages.Chat(appName, h.templateService.Templates()))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, http.StatusNotFound, pages.NotFound())
}
