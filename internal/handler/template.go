package handler

import (
	"errors"
	"net/http"

	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/service"
)

type TemplateHandler struct {
	templateService *service.TemplateService
}

func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// List returns the template catalogue, most popular first. ?type= narrows it
// to templates suggested for that goal type.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	goalType := model.GoalType(r.URL.Query().Get("type"))
	if goalType == "" {
		writeJSON(w, http.StatusOK, h.templateService.Templates())
		return
	}
	if !goalType.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown goal type")
		return
	}

	templates := h.templateService.Suggest(goalType)
	if templates == nil {
		templates = []*model.GoalTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.templateService.ByID(r.PathValue("id"))
	if errors.Is(err, service.ErrTemplateNotFound) {
		writeError(w, http.StatusNotFound, "Template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load template")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*model.GoalTemplate
		HTML string `json:"html"`
	}{tmpl, tmpl.HTMLContent})
}
