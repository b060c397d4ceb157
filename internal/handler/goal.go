package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/service"
)

type GoalHandler struct {
	goalService           *service.GoalService
	recommendationService *service.RecommendationService
	exportOptions         export.Options
	defaultFormat         export.Format
}

func NewGoalHandler(
	goalService *service.GoalService,
	recommendationService *service.RecommendationService,
	exportOptions export.Options,
	defaultFormat export.Format,
) *GoalHandler {
	return &GoalHandler{
		goalService:           goalService,
		recommendationService: recommendationService,
		exportOptions:         exportOptions,
		defaultFormat:         defaultFormat,
	}
}

// List returns a user's goals. ?sort= is recent, priority, due or title.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	goals, err := h.goalService.Goals(user, r.URL.Query().Get("sort"))
	if err != nil {
		slog.Error("failed to list goals", "error", err, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to load goals")
		return
	}
	if goals == nil {
		goals = []*model.Goal{}
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	goalID := r.PathValue("id")

	goal, err := h.goalService.ByID(user, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		writeError(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		slog.Error("failed to get goal", "error", err, "goal_id", goalID, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to load goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	goalID := r.PathValue("id")

	err := h.goalService.Delete(user, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		writeError(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete goal", "error", err, "goal_id", goalID, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	goalID := r.PathValue("id")

	var update service.ProgressUpdate
	err := decodeJSON(w, r, &update)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.goalService.UpdateProgress(user, goalID, update)
	switch {
	case errors.Is(err, repository.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, repository.ErrMilestoneNotFound), errors.Is(err, service.ErrInvalidProgress):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.Error("failed to update goal progress", "error", err, "goal_id", goalID, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to update goal")
	default:
		writeJSON(w, http.StatusOK, goal)
	}
}

// Export downloads all of a user's goals. ?format= defaults to the
// configured export format.
func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	format := h.defaultFormat
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := export.ParseFormat(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unsupported export format")
			return
		}
		format = parsed
	}

	result, err := h.goalService.Export(user, format, h.exportOptions)
	if err != nil {
		slog.Error("failed to export goals", "error", err, "user_id", user, "format", format)
		writeError(w, http.StatusInternalServerError, "Failed to export goals")
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	_, err = w.Write([]byte(result.Content))
	if err != nil {
		slog.Error("failed to write export", "error", err, "user_id", user)
	}
}

func (h *GoalHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	recs, err := h.recommendationService.Recommend(r.Context(), user)
	if err != nil {
		slog.Error("failed to build recommendations", "error", err, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to build recommendations")
		return
	}

	writeJSON(w, http.StatusOK, recs)
}
