package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/service"
)

// FileHandler serves chat attachments. It is only routed when object storage
// is configured.
type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// List returns the attachments stored for a thread.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("threadId")
	if threadID == "" {
		threadID = service.DefaultThreadID
	}
	user := userID(r)

	files, err := h.fileService.Files(repository.FileOwnerThread, threadID)
	if err != nil {
		slog.Error("failed to list attachments", "error", err, "thread_id", threadID)
		writeError(w, http.StatusInternalServerError, "Failed to load attachments")
		return
	}

	owned := []*model.File{}
	for _, f := range files {
		if f.UserID == user {
			owned = append(owned, f)
		}
	}
	writeJSON(w, http.StatusOK, owned)
}

// Download redirects to a short lived URL for the stored object.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	fileID := r.PathValue("id")

	file, err := h.fileService.ByID(user, fileID)
	if errors.Is(err, repository.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		slog.Error("failed to get file", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "Failed to load file")
		return
	}

	url, err := h.fileService.URL(r.Context(), file)
	if err != nil {
		slog.Error("failed to presign file url", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "Failed to load file")
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	fileID := r.PathValue("id")

	err := h.fileService.Delete(r.Context(), user, fileID)
	if errors.Is(err, repository.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete file", "error", err, "file_id", fileID, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
