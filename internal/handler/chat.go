package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalcoach/internal/goalflow"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat runs one message through the goal workflow.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chatService.ProcessMessage(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, goalflow.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "Message is required")
		case errors.Is(err, goalflow.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, "Message is too long")
		case goalflow.IsValidationError(err), errors.Is(err, service.ErrInvalidUserContext):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to process chat message", "error", err, "thread_id", req.ThreadID, "user_id", req.UserID)
			body := errorResponse{Error: "Failed to process goal request"}
			var collabErr *service.CollaboratorError
			if errors.As(err, &collabErr) {
				body.Hint = collabErr.Hint()
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History returns the most recent messages of a thread, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("threadId")
	if threadID == "" {
		threadID = service.DefaultThreadID
	}
	user := userID(r)

	messages, err := h.chatService.History(threadID, user, queryLimit(r, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		slog.Error("failed to load chat history", "error", err, "thread_id", threadID, "user_id", user)
		writeError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"threadId": threadID,
		"userId":   user,
		"messages": messages,
	})
}
