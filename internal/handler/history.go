package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/repository"
)

const defaultHistoryLimit = 50

// HistoryHandler serves persisted conversation transcripts.
type HistoryHandler struct {
	chatLog repository.ChatLogRepository
}

func NewHistoryHandler(chatLog repository.ChatLogRepository) *HistoryHandler {
	return &HistoryHandler{chatLog: chatLog}
}

// GetHistory returns the conversation for a sender together with its most
// recent messages, newest first.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	senderID := chi.URLParam(r, "senderID")
	if senderID == "" {
		writeError(w, apperrors.MissingRequired("senderID"))
		return
	}

	conv, err := h.chatLog.FindConversation(r.Context(), senderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if conv == nil {
		writeError(w, apperrors.NotFound("conversation"))
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	offset := queryInt(r, "offset", 0)

	messages, err := h.chatLog.FindMessages(r.Context(), conv.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
