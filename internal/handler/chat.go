package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/service"
)

// ChatHandler exposes the conversational endpoint used by API clients.
type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type generateRequest struct {
	Message  string `json:"message"`
	SenderID string `json:"sender_id"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (h *ChatHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("request body", "malformed JSON"))
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	req.SenderID = strings.TrimSpace(req.SenderID)
	if req.Message == "" {
		writeError(w, apperrors.MissingRequired("message"))
		return
	}
	if req.SenderID == "" {
		writeError(w, apperrors.MissingRequired("sender_id"))
		return
	}

	reply, err := h.chatService.HandleMessage(r.Context(), req.SenderID, req.Message, "api")
	if err != nil {
		log.Error().Err(err).Str("senderId", req.SenderID).Msg("generate response failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Response: reply})
}
