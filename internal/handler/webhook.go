package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/service"
	"github.com/inmobica/assistant-server/internal/whatsapp"
)

// WebhookHandler terminates the WhatsApp Cloud API webhook: subscription
// verification on GET and inbound message notifications on POST.
type WebhookHandler struct {
	chatService *service.ChatService
	sender      whatsapp.Sender // nil when WhatsApp sending is not configured
	verifyToken string
}

func NewWebhookHandler(chatService *service.ChatService, sender whatsapp.Sender, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		chatService: chatService,
		sender:      sender,
		verifyToken: verifyToken,
	}
}

// Verify answers Meta's subscription handshake: echo hub.challenge when the
// mode and token match, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || token == "" || token != h.verifyToken {
		log.Warn().Str("mode", mode).Msg("webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive processes an inbound notification. The Cloud API retries on non-2xx
// responses, so processing failures are logged and acknowledged rather than
// surfaced: a poison message must not be redelivered forever.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("webhook payload malformed")
		w.WriteHeader(http.StatusOK)
		return
	}

	from, body, ok := payload.FirstTextMessage()
	if !ok {
		// Status updates and non-text messages are acknowledged and dropped.
		w.WriteHeader(http.StatusOK)
		return
	}

	reply, err := h.chatService.HandleMessage(r.Context(), from, body, "whatsapp")
	if err != nil {
		log.Error().Err(err).Str("senderId", from).Msg("webhook message handling failed")
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.sender != nil {
		if err := h.sender.SendText(r.Context(), from, reply); err != nil {
			log.Error().Err(err).Str("senderId", from).Msg("whatsapp reply send failed")
		}
	}

	w.WriteHeader(http.StatusOK)
}
