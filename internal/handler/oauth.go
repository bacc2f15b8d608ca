package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/service"
)

// OAuthHandler receives the provider redirect and completes the code
// exchange.
type OAuthHandler struct {
	oauthService *service.OAuthService
}

func NewOAuthHandler(oauthService *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		log.Warn().Str("error", errMsg).Msg("oauth provider returned error")
		writeError(w, apperrors.InvalidInput("authorization", errMsg))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	tokens, err := h.oauthService.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oauth code exchange failed")
		writeError(w, err)
		return
	}

	log.Info().Msg("oauth authorization completed")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "authorized",
		"tokenType": tokens.TokenType,
		"expiresIn": tokens.ExpiresIn,
	})
}
