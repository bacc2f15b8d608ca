package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/config"
	apperrors "github.com/inmobica/assistant-server/internal/errors"
)

// TokenSet is the provider's response to an authorization-code exchange.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// OAuthService exchanges authorization codes for tokens against a standard
// OAuth 2.0 token endpoint.
type OAuthService struct {
	clientID     string
	clientSecret string
	tokenURL     string
	redirectURI  string
	tokenFile    string
	httpClient   *http.Client
}

func NewOAuthService(clientID, clientSecret, tokenURL, redirectURI, tokenFile string) *OAuthService {
	return &OAuthService{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		redirectURI:  redirectURI,
		tokenFile:    tokenFile,
		httpClient:   &http.Client{Timeout: config.UpstreamClientTimeout},
	}
}

// Exchange trades the authorization code for a token set. When a token file
// is configured the set is persisted there so restarts keep the grant.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	if code == "" {
		return nil, apperrors.MissingRequired("code")
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}
	if s.redirectURI != "" {
		form.Set("redirect_uri", s.redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Upstream("oauth", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("oauth", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Warn().Int("status", res.StatusCode).Str("body", string(body)).Msg("oauth token exchange failed")
		return nil, apperrors.Upstream("oauth", fmt.Errorf("token endpoint: status %d", res.StatusCode))
	}

	var tokens TokenSet
	if err := json.NewDecoder(res.Body).Decode(&tokens); err != nil {
		return nil, apperrors.Upstream("oauth", fmt.Errorf("decode token response: %w", err))
	}
	if tokens.AccessToken == "" {
		return nil, apperrors.Upstream("oauth", fmt.Errorf("token endpoint returned no access token"))
	}

	if s.tokenFile != "" {
		if err := s.persist(&tokens); err != nil {
			log.Warn().Err(err).Str("file", s.tokenFile).Msg("oauth token persist failed")
		}
	}
	return &tokens, nil
}

func (s *OAuthService) persist(tokens *TokenSet) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.tokenFile, data, 0o600)
}
