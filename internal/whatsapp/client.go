package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/config"
	apperrors "github.com/inmobica/assistant-server/internal/errors"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// Sender delivers outbound text messages to a WhatsApp user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Client talks to the WhatsApp Cloud API messages endpoint.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		baseURL:       defaultGraphBaseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: config.UpstreamClientTimeout},
	}
}

// WithBaseURL overrides the Graph API host, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Internal("encode whatsapp payload").WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return apperrors.Upstream("whatsapp", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream("whatsapp", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Warn().Int("status", res.StatusCode).Str("body", string(respBody)).Msg("whatsapp send failed")
		return apperrors.Upstream("whatsapp", fmt.Errorf("send text: status %d", res.StatusCode))
	}
	return nil
}
