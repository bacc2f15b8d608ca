package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/config"
	apperrors "github.com/inmobica/assistant-server/internal/errors"
)

// API is the set of CRM operations the booking pipeline depends on.
type API interface {
	CreatePerson(ctx context.Context, params PersonParams) (int, error)
	CreateLead(ctx context.Context, params LeadParams) (string, error)
	CreateActivity(ctx context.Context, params ActivityParams) (int, error)
	ListActivities(ctx context.Context) ([]Activity, error)
}

type PersonParams struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	OrgID int    `json:"org_id,omitempty"`
}

type LeadParams struct {
	Title    string `json:"title"`
	PersonID int    `json:"person_id,omitempty"`
	OrgID    int    `json:"organization_id,omitempty"`
}

type ActivityParams struct {
	Subject  string `json:"subject"`
	Type     string `json:"type"`
	DueDate  string `json:"due_date"` // 2006-01-02
	DueTime  string `json:"due_time"` // HH:MM, UTC
	Duration string `json:"duration,omitempty"`
	Note     string `json:"note,omitempty"`
	LeadID   string `json:"lead_id,omitempty"`
}

type Activity struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	DueDate string `json:"due_date"`
	DueTime string `json:"due_time"`
}

// Client talks to a Pipedrive-compatible REST API. Every create either
// returns the new record's id (HTTP 201) or an error; there are no retries,
// a single non-2xx response is final for that call.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: config.UpstreamClientTimeout},
	}
}

func (c *Client) CreatePerson(ctx context.Context, params PersonParams) (int, error) {
	var resp struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/persons", params, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

func (c *Client) CreateLead(ctx context.Context, params LeadParams) (string, error) {
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/leads", params, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func (c *Client) CreateActivity(ctx context.Context, params ActivityParams) (int, error) {
	var resp struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/activities", params, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// ListActivities fetches the existing activities used by the booking
// conflict pre-check.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/activities"), nil)
	if err != nil {
		return nil, apperrors.Upstream("crm", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("crm", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Warn().Int("status", res.StatusCode).Str("body", string(body)).Msg("crm list activities failed")
		return nil, apperrors.Upstream("crm", fmt.Errorf("list activities: status %d", res.StatusCode))
	}

	var resp struct {
		Data []Activity `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, apperrors.Upstream("crm", fmt.Errorf("decode activities: %w", err))
	}
	return resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Internal("encode crm payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return apperrors.Upstream("crm", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream("crm", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Warn().
			Int("status", res.StatusCode).
			Str("path", path).
			Str("body", string(respBody)).
			Msg("crm create failed")
		return apperrors.Upstream("crm", fmt.Errorf("%s: status %d", path, res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperrors.Upstream("crm", fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path + "?api_token=" + url.QueryEscape(c.token)
}
