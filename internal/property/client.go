package property

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
	"github.com/inmobica/assistant-server/internal/model"
)

// Numeric codes the search API uses for enum filters.
var operationCodes = map[model.OperationType]int{
	model.OperationSale:          1,
	model.OperationRent:          2,
	model.OperationTemporaryRent: 3,
}

var propertyTypeCodes = map[model.PropertyType]int{
	model.PropertyLand:      1,
	model.PropertyApartment: 2,
	model.PropertyHouse:     3,
	model.PropertyOffice:    5,
	model.PropertyShop:      7,
}

// Listing is one normalized search result.
type Listing struct {
	Title    string `json:"title"`
	Address  string `json:"address,omitempty"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
	Price    int    `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Searcher is the operation the handlers depend on.
type Searcher interface {
	Search(ctx context.Context, filters model.SearchFilters) ([]Listing, error)
}

// Client queries a Tokko-style property search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: config.UpstreamClientTimeout},
	}
}

type searchPayload struct {
	OperationTypes []int  `json:"operation_types"`
	PropertyTypes  []int  `json:"property_types,omitempty"`
	PriceFrom      int    `json:"price_from"`
	PriceTo        int    `json:"price_to,omitempty"`
	Location       string `json:"location,omitempty"`
	CurrentLocale  string `json:"current_localization_type,omitempty"`
}

type searchResponse struct {
	Objects []struct {
		PublicationTitle string `json:"publication_title"`
		Address          string `json:"address"`
		WebPrice         bool   `json:"web_price"`
		Location         struct {
			Name string `json:"name"`
		} `json:"location"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
		Operations []struct {
			Prices []struct {
				Price    int    `json:"price"`
				Currency string `json:"currency"`
			} `json:"prices"`
		} `json:"operations"`
		PublicURL string `json:"public_url"`
	} `json:"objects"`
}

func (c *Client) Search(ctx context.Context, filters model.SearchFilters) ([]Listing, error) {
	payload := searchPayload{
		OperationTypes: encodeOperations(filters.OperationTypes),
		PropertyTypes:  encodePropertyTypes(filters.PropertyTypes),
		PriceFrom:      filters.PriceFrom,
		PriceTo:        filters.PriceTo,
		Location:       filters.Location,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal("encode search payload").WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/property/search/?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Upstream("tokko", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("tokko", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Warn().Int("status", res.StatusCode).Str("body", string(respBody)).Msg("property search failed")
		return nil, apperrors.Upstream("tokko", fmt.Errorf("search: status %d", res.StatusCode))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Upstream("tokko", fmt.Errorf("decode search response: %w", err))
	}

	listings := make([]Listing, 0, len(parsed.Objects))
	for _, obj := range parsed.Objects {
		listing := Listing{
			Title:    obj.PublicationTitle,
			Address:  obj.Address,
			Location: obj.Location.Name,
			Type:     obj.Type.Name,
			URL:      obj.PublicURL,
		}
		if len(obj.Operations) > 0 && len(obj.Operations[0].Prices) > 0 {
			listing.Price = obj.Operations[0].Prices[0].Price
			listing.Currency = obj.Operations[0].Prices[0].Currency
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func encodeOperations(ops []model.OperationType) []int {
	codes := make([]int, 0, len(ops))
	for _, op := range ops {
		if code, ok := operationCodes[op]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}

func encodePropertyTypes(pts []model.PropertyType) []int {
	codes := make([]int, 0, len(pts))
	for _, pt := range pts {
		if code, ok := propertyTypeCodes[pt]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}
