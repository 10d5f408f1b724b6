package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Record is one opportunity row as the CRM exports it. Field spellings follow
// the CRM's export schema, not ours.
type Record struct {
	RemoteID       string     `json:"opportunity_id"`
	Customer       string     `json:"account_name"`
	Practice       string     `json:"practice"`
	Region         string     `json:"region"`
	DealValue      float64    `json:"amount"`
	Currency       string     `json:"currency"`
	WinProbability int        `json:"probability"`
	SalesStage     string     `json:"stage"`
	CloseDate      *time.Time `json:"close_date,omitempty"`
	Origin         string     `json:"origin,omitempty"`
}

// Client fetches opportunity records from the upstream CRM.
type Client interface {
	FetchOpportunities(ctx context.Context, updatedSince time.Time) ([]Record, error)
}

// HTTPClient talks to the CRM's REST export endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Entry
}

// NewHTTPClient creates a CRM client for the given base URL.
func NewHTTPClient(baseURL, apiKey string, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.WithField("component", "crm-client"),
	}
}

type fetchResponse struct {
	Records []Record `json:"records"`
}

// FetchOpportunities pulls opportunities modified since the given time.
func (c *HTTPClient) FetchOpportunities(ctx context.Context, updatedSince time.Time) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/api/v1/opportunities", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if !updatedSince.IsZero() {
		q.Set("updated_since", updatedSince.UTC().Format(time.RFC3339))
	}
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crm fetch returned status %d", resp.StatusCode)
	}

	var body fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("crm fetch decode failed: %w", err)
	}

	c.logger.WithField("count", len(body.Records)).Debug("Fetched CRM opportunities")
	return body.Records, nil
}
