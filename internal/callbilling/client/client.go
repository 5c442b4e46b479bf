package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
)

type errorResponse struct {
	Message string `json:"message"`
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New returns a calling API client. Without a base URL every lookup fails
// with ErrCallsAPIDisabled.
func New(cfg config.Config) domain.CallsClient {
	timeout := cfg.CallsAPITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.CallsAPIBaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.CallsAPIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) GetCall(ctx context.Context, externalID string) (domain.RemoteCall, error) {
	if c.baseURL == "" {
		return domain.RemoteCall{}, domain.ErrCallsAPIDisabled
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return domain.RemoteCall{}, domain.ErrInvalidExternalID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/call/"+url.PathEscape(externalID), nil)
	if err != nil {
		return domain.RemoteCall{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RemoteCall{}, fmt.Errorf("calls api: %w: %v", metrics.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = resp.Status
		}
		return domain.RemoteCall{}, fmt.Errorf("calls api: %w: %s", metrics.ErrUpstream, message)
	}

	var call domain.RemoteCall
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return domain.RemoteCall{}, fmt.Errorf("calls api: %w: %v", metrics.ErrUpstream, err)
	}
	if call.ID == "" {
		call.ID = externalID
	}
	call.Status = strings.ToLower(strings.TrimSpace(call.Status))
	return call, nil
}
