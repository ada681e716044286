// Package etaclient calls the delivery-estimator over HTTP.
package etaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"food-delivery-system/internal/apperrors"
	"food-delivery-system/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Estimate posts req to the estimator and decodes the result. All
// failures come back as apperrors.ErrDependency; the caller treats this
// call as best-effort enrichment.
func (c *Client) Estimate(ctx context.Context, req domain.EtaRequest) (domain.EtaResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.EtaResult{}, apperrors.Dependency(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return domain.EtaResult{}, apperrors.Dependency(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.EtaResult{}, apperrors.Dependency(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.EtaResult{}, apperrors.Dependency(fmt.Errorf("estimator returned status %d", resp.StatusCode))
	}

	var result domain.EtaResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.EtaResult{}, apperrors.Dependency(fmt.Errorf("decode response: %w", err))
	}
	return result, nil
}
