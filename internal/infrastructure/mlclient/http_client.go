package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"motor_service/internal/domain/model"
	"net/http"
	"strings"
	"time"
)

// HTTPMLClient delegates fault classification to a remote model server.
type HTTPMLClient struct {
	endpoint string
	client   *http.Client
}

func NewHTTPMLClient(endpoint string, timeout time.Duration) *HTTPMLClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMLClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type MLRequest struct {
	Columns  []string  `json:"columns"`
	Features []float64 `json:"features"`
}

type MLResponse struct {
	Label string `json:"label"`
}

// Classify implements model.Classifier.
func (c *HTTPMLClient) Classify(ctx context.Context, features model.FeatureVector) (string, error) {
	body, err := json.Marshal(MLRequest{
		Columns:  features.Columns,
		Features: features.Values,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ML request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create ML request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ML service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var mlResp MLResponse
	if err := json.NewDecoder(resp.Body).Decode(&mlResp); err != nil {
		return "", fmt.Errorf("failed to decode ML response: %w", err)
	}
	if mlResp.Label == "" {
		return "", fmt.Errorf("ML service returned an empty label")
	}

	return mlResp.Label, nil
}
