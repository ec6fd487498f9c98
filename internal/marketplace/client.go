// Package marketplace is a thin client for the Hyperbolic GPU marketplace
// API. Calls are simple request/response, no retries or pagination.
package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AvailableGPUs lists every GPU currently rentable on the marketplace.
// Prices in the response are USD cents per hour.
func (c *Client) AvailableGPUs() (string, error) {
	payload := map[string]any{
		"filters": map[string]any{},
	}
	return c.do(http.MethodPost, "/v1/marketplace", payload)
}

// Instances reports status and SSH commands for the caller's rented GPUs.
func (c *Client) Instances() (string, error) {
	return c.do(http.MethodGet, "/v1/marketplace/instances", nil)
}

// Rent creates a marketplace instance on the given cluster and node.
func (c *Client) Rent(clusterName string, nodeName string, gpuCount string) (string, error) {
	if clusterName == "" || nodeName == "" {
		return "", ErrMissingRentParams
	}

	payload := map[string]any{
		"cluster_name": clusterName,
		"node_name":    nodeName,
		"gpu_count":    gpuCount,
	}
	return c.do(http.MethodPost, "/v1/marketplace/instances/create", payload)
}

func (c *Client) do(method string, path string, payload any) (string, error) {
	if c.apiKey == "" {
		return "", ErrAPIKeyNotSet
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	return prettyJSON(respBody), nil
}

// prettyJSON re-indents a JSON body for the string-valued action boundary;
// non-JSON bodies pass through untouched.
func prettyJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
