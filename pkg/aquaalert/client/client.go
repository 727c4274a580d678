// Package client is a minimal Go client for the AquaAlert REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"aquaalert.org/aquaalert/models"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

// SetToken sets the bearer token used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login authenticates and stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var result struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &result)
	if err != nil {
		return err
	}
	c.token = result.AccessToken
	return nil
}

// ListBowsers returns all bowsers, optionally filtered by status.
func (c *Client) ListBowsers(ctx context.Context, status string) ([]*models.Bowser, error) {
	path := "/api/v1/bowsers"
	if status != "" {
		path += "?status=" + status
	}
	var result struct {
		Bowsers []*models.Bowser `json:"bowsers"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Bowsers, nil
}

// GetDeployment returns a single deployment by ID.
func (c *Client) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	var d models.Deployment
	if err := c.do(ctx, http.MethodGet, "/api/v1/deployments/"+id, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Ranking is one entry of the dispatch queue.
type Ranking struct {
	Deployment *models.Deployment `json:"deployment"`
	Score      int                `json:"score"`
}

// GetRankings returns the active deployments ordered by urgency.
func (c *Client) GetRankings(ctx context.Context) ([]Ranking, error) {
	var result struct {
		Rankings []Ranking `json:"rankings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/deployments/rankings", nil, &result); err != nil {
		return nil, err
	}
	return result.Rankings, nil
}
