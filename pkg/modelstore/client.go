// Package modelstore is the HTTP client for the design-model store. It
// fetches version object trees, commits processed versions, and records run
// status and reports.
package modelstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/graph"
	"github.com/buildstream/datashield/pkg/models"
)

// Client talks to one model store instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client from the store configuration. The auth token is
// read from the configured environment variable; an empty token sends
// unauthenticated requests.
func NewClient(cfg *config.ModelStoreConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   os.Getenv(cfg.TokenEnv),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// RunClient binds the client to one run's coordinates. It implements the
// collaborator surface the sanitization engine drives.
type RunClient struct {
	*Client

	runID     string
	projectID string
	modelID   string
	versionID string
}

// ForRun returns a client scoped to the given run.
func (c *Client) ForRun(run *models.SanitizationRun) *RunClient {
	return &RunClient{
		Client:    c,
		runID:     run.ID,
		projectID: run.ProjectID,
		modelID:   run.ModelID,
		versionID: run.VersionID,
	}
}

// ReceiveVersion fetches the root object tree of the run's version.
func (c *RunClient) ReceiveVersion(ctx context.Context) (*graph.Node, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/models/%s/versions/%s/root",
		c.projectID, c.modelID, c.versionID)

	var root graph.Node
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &root); err != nil {
		return nil, fmt.Errorf("failed to receive version %s: %w", c.versionID, err)
	}
	return &root, nil
}

// ModelName returns the display name of the run's model.
func (c *RunClient) ModelName(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/models/%s", c.projectID, c.modelID)

	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get model %s: %w", c.modelID, err)
	}
	return resp.Name, nil
}

// CreateNewVersion commits the mutated tree as a new version under modelName.
func (c *RunClient) CreateNewVersion(ctx context.Context, root *graph.Node, modelName, message string) (string, string, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/versions", c.projectID)

	req := struct {
		ModelName string      `json:"model_name"`
		Message   string      `json:"message"`
		Root      *graph.Node `json:"root"`
	}{ModelName: modelName, Message: message, Root: root}

	var resp struct {
		ModelID   string `json:"model_id"`
		VersionID string `json:"version_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", "", fmt.Errorf("failed to create version: %w", err)
	}
	return resp.ModelID, resp.VersionID, nil
}

// AttachInfoToObjects attaches a categorized report message to object ids.
func (c *RunClient) AttachInfoToObjects(ctx context.Context, category string, objectIDs []string, message string) error {
	path := fmt.Sprintf("/api/v1/runs/%s/reports", c.runID)

	req := struct {
		Category  string   `json:"category"`
		ObjectIDs []string `json:"object_ids"`
		Message   string   `json:"message"`
	}{Category: category, ObjectIDs: objectIDs, Message: message}

	if err := c.doJSON(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}
	return nil
}

// SetContextView pins the run's result view.
func (c *RunClient) SetContextView(ctx context.Context, views []string, includeDefault bool) error {
	path := fmt.Sprintf("/api/v1/runs/%s/view", c.runID)

	req := struct {
		Views          []string `json:"views"`
		IncludeDefault bool     `json:"include_default"`
	}{Views: views, IncludeDefault: includeDefault}

	if err := c.doJSON(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("failed to set context view: %w", err)
	}
	return nil
}

// MarkRunSuccess records the run as succeeded in the store.
func (c *RunClient) MarkRunSuccess(ctx context.Context, message string) error {
	return c.markRun(ctx, "succeeded", message)
}

// MarkRunFailed records the run as failed in the store.
func (c *RunClient) MarkRunFailed(ctx context.Context, message string) error {
	return c.markRun(ctx, "failed", message)
}

func (c *RunClient) markRun(ctx context.Context, status, message string) error {
	path := fmt.Sprintf("/api/v1/runs/%s/status", c.runID)

	req := struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{Status: status, Message: message}

	if err := c.doJSON(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("failed to mark run %s: %w", status, err)
	}
	return nil
}

// doJSON performs one JSON request. A nil in sends no body; a nil out
// discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("store returned %d for %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
