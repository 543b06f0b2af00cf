package requeststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/config"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
)

const (
	requestsPath             = "/api/users/requests"
	errorBodyReadLimit int64 = 1024
)

// Request is the pickup-request record owned by the remote user service.
// This service only mirrors the status field; everything else is read-only.
type Request struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          enums.RequestStatus `json:"status"`
	ScrapType       string              `json:"scrap_type,omitempty"`
	EstimatedWeight *float64            `json:"estimated_weight,omitempty"`
	EstimatedPrice  *float64            `json:"estimated_price,omitempty"`
	PickupAddress   string              `json:"pickup_address,omitempty"`
	PreferredDate   string              `json:"preferred_date,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       *time.Time          `json:"created_at,omitempty"`
}

// Client talks to the remote request store with the caller's own bearer
// token; this service holds no credentials of its own for it.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the request-store client from configuration.
func NewClient(cfg config.RequestStoreConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("request store base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// ListRequests returns the remote catalog filtered by status, in the order
// the remote service serves it.
func (c *Client) ListRequests(ctx context.Context, token string, status enums.RequestStatus) ([]Request, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "request store client not configured")
	}

	url := c.baseURL + requestsPath
	if status != "" {
		url += "?status=" + status.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build list requests request")
	}
	setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute list requests request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, dependencyStatusError(resp, "list requests failed")
	}

	var apiResp struct {
		Requests []Request `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode list requests response")
	}
	return apiResp.Requests, nil
}

// GetRequest fetches a single request record by id.
func (c *Client) GetRequest(ctx context.Context, token string, id uuid.UUID) (*Request, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "request store client not configured")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}

	url := fmt.Sprintf("%s%s/%s", c.baseURL, requestsPath, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build get request request")
	}
	setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute get request request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dependencyStatusError(resp, "get request failed")
	}

	var record Request
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode request record")
	}
	return &record, nil
}

// UpdateRequestStatus pushes a new status onto the remote record. Callers
// treat failures as advisory; the local ledger stays authoritative.
func (c *Client) UpdateRequestStatus(ctx context.Context, token string, id uuid.UUID, status enums.RequestStatus, note string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "request store client not configured")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid request status %q", status))
	}

	payload, err := json.Marshal(map[string]string{
		"status": status.String(),
		"notes":  note,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal status update")
	}

	url := fmt.Sprintf("%s%s/%s/status", c.baseURL, requestsPath, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build status update request")
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute status update request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return dependencyStatusError(resp, "status update failed")
	}
	return nil
}

func setAuth(req *http.Request, token string) {
	token = strings.TrimSpace(token)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func dependencyStatusError(resp *http.Response, message string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	return pkgerrors.Wrap(
		pkgerrors.CodeDependency,
		fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		message,
	)
}
