package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/config"
	"github.com/scraplink/dealer-backend/pkg/enums"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
)

const verifyPath = "/api/auth/verify"

// Identity is the verified caller returned by the auth service.
type Identity struct {
	ID   uuid.UUID  `json:"id"`
	Role enums.Role `json:"role"`
}

// VerifyCache stores recent verification results keyed by token digest.
// pkg/redis.Client satisfies it.
type VerifyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	VerifyCacheKey(tokenDigest string) string
}

// Client calls the external identity verifier. Every failure mode — timeout,
// transport error, non-200, unknown role — maps to unauthenticated; the
// service never guesses at a caller it could not verify.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      VerifyCache
	cacheTTL   time.Duration
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

// WithCache enables caching of successful verifications.
func WithCache(cache VerifyCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient builds the identity client from configuration.
func NewClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("identity base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cfg.VerifyCacheTTL,
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

// Verify resolves a bearer token to an identity via the auth service.
func (c *Client) Verify(ctx context.Context, token string) (*Identity, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity verifier not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	digest := tokenDigest(token)
	if cached := c.fromCache(ctx, digest); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+verifyPath, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "build verify request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A verifier timeout means unauthenticated, not "unknown role".
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "identity verification failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("identity verification rejected (status %d)", resp.StatusCode))
	}

	var apiResp struct {
		User struct {
			ID   uuid.UUID `json:"id"`
			Role string    `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "decode verify response")
	}
	if apiResp.User.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "verify response missing user id")
	}

	role, err := enums.ParseRole(apiResp.User.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unknown role")
	}

	ident := &Identity{ID: apiResp.User.ID, Role: role}
	c.toCache(ctx, digest, ident)
	return ident, nil
}

func (c *Client) fromCache(ctx context.Context, digest string) *Identity {
	if c.cache == nil || c.cacheTTL <= 0 {
		return nil
	}
	raw, err := c.cache.Get(ctx, c.cache.VerifyCacheKey(digest))
	if err != nil || raw == "" {
		return nil
	}
	var ident Identity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil {
		return nil
	}
	if ident.ID == uuid.Nil || !ident.Role.IsValid() {
		return nil
	}
	return &ident
}

func (c *Client) toCache(ctx context.Context, digest string, ident *Identity) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(ident)
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, c.cache.VerifyCacheKey(digest), string(raw), c.cacheTTL)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
