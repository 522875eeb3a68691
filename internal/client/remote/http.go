package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
	"github.com/dmitrijs2005/cpdvault/internal/common"
)

// HTTPClient talks JSON to the CPD Vault server.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	session *Session
}

// NewHTTPClient builds a client for the given base URL (scheme://host:port).
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.AccessToken != ""
}

func (c *HTTPClient) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *HTTPClient) SetSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *HTTPClient) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

func (c *HTTPClient) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *HTTPClient) refreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.RefreshToken
}

// do executes one JSON request. A transport-level failure maps to
// ErrorNetworkUnavailable; HTTP statuses map to the error taxonomy. The body,
// if non-nil, is re-marshaled per attempt.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any, authed bool) error {
	err := c.doOnce(ctx, method, path, body, out, authed)
	if err == nil || !authed {
		return err
	}

	// One refresh attempt on an expired access token, mirroring the usual
	// interceptor behavior; anything else propagates.
	if errors.Is(err, errTokenExpired) {
		if c.refreshToken() == "" {
			return common.ErrorNotAuthenticated
		}
		if rerr := c.refresh(ctx); rerr != nil {
			return common.ErrorNotAuthenticated
		}
		if err = c.doOnce(ctx, method, path, body, out, authed); errors.Is(err, errTokenExpired) {
			return common.ErrorNotAuthenticated
		}
		return err
	}
	return err
}

var errTokenExpired = errors.New("access token expired")

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body any, out any, authed bool) error {
	if authed && !c.HasSession() {
		return common.ErrorNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.accessToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		if authed {
			return errTokenExpired
		}
		return common.ErrorUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode >= 500:
		// server-side trouble is transient from the client's point of view
		return fmt.Errorf("%w: server returned %s", common.ErrorNetworkUnavailable, resp.Status)
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s: %s", common.ErrorRemoteRejected, resp.Status, bytes.TrimSpace(b))
	}
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	var tokens Session
	body := map[string]string{"refresh_token": c.refreshToken()}
	if err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh", body, &tokens, false); err != nil {
		return err
	}
	c.SetSession(&tokens)
	return nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.doOnce(ctx, http.MethodPost, "/api/auth/register", credentials{username, password}, nil, false)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*Session, error) {
	var tokens Session
	err := c.doOnce(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &tokens, false)
	if err != nil {
		return nil, err
	}
	c.SetSession(&tokens)
	return &tokens, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doOnce(ctx, http.MethodGet, "/api/ping", nil, nil, false)
}

func (c *HTTPClient) Upsert(ctx context.Context, entry *models.Entry) error {
	return c.do(ctx, http.MethodPut, "/api/entries/"+url.PathEscape(entry.ID), entry, nil, true)
}

// Delete tolerates a missing remote row: deleting what is already gone is
// success.
func (c *HTTPClient) Delete(ctx context.Context, correlationID string) error {
	err := c.do(ctx, http.MethodDelete, "/api/entries/"+url.PathEscape(correlationID), nil, nil, true)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

func (c *HTTPClient) List(ctx context.Context) ([]*models.Entry, error) {
	var resp struct {
		Entries []*models.Entry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/entries", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *HTTPClient) PresignPut(ctx context.Context) (string, string, error) {
	var resp struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/files/presign-put", nil, &resp, true); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

func (c *HTTPClient) PresignGet(ctx context.Context, key string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := "/api/files/presign-get?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return "", err
	}
	return resp.URL, nil
}
