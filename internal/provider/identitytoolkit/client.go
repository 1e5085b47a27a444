// Package identitytoolkit implements provider.API against the hosted
// Identity Toolkit REST endpoints (accounts:signUp, accounts:signInWithPassword,
// accounts:lookup).
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/authdash/authdash/internal/provider"
)

// Client calls the REST API with an API key
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	LocalID   string `json:"localId"`
	Email     string `json:"email"`
	IDToken   string `json:"idToken"`
	ExpiresIn string `json:"expiresIn"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []accountInfo `json:"users"`
}

type accountInfo struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`   // unix millis
	LastLoginAt   string `json:"lastLoginAt"` // unix millis
	Disabled      bool   `json:"disabled"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp registers a new email/password account
func (c *Client) SignUp(ctx context.Context, email, password string) (*provider.User, provider.Credentials, error) {
	return c.passwordFlow(ctx, "accounts:signUp", email, password)
}

// SignIn authenticates an existing account
func (c *Client) SignIn(ctx context.Context, email, password string) (*provider.User, provider.Credentials, error) {
	return c.passwordFlow(ctx, "accounts:signInWithPassword", email, password)
}

// Lookup resolves an ID token into the account record
func (c *Client) Lookup(ctx context.Context, idToken string) (*provider.User, error) {
	var resp lookupResponse
	if err := c.post(ctx, "accounts:lookup", lookupRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Users) == 0 {
		return nil, provider.NewError(provider.CodeUserNotFound)
	}

	info := resp.Users[0]
	if info.Disabled {
		return nil, provider.NewError(provider.CodeUserDisabled)
	}

	return &provider.User{
		UID:           info.LocalID,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		CreatedAt:     parseMillis(info.CreatedAt),
		LastSignInAt:  parseMillis(info.LastLoginAt),
	}, nil
}

// passwordFlow exchanges credentials for tokens, then reloads the full account
// record, since the token endpoints omit verification and timestamps.
func (c *Client) passwordFlow(ctx context.Context, method, email, password string) (*provider.User, provider.Credentials, error) {
	var tok tokenResponse
	req := passwordRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := c.post(ctx, method, req, &tok); err != nil {
		return nil, provider.Credentials{}, err
	}

	creds := provider.Credentials{
		IDToken: tok.IDToken,
		UID:     tok.LocalID,
	}

	user, err := c.Lookup(ctx, tok.IDToken)
	if err != nil {
		return nil, provider.Credentials{}, fmt.Errorf("failed to load account: %w", err)
	}

	return user, creds, nil
}

func (c *Client) post(ctx context.Context, method string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error body like {"error":{"message":"WEAK_PASSWORD : detail"}}
// into a provider.Error.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error.Message == "" {
		if resp.StatusCode >= http.StatusInternalServerError {
			return provider.NewError(provider.CodeUnavailable)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	code, detail, _ := strings.Cut(er.Error.Message, " : ")
	perr := provider.NewError(strings.TrimSpace(code))
	if detail != "" && perr.Code == provider.CodeWeakPassword {
		perr.Message = strings.TrimSpace(detail)
	}
	return perr
}

func parseMillis(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ provider.API = (*Client)(nil)

// ErrMissingAPIKey is returned by NewBackend when no API key is configured
var ErrMissingAPIKey = errors.New("identitytoolkit: api key is required")

// NewBackend builds a provider.Backend over the REST API
func NewBackend(baseURL, apiKey string, opts ...provider.BackendOption) (provider.Backend, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return provider.NewBackend(New(baseURL, apiKey), opts...), nil
}
