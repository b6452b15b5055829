package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// AuthClient is the hosted auth provider plus its users profile table.
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
	UpdateProfile(ctx context.Context, accessToken, userID string, update models.ProfileUpdate) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

var _ AuthClient = (*HTTPAuthClient)(nil)

// HTTPAuthClient implements AuthClient against a Supabase-style REST API.
type HTTPAuthClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

func NewHTTPAuthClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPAuthClient {
	return &HTTPAuthClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignIn exchanges email and password for an access token and loads the profile.
func (c *HTTPAuthClient) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	c.logger.Debug("Signing in", logging.Fields{"email": email})

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("sign in %s: %w", email, errors.ErrNotAuthenticated)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string   `json:"access_token"`
		User        authUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}

	user, err := c.loadProfile(ctx, token.AccessToken, token.User)
	if err != nil {
		return nil, err
	}

	c.logger.Info("User signed in", logging.Fields{"user_id": user.ID})
	return &models.AuthSession{User: user, AccessToken: token.AccessToken}, nil
}

// GetUser resolves the user behind an access token. Expired or unknown
// tokens return ErrNotAuthenticated.
func (c *HTTPAuthClient) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, errors.ErrNotAuthenticated
	}

	resp, err := c.request(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var au authUser
	if err := json.NewDecoder(resp.Body).Decode(&au); err != nil {
		return nil, err
	}
	return c.loadProfile(ctx, accessToken, au)
}

// UpdateProfile patches the caller's row in the users table and returns it.
func (c *HTTPAuthClient) UpdateProfile(ctx context.Context, accessToken, userID string, update models.ProfileUpdate) (*models.User, error) {
	c.logger.Debug("Updating profile", logging.Fields{"user_id": userID})

	payload := struct {
		models.ProfileUpdate
		UpdatedAt time.Time `json:"updated_at"`
	}{update, time.Now().UTC()}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	path := "/rest/v1/users?id=eq." + url.QueryEscape(userID)
	resp, err := c.request(ctx, http.MethodPatch, path, accessToken, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var rows []models.User
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, errors.ErrNotFound)
	}

	c.logger.Info("Profile updated", logging.Fields{"user_id": userID})
	return &rows[0], nil
}

// SignOut revokes the access token. A token the provider no longer knows
// counts as signed out.
func (c *HTTPAuthClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.request(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusUnauthorized:
		return nil
	default:
		return fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}
}

// loadProfile merges the users-table row into the auth identity. Users without
// a row yet get the bare identity.
func (c *HTTPAuthClient) loadProfile(ctx context.Context, accessToken string, au authUser) (*models.User, error) {
	path := "/rest/v1/users?select=*&id=eq." + url.QueryEscape(au.ID)
	resp, err := c.request(ctx, http.MethodGet, path, accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup returned status %d", resp.StatusCode)
	}

	var rows []models.User
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.User{ID: au.ID, Email: au.Email}, nil
	}

	user := rows[0]
	if user.Email == "" {
		user.Email = au.Email
	}
	return &user, nil
}

func (c *HTTPAuthClient) request(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(ctx, req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Auth service request failed", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}
	return resp, nil
}

func (c *HTTPAuthClient) setHeaders(ctx context.Context, req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if req.Method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}
}
