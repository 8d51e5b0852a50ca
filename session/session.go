// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package session consumes the hosted backend's authentication service:
// password sign-in/sign-up, session token handling, and profile
// resolution with a bounded deadline and locally derived fallback.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/hr"
)

// DefaultProfileTimeout bounds profile resolution on sign-in. A slow or
// missing profile row falls back to a locally derived profile instead of
// blocking the app.
const DefaultProfileTimeout = 3 * time.Second

// AuthTimeout reports that profile resolution exceeded its bound. It is
// not fatal; the caller proceeds with the fallback profile.
type AuthTimeout struct {
	Err error
}

func (e *AuthTimeout) Error() string { return fmt.Sprintf("profile resolution timed out: %v", e.Err) }

func (e *AuthTimeout) Unwrap() error { return e.Err }

// Session is an authenticated identity against the hosted backend.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       uuid.UUID
	Email        string
	ExpiresAt    time.Time
}

// Token satisfies the collection client's token contract.
func (s *Session) Token(ctx context.Context) (string, error) {
	if s == nil || s.AccessToken == "" {
		return "", errors.New("no active session")
	}
	return s.AccessToken, nil
}

// Claims are the session JWT claims issued by the hosted auth service.
type Claims struct {
	Email string  `json:"email"`
	Role  hr.Role `json:"role"`
	jwt.RegisteredClaims
}

// Client talks to the hosted auth endpoints of one project.
type Client struct {
	// ProfileTimeout bounds ResolveProfile. Zero means
	// DefaultProfileTimeout.
	ProfileTimeout time.Duration

	baseURL   string
	apiKey    string
	jwtSecret []byte
	http      *http.Client
	logger    *slog.Logger
}

// New creates an auth client. jwtSecret may be empty; tokens are then
// decoded without signature verification, which is the usual client-side
// posture (the backend is the verifier of record).
func New(baseURL, apiKey, jwtSecret string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
		jwtSecret: func() []byte {
			if jwtSecret == "" {
				return nil
			}
			return []byte(jwtSecret)
		}(),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type authError struct {
	Message     string `json:"message"`
	Msg         string `json:"msg"`
	Description string `json:"error_description"`
}

func (e authError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.Description} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var ae authError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		if json.Unmarshal(raw, &ae) == nil && ae.text() != "" {
			return nil, errors.New(ae.text())
		}
		return nil, fmt.Errorf("auth request failed with status %d", resp.StatusCode)
	}
	return resp, nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.post(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	userID, err := uuid.Parse(tr.User.ID)
	if err != nil {
		return nil, fmt.Errorf("bad user id in token response: %w", err)
	}
	return &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		UserID:       userID,
		Email:        tr.User.Email,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// SignUp registers a new account, carrying name and role as profile
// metadata the backend materializes into the profiles table.
func (c *Client) SignUp(ctx context.Context, email, password, name string, role hr.Role) error {
	if role == "" {
		role = hr.RoleEmployee
	}
	resp, err := c.post(ctx, "/auth/v1/signup", map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]any{"name": name, "role": string(role)},
	}, "")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// SignOut revokes the session's tokens.
func (c *Client) SignOut(ctx context.Context, s *Session) error {
	resp, err := c.post(ctx, "/auth/v1/logout", struct{}{}, s.AccessToken)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ParseToken decodes session JWT claims. With a configured secret the
// HS256 signature is verified; otherwise the claims are decoded without
// verification.
func (c *Client) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if c.jwtSecret != nil {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.jwtSecret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid session token: %w", err)
		}
		if !parsed.Valid {
			return nil, errors.New("invalid session token")
		}
		return claims, nil
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("undecodable session token: %w", err)
	}
	return claims, nil
}

// ProfileFetcher loads the profile row for a user id.
type ProfileFetcher func(ctx context.Context, id uuid.UUID) (hr.Profile, error)

// ResolveProfile races the profile fetch against the configured bound and
// returns a usable profile either way: the stored row when it arrives in
// time, otherwise the fallback derived from the email local-part. The
// returned error (an *AuthTimeout or the fetch failure) is informational,
// never fatal.
func (c *Client) ResolveProfile(ctx context.Context, fetch ProfileFetcher, id uuid.UUID, email string) (hr.Profile, error) {
	timeout := c.ProfileTimeout
	if timeout <= 0 {
		timeout = DefaultProfileTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	profile, err := fetch(ctx, id)
	if err == nil {
		return profile, nil
	}
	fallback := hr.FallbackProfile(id, email)
	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn("profile fetch timed out, using fallback", "user", id)
		return fallback, &AuthTimeout{Err: err}
	}
	c.logger.Warn("profile fetch failed, using fallback", "user", id, "error", err)
	return fallback, err
}
