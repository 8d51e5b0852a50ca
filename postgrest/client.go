// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package postgrest is the thin typed wrapper over the hosted backend's
// row-store API. It implements the remote collection contract consumed by
// the record synchronization layer: windowed queries, insert, update,
// conflict-keyed upsert and delete, plus exact-count head requests and
// avatar object uploads.
package postgrest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// TokenFunc supplies the session JWT for a request. A nil TokenFunc sends
// only the API key, which the backend treats as the anonymous role.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks to one hosted backend project.
type Client struct {
	baseURL string
	apiKey  string
	token   TokenFunc
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the project at baseURL (no trailing slash).
// httpClient may be nil for a default with a request timeout.
func New(baseURL, apiKey string, token TokenFunc, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		token:   token,
		http:    httpClient,
		logger:  logger,
	}
}

// From starts a query against one table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, sel: "*"}
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	req.Header.Set("apikey", c.apiKey)
	bearer := c.apiKey
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return err
		}
		if tok != "" {
			bearer = tok
		}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	return nil
}
