// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package postgrest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is the structured error body the backend returns for a failed
// operation. Error returns the backend's human-readable message verbatim
// so the mutation layer can surface it to the user unchanged.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// decodeError reads a non-2xx response into an APIError.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			if msg := strings.TrimSpace(string(body)); msg != "" && apiErr.Message == "" {
				apiErr.Message = msg
			}
		}
	}
	return apiErr
}
