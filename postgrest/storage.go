// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package postgrest

import (
	"bytes"
	"context"
	"net/http"
)

// UploadObject stores an object (avatar assets) in a storage bucket and
// returns its public URL.
func (c *Client) UploadObject(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	u := c.baseURL + "/storage/v1/object/" + bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if err := c.authorize(ctx, req); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeError(resp)
	}
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + path, nil
}
