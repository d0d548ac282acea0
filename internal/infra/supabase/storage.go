package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// BlobStore implementation — Supabase Storage API
// ============================================================

// Upload stores a binary object and returns its path within the bucket.
func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Upload")
	defer span.End()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: storage upload failed",
			zap.String("bucket", bucket),
			zap.String("path", path),
			zap.Error(err),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		c.logger.Warn("supabase: storage upload non-2xx",
			zap.String("bucket", bucket),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", fmt.Errorf("supabase storage upload returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: storage upload OK",
		zap.String("bucket", bucket),
		zap.String("path", path),
		zap.Int("size", len(data)),
	)
	return path, nil
}

// Download fetches a binary object.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Download")
	defer span.End()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: storage download failed",
			zap.String("bucket", bucket),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return nil, fmt.Errorf("supabase storage download returned %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// PublicURL builds the public object URL for a bucket path.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, path)
}

// Delete removes objects from a bucket.
func (c *Client) Delete(ctx context.Context, bucket string, paths []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteObjects")
	defer span.End()

	payload, err := json.Marshal(map[string]any{"prefixes": paths})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: storage delete failed",
			zap.String("bucket", bucket),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return fmt.Errorf("supabase storage delete returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: storage delete OK",
		zap.String("bucket", bucket),
		zap.Int("count", len(paths)),
	)
	return nil
}
