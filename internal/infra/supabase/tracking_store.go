package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	trackingdomain "github.com/legalform-ci/legalform-api/internal/tracking/domain"
)

// ============================================================
// RateLimitStore implementation — public tracking counters
// ============================================================

func (c *Client) GetRateLimit(ctx context.Context, phone, ip string) (*trackingdomain.RateLimitEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRateLimit")
	defer span.End()

	path := fmt.Sprintf("public_tracking_rate_limit?phone=eq.%s&ip_address=eq.%s&limit=1",
		url.QueryEscape(phone), url.QueryEscape(ip))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []trackingdomain.RateLimitEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rate limit: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// RecordAttempt calls the record_tracking_attempt SQL function, which does
// INSERT ... ON CONFLICT (phone, ip_address) with the increment, window
// reset and block threshold in a single statement. Two concurrent attempts
// for the same couple therefore land on the same row.
func (c *Client) RecordAttempt(ctx context.Context, phone, ip string, limits trackingdomain.Limits) (*trackingdomain.RateLimitEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.RecordAttempt")
	defer span.End()

	body, err := c.doRPC(ctx, "record_tracking_attempt", map[string]any{
		"p_phone":            phone,
		"p_ip":               ip,
		"p_max_attempts":     limits.MaxAttempts,
		"p_window_seconds":   int(limits.Window.Seconds()),
		"p_cooldown_seconds": int(limits.Cooldown.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	// The function RETURNS SETOF public_tracking_rate_limit.
	var rows []trackingdomain.RateLimitEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rate limit increment: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("record_tracking_attempt returned no row")
	}
	return &rows[0], nil
}

func (c *Client) ClearRateLimit(ctx context.Context, phone, ip string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ClearRateLimit")
	defer span.End()

	path := fmt.Sprintf("public_tracking_rate_limit?phone=eq.%s&ip_address=eq.%s",
		url.QueryEscape(phone), url.QueryEscape(ip))
	return c.doDelete(ctx, path)
}
