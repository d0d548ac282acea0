package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// PaymentStore implementation — payment attempts via PostgREST
// ============================================================

func (c *Client) CreatePaymentAttempt(ctx context.Context, attempt *domain.PaymentAttempt) (*domain.PaymentAttempt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePaymentAttempt")
	defer span.End()

	row := map[string]any{
		"id":             uuid.New().String(),
		"request_id":     attempt.RequestID,
		"request_type":   attempt.RequestKind,
		"user_id":        attempt.UserID,
		"amount":         attempt.Amount,
		"currency":       attempt.Currency,
		"status":         attempt.Status,
		"transaction_id": attempt.TransactionID,
	}
	if attempt.PaymentMethod != "" {
		row["payment_method"] = attempt.PaymentMethod
	}

	body, err := c.doPost(ctx, "payment_attempts", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.PaymentAttempt
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode payment_attempt: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from payment_attempts insert")
	}
	return &rows[0], nil
}

func (c *Client) GetPaymentAttemptByTransaction(ctx context.Context, transactionID string) (*domain.PaymentAttempt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPaymentAttemptByTransaction")
	defer span.End()

	path := fmt.Sprintf("payment_attempts?transaction_id=eq.%s&limit=1", transactionID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.PaymentAttempt
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode payment_attempt: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "payment_attempt", ID: transactionID}
	}
	return &rows[0], nil
}

func (c *Client) ListPaymentAttempts(ctx context.Context, requestID, requestKind string) ([]domain.PaymentAttempt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPaymentAttempts")
	defer span.End()

	path := fmt.Sprintf("payment_attempts?request_id=eq.%s&request_type=eq.%s&order=created_at.desc",
		requestID, requestKind)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.PaymentAttempt
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode payment_attempts: %w", err)
	}
	return rows, nil
}

func (c *Client) UpdatePaymentAttempt(ctx context.Context, id string, updates map[string]any) (*domain.PaymentAttempt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePaymentAttempt")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	path := fmt.Sprintf("payment_attempts?id=eq.%s", id)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}

	fetchPath := fmt.Sprintf("payment_attempts?id=eq.%s&limit=1", id)
	body, err := c.doRequest(ctx, http.MethodGet, fetchPath)
	if err != nil {
		return nil, err
	}

	var rows []domain.PaymentAttempt
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode payment_attempt: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "payment_attempt", ID: id}
	}
	return &rows[0], nil
}
