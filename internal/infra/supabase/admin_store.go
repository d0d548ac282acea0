package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// AdminStore implementation — notifications, tickets, settings,
// dashboard aggregates, internal team
// ============================================================

// --- Notifications ---

func (c *Client) CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateNotification")
	defer span.End()

	row := map[string]any{
		"id":      uuid.New().String(),
		"user_id": n.UserID,
		"title":   n.Title,
		"message": n.Body,
		"is_read": false,
	}
	if n.Type != "" {
		row["type"] = n.Type
	}
	if n.Link != "" {
		row["link"] = n.Link
	}
	if n.RequestID != "" {
		row["request_id"] = n.RequestID
		row["request_type"] = n.RequestKind
	}

	body, err := c.doPost(ctx, "user_notifications", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.Notification
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from user_notifications insert")
	}
	return &rows[0], nil
}

func (c *Client) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNotifications")
	defer span.End()

	offset := (page - 1) * pageSize
	path := fmt.Sprintf("user_notifications?user_id=eq.%s&order=created_at.desc&limit=%d&offset=%d",
		userID, pageSize, offset)
	if unreadOnly {
		path += "&is_read=eq.false"
	}
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Notification
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return rows, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notifID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkNotificationRead")
	defer span.End()

	path := fmt.Sprintf("user_notifications?id=eq.%s", notifID)
	return c.doPatch(ctx, path, map[string]any{"is_read": true})
}

// --- Tickets ---

// UpsertTicket creates the follow-up ticket for a request or updates the
// existing one. One ticket per (request_id, request_type).
func (c *Client) UpsertTicket(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertTicket")
	defer span.End()

	existing, err := c.GetTicket(ctx, t.RequestID, t.RequestKind)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
		existing = nil
	}

	if existing == nil {
		row := map[string]any{
			"id":           uuid.New().String(),
			"request_id":   t.RequestID,
			"request_type": t.RequestKind,
			"status":       "open",
		}
		if t.AssignedTo != "" {
			row["assigned_to"] = t.AssignedTo
		}
		if t.Priority != "" {
			row["priority"] = t.Priority
		}
		if t.InternalNotes != "" {
			row["notes_internal"] = t.InternalNotes
		}

		body, err := c.doPost(ctx, "tickets", row)
		if err != nil {
			return nil, err
		}
		var rows []domain.Ticket
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode ticket: %w", err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("no result returned from tickets insert")
		}
		return &rows[0], nil
	}

	updates := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if t.AssignedTo != "" {
		updates["assigned_to"] = t.AssignedTo
	}
	if t.Priority != "" {
		updates["priority"] = t.Priority
	}
	if t.InternalNotes != "" {
		updates["notes_internal"] = t.InternalNotes
	}
	if t.Status != "" {
		updates["status"] = t.Status
		if t.Status == "closed" {
			updates["closed_at"] = time.Now().UTC().Format(time.RFC3339)
			updates["closed_by"] = t.ClosedBy
		}
	}

	path := fmt.Sprintf("tickets?id=eq.%s", existing.ID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetTicket(ctx, t.RequestID, t.RequestKind)
}

func (c *Client) GetTicket(ctx context.Context, requestID, requestKind string) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTicket")
	defer span.End()

	path := fmt.Sprintf("tickets?request_id=eq.%s&request_type=eq.%s&limit=1", requestID, requestKind)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Ticket
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "ticket", ID: requestID}
	}
	return &rows[0], nil
}

func (c *Client) CountOpenTickets(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountOpenTickets")
	defer span.End()

	return c.countExact(ctx, "tickets?status=eq.open&select=id")
}

// --- Site settings ---

func (c *Client) GetSetting(ctx context.Context, key string) (*domain.SiteSetting, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSetting")
	defer span.End()

	path := fmt.Sprintf("site_settings?key=eq.%s&limit=1", key)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.SiteSetting
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode site_setting: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "site_setting", ID: key}
	}
	return &rows[0], nil
}

func (c *Client) UpsertSetting(ctx context.Context, s *domain.SiteSetting) (*domain.SiteSetting, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSetting")
	defer span.End()

	row := map[string]any{
		"key":        s.Key,
		"value":      s.Value,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if s.Category != "" {
		row["category"] = s.Category
	}
	if s.UpdatedBy != "" {
		row["updated_by"] = s.UpdatedBy
	}

	body, err := c.doUpsert(ctx, "site_settings", "key", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.SiteSetting
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode site_setting: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from site_settings upsert")
	}
	return &rows[0], nil
}

// --- Dashboard aggregates ---

// CountRequestsByStatus tallies a request table by status.
func (c *Client) CountRequestsByStatus(ctx context.Context, kind string) (map[string]int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountRequestsByStatus")
	defer span.End()

	table := "company_requests"
	if kind == domain.KindService {
		table = "service_requests"
	}

	body, err := c.doRequest(ctx, http.MethodGet, table+"?select=status")
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s statuses: %w", table, err)
	}

	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Status]++
	}
	return counts, nil
}

// SumPaidAmounts totals all paid payment attempts, in whole francs.
func (c *Client) SumPaidAmounts(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SumPaidAmounts")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "payment_attempts?status=eq.paid&select=amount")
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Amount int `json:"amount"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("decode paid amounts: %w", err)
	}

	total := 0
	for _, r := range rows {
		total += r.Amount
	}
	return total, nil
}

// --- Internal team ---

func (c *Client) ListInternalUsers(ctx context.Context) ([]domain.InternalUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInternalUsers")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, "internal_users?order=created_at.asc")
	if err != nil {
		return nil, err
	}

	var rows []domain.InternalUser
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode internal_users: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateInternalUser(ctx context.Context, u *domain.InternalUser) (*domain.InternalUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInternalUser")
	defer span.End()

	row := map[string]any{
		"id":        uuid.New().String(),
		"user_id":   u.UserID,
		"full_name": u.FullName,
		"email":     u.Email,
		"role":      u.Role,
		"is_active": true,
	}

	body, err := c.doPost(ctx, "internal_users", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.InternalUser
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode internal_user: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from internal_users insert")
	}
	return &rows[0], nil
}

func (c *Client) UpdateInternalUser(ctx context.Context, id string, updates map[string]any) (*domain.InternalUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInternalUser")
	defer span.End()

	path := fmt.Sprintf("internal_users?id=eq.%s", id)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("internal_users?id=eq.%s&limit=1", id))
	if err != nil {
		return nil, err
	}

	var rows []domain.InternalUser
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode internal_user: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "internal_user", ID: id}
	}
	return &rows[0], nil
}
