package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// ExchangeStore implementation — documents and messages
// ============================================================

// --- Documents ---

func (c *Client) CreateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDocument")
	defer span.End()

	row := map[string]any{
		"id":               uuid.New().String(),
		"request_id":       doc.RequestID,
		"request_type":     doc.RequestKind,
		"document_name":    doc.DocumentName,
		"document_type":    doc.DocumentType,
		"file_path":        doc.FilePath,
		"uploaded_by":      doc.UploadedBy,
		"uploaded_by_role": doc.UploadedByRole,
		"description":      doc.Description,
	}

	body, err := c.doPost(ctx, "request_documents_exchange", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.Document
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from request_documents_exchange insert")
	}
	return &rows[0], nil
}

func (c *Client) ListDocuments(ctx context.Context, requestID, requestKind string) ([]domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDocuments")
	defer span.End()

	path := fmt.Sprintf("request_documents_exchange?request_id=eq.%s&request_type=eq.%s&order=created_at.desc",
		requestID, requestKind)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Document
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return rows, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDocument")
	defer span.End()

	path := fmt.Sprintf("request_documents_exchange?id=eq.%s&limit=1", id)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Document
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "document", ID: id}
	}
	return &rows[0], nil
}

// --- Messages ---

func (c *Client) CreateMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateMessage")
	defer span.End()

	row := map[string]any{
		"id":           uuid.New().String(),
		"request_id":   msg.RequestID,
		"request_type": msg.RequestKind,
		"sender_id":    msg.SenderID,
		"sender_role":  msg.SenderRole,
		"message":      msg.Body,
		"is_read":      false,
	}

	body, err := c.doPost(ctx, "request_messages", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.Message
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from request_messages insert")
	}
	return &rows[0], nil
}

func (c *Client) ListMessages(ctx context.Context, requestID, requestKind string) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()

	path := fmt.Sprintf("request_messages?request_id=eq.%s&request_type=eq.%s&order=created_at.desc",
		requestID, requestKind)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Message
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return rows, nil
}

// MarkMessagesRead marks messages sent by the other side as read.
func (c *Client) MarkMessagesRead(ctx context.Context, requestID, requestKind, readerRole string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkMessagesRead")
	defer span.End()

	path := fmt.Sprintf("request_messages?request_id=eq.%s&request_type=eq.%s&sender_role=neq.%s&is_read=eq.false",
		requestID, requestKind, readerRole)
	return c.doPatch(ctx, path, map[string]any{"is_read": true})
}
