package service

import (
	"context"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var exchangeTracer = otel.Tracer("service/exchange")

// maxDocumentSize caps uploaded files at 10 MiB.
const maxDocumentSize = 10 << 20

// ExchangeService handles the documents and messages exchanged between a
// client and the back office on a request.
type ExchangeService struct {
	store    port.ExchangeStore
	requests port.RequestStore
	blobs    port.BlobStore
	bucket   string
	logger   *zap.Logger
}

// NewExchangeService creates a new exchange service. bucket is the object
// storage bucket holding every exchanged document.
func NewExchangeService(store port.ExchangeStore, requests port.RequestStore, blobs port.BlobStore, bucket string, logger *zap.Logger) *ExchangeService {
	return &ExchangeService{
		store:    store,
		requests: requests,
		blobs:    blobs,
		bucket:   bucket,
		logger:   logger,
	}
}

// ============================================================
// Documents
// ============================================================

// UploadDocument stores a file in object storage and records it on the
// request. The blob is written first; if the row insert then fails, the
// orphan blob is logged for cleanup and the upload reports the error.
func (s *ExchangeService) UploadDocument(ctx context.Context, session domain.Session, requestID, kind, filename string, data []byte, contentType string, req *domain.UploadDocumentRequest) (*domain.Document, error) {
	ctx, span := exchangeTracer.Start(ctx, "ExchangeService.UploadDocument")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("document.type", req.DocumentType),
	)

	if !domain.IsValidDocumentType(req.DocumentType) {
		return nil, &domain.ErrValidation{Field: "documentType", Message: "type de document inconnu"}
	}
	if len(data) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "fichier vide"}
	}
	if len(data) > maxDocumentSize {
		return nil, &domain.ErrValidation{Field: "file", Message: "fichier trop volumineux (max 10 Mo)"}
	}

	common, err := s.authorize(ctx, session, requestID, kind)
	if err != nil {
		return nil, err
	}

	path := domain.BlobPath(common.UserID, requestID, req.DocumentType, filename, time.Now())
	if _, err := s.blobs.Upload(ctx, s.bucket, path, data, contentType); err != nil {
		return nil, err
	}

	doc, err := s.store.CreateDocument(ctx, &domain.Document{
		RequestID:      requestID,
		RequestKind:    kind,
		DocumentName:   filename,
		DocumentType:   req.DocumentType,
		FilePath:       path,
		UploadedBy:     session.UserID,
		UploadedByRole: session.Role,
		Description:    req.Description,
	})
	if err != nil {
		s.logger.Error("document row insert failed, blob is orphaned",
			zap.String("request_id", requestID),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("request_id", requestID),
		zap.String("document_type", req.DocumentType),
		zap.String("uploaded_by_role", session.Role),
	)

	return doc, nil
}

// ListDocuments returns a request's documents, newest first.
func (s *ExchangeService) ListDocuments(ctx context.Context, session domain.Session, requestID, kind string) ([]domain.Document, error) {
	ctx, span := exchangeTracer.Start(ctx, "ExchangeService.ListDocuments")
	defer span.End()

	if _, err := s.authorize(ctx, session, requestID, kind); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, requestID, kind)
}

// DocumentURL resolves a document to its public storage URL.
func (s *ExchangeService) DocumentURL(ctx context.Context, session domain.Session, documentID string) (string, error) {
	ctx, span := exchangeTracer.Start(ctx, "ExchangeService.DocumentURL")
	defer span.End()

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if _, err := s.authorize(ctx, session, doc.RequestID, doc.RequestKind); err != nil {
		return "", err
	}
	return s.blobs.PublicURL(s.bucket, doc.FilePath), nil
}

// ============================================================
// Messages
// ============================================================

// SendMessage appends a chat message to a request.
func (s *ExchangeService) SendMessage(ctx context.Context, session domain.Session, requestID, kind, body string) (*domain.Message, error) {
	ctx, span := exchangeTracer.Start(ctx, "ExchangeService.SendMessage")
	defer span.End()

	if body == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message vide"}
	}
	if _, err := s.authorize(ctx, session, requestID, kind); err != nil {
		return nil, err
	}

	return s.store.CreateMessage(ctx, &domain.Message{
		RequestID:   requestID,
		RequestKind: kind,
		SenderID:    session.UserID,
		SenderRole:  session.Role,
		Body:        body,
	})
}

// ListMessages returns a request's messages, newest first, and marks the
// other side's messages as read. The read-flag update is best effort.
func (s *ExchangeService) ListMessages(ctx context.Context, session domain.Session, requestID, kind string) ([]domain.Message, error) {
	ctx, span := exchangeTracer.Start(ctx, "ExchangeService.ListMessages")
	defer span.End()

	if _, err := s.authorize(ctx, session, requestID, kind); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, requestID, kind)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkMessagesRead(ctx, requestID, kind, session.Role); err != nil {
		s.logger.Warn("failed to mark messages read",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}

	return msgs, nil
}

// ============================================================
// Internal helpers
// ============================================================

// authorize loads the request and checks the session may touch its
// exchange. Admins always may; a client only on their own request, with a
// generic not-found to avoid leaking existence.
func (s *ExchangeService) authorize(ctx context.Context, session domain.Session, requestID, kind string) (*domain.RequestCommon, error) {
	var common *domain.RequestCommon
	switch kind {
	case domain.KindCompany:
		req, err := s.requests.GetCompanyRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		common = req.Common()
	case domain.KindService:
		req, err := s.requests.GetServiceRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		common = req.Common()
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "unknown request kind"}
	}

	if !session.IsAdmin() && common.UserID != session.UserID {
		return nil, &domain.ErrNotFound{Resource: "request", ID: requestID}
	}
	return common, nil
}
