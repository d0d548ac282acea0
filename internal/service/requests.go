package service

import (
	"context"
	"fmt"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var requestTracer = otel.Tracer("service/requests")

// statusLabels are the client-facing French labels for notifications.
var statusLabels = map[string]string{
	domain.StatusPendingQuote: "en attente de devis",
	domain.StatusPending:      "en attente de traitement",
	domain.StatusInProgress:   "en cours de traitement",
	domain.StatusCompleted:    "terminée",
	domain.StatusRejected:     "rejetée",
}

// RequestService drives the request lifecycle after intake: reads,
// admin status transitions, quoting and client reviews.
type RequestService struct {
	store   port.RequestStore
	admin   port.AdminStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRequestService creates a new request lifecycle service.
func NewRequestService(store port.RequestStore, admin port.AdminStore, metrics *observability.Metrics, logger *zap.Logger) *RequestService {
	return &RequestService{
		store:   store,
		admin:   admin,
		metrics: metrics,
		logger:  logger,
	}
}

// ============================================================
// Reads
// ============================================================

// GetCompany returns one company request. Clients only see their own.
func (s *RequestService) GetCompany(ctx context.Context, session domain.Session, id string) (*domain.CompanyRequest, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.GetCompany")
	defer span.End()

	req, err := s.store.GetCompanyRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsAdmin() && req.UserID != session.UserID {
		return nil, &domain.ErrNotFound{Resource: "request", ID: id}
	}
	return req, nil
}

// GetService returns one service request. Clients only see their own.
func (s *RequestService) GetService(ctx context.Context, session domain.Session, id string) (*domain.ServiceRequest, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.GetService")
	defer span.End()

	req, err := s.store.GetServiceRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsAdmin() && req.UserID != session.UserID {
		return nil, &domain.ErrNotFound{Resource: "request", ID: id}
	}
	return req, nil
}

// ListAssociates returns the associates of a company request, with the
// same visibility rule as the request itself.
func (s *RequestService) ListAssociates(ctx context.Context, session domain.Session, companyRequestID string) ([]domain.Associate, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.ListAssociates")
	defer span.End()

	if _, err := s.GetCompany(ctx, session, companyRequestID); err != nil {
		return nil, err
	}
	return s.store.ListAssociates(ctx, companyRequestID)
}

// ListCompany returns a filtered page of company requests. Admin only.
func (s *RequestService) ListCompany(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.CompanyRequest, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.ListCompany")
	defer span.End()
	return s.store.ListCompanyRequests(ctx, filter, page, pageSize)
}

// ListService returns a filtered page of service requests. Admin only.
func (s *RequestService) ListService(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.ServiceRequest, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.ListService")
	defer span.End()
	return s.store.ListServiceRequests(ctx, filter, page, pageSize)
}

// ListMine returns both request kinds owned by the session user, for the
// client dashboard.
func (s *RequestService) ListMine(ctx context.Context, session domain.Session) ([]domain.CompanyRequest, []domain.ServiceRequest, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.ListMine")
	defer span.End()

	companies, err := s.store.ListCompanyRequestsByOwner(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.store.ListServiceRequestsByOwner(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return companies, services, nil
}

// ============================================================
// UpdateStatus — PATCH /v1/admin/requests/{kind}/{id}/status
// ============================================================

// UpdateStatus moves a request along its lifecycle. Only edges allowed by
// CanTransition pass; completed requests record who closed them. The
// owner is notified; a notification failure never fails the transition.
func (s *RequestService) UpdateStatus(ctx context.Context, session domain.Session, requestID, kind, newStatus string) (*domain.RequestCommon, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.status", newStatus),
	)

	if !session.IsAdmin() {
		return nil, &domain.ErrForbidden{Action: "change request status"}
	}

	common, err := s.getCommon(ctx, requestID, kind)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(common.Status, newStatus) {
		return nil, &domain.ErrInvalidTransition{From: common.Status, To: newStatus}
	}

	updates := map[string]any{"status": newStatus}
	if newStatus == domain.StatusCompleted || newStatus == domain.StatusRejected {
		updates["closed_at"] = time.Now().UTC().Format(time.RFC3339)
		updates["closed_by"] = session.UserID
	}

	updated, err := s.update(ctx, requestID, kind, updates)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrStatusChange(newStatus)

	s.notifyOwner(ctx, updated, kind,
		"Mise à jour de votre demande",
		fmt.Sprintf("Votre demande N° %s est maintenant %s.", updated.TrackingNumber, statusLabels[newStatus]),
	)

	s.logger.Info("request status changed",
		zap.String("request_id", requestID),
		zap.String("kind", kind),
		zap.String("from", common.Status),
		zap.String("to", newStatus),
		zap.String("changed_by", session.UserID),
	)

	return updated, nil
}

// ============================================================
// SetQuote — PATCH /v1/admin/requests/{kind}/{id}/quote
// ============================================================

// SetQuote prices a request that entered the lifecycle without a fixed
// price. Service requests move from pending_quote to pending; company
// requests submitted without a computable price stay pending and only
// gain their price here.
func (s *RequestService) SetQuote(ctx context.Context, session domain.Session, requestID, kind string, price int) (*domain.RequestCommon, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.SetQuote")
	defer span.End()

	if !session.IsAdmin() {
		return nil, &domain.ErrForbidden{Action: "set a quote"}
	}
	if price <= 0 {
		return nil, &domain.ErrValidation{Field: "price", Message: "le montant doit être positif"}
	}

	common, err := s.getCommon(ctx, requestID, kind)
	if err != nil {
		return nil, err
	}
	quotable := common.Status == domain.StatusPendingQuote ||
		(kind == domain.KindCompany && common.Status == domain.StatusPending && common.EstimatedPrice == nil)
	if !quotable {
		return nil, &domain.ErrInvalidTransition{From: common.Status, To: domain.StatusPending}
	}

	updated, err := s.update(ctx, requestID, kind, map[string]any{
		"estimated_price": price,
		"status":          domain.StatusPending,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrStatusChange(domain.StatusPending)

	s.notifyOwner(ctx, updated, kind,
		"Votre devis est prêt",
		fmt.Sprintf("Le devis de votre demande N° %s est de %d %s.", updated.TrackingNumber, price, domain.Currency),
	)

	s.logger.Info("quote set",
		zap.String("request_id", requestID),
		zap.String("kind", kind),
		zap.Int("price", price),
		zap.String("set_by", session.UserID),
	)

	return updated, nil
}

// ============================================================
// SubmitReview — POST /v1/requests/{kind}/{id}/review
// ============================================================

// SubmitReview records the owner's rating once the request is completed.
// Re-submitting overwrites the previous rating.
func (s *RequestService) SubmitReview(ctx context.Context, session domain.Session, requestID, kind string, review *domain.ReviewRequest) (*domain.RequestCommon, error) {
	ctx, span := requestTracer.Start(ctx, "RequestService.SubmitReview")
	defer span.End()

	if review.Rating < 1 || review.Rating > 5 {
		return nil, &domain.ErrValidation{Field: "rating", Message: "la note doit être comprise entre 1 et 5"}
	}

	common, err := s.getCommon(ctx, requestID, kind)
	if err != nil {
		return nil, err
	}
	if common.UserID != session.UserID {
		return nil, &domain.ErrNotFound{Resource: "request", ID: requestID}
	}
	if common.Status != domain.StatusCompleted {
		return nil, &domain.ErrValidation{Field: "status", Message: "seules les demandes terminées peuvent être évaluées"}
	}

	updates := map[string]any{"client_rating": review.Rating}
	if review.Review != "" {
		updates["client_review"] = review.Review
	}
	updated, err := s.update(ctx, requestID, kind, updates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("review submitted",
		zap.String("request_id", requestID),
		zap.Int("rating", review.Rating),
	)

	return updated, nil
}

// ============================================================
// Internal helpers
// ============================================================

func (s *RequestService) getCommon(ctx context.Context, requestID, kind string) (*domain.RequestCommon, error) {
	switch kind {
	case domain.KindCompany:
		req, err := s.store.GetCompanyRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return req.Common(), nil
	case domain.KindService:
		req, err := s.store.GetServiceRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return req.Common(), nil
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "unknown request kind"}
	}
}

func (s *RequestService) update(ctx context.Context, requestID, kind string, updates map[string]any) (*domain.RequestCommon, error) {
	if kind == domain.KindService {
		req, err := s.store.UpdateServiceRequest(ctx, requestID, updates)
		if err != nil {
			return nil, err
		}
		return req.Common(), nil
	}
	req, err := s.store.UpdateCompanyRequest(ctx, requestID, updates)
	if err != nil {
		return nil, err
	}
	return req.Common(), nil
}

func (s *RequestService) notifyOwner(ctx context.Context, common *domain.RequestCommon, kind, title, body string) {
	_, err := s.admin.CreateNotification(ctx, &domain.Notification{
		UserID:      common.UserID,
		Title:       title,
		Body:        body,
		Type:        "request_update",
		RequestID:   common.ID,
		RequestKind: kind,
	})
	if err != nil {
		s.logger.Warn("failed to notify request owner",
			zap.String("request_id", common.ID),
			zap.String("user_id", common.UserID),
			zap.Error(err),
		)
	}
}
