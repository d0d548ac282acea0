package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var paymentTracer = otel.Tracer("service/payments")

var errNoGateway = errors.New("payment gateway not configured")

// PaymentService opens gateway checkouts for priced requests and applies
// the gateway's verdicts back onto them.
type PaymentService struct {
	store    port.PaymentStore
	requests port.RequestStore
	gateway  port.PaymentGateway
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store port.PaymentStore, requests port.RequestStore, gateway port.PaymentGateway, metrics *observability.Metrics, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		requests: requests,
		gateway:  gateway,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// InitiateCheckout — POST /v1/requests/{kind}/{id}/pay
// ============================================================

// InitiateCheckout opens a hosted checkout for a request's estimated
// price. The attempt row is created before the gateway call so a crash in
// between leaves a visible pending attempt rather than a silent gap.
func (s *PaymentService) InitiateCheckout(ctx context.Context, requestID, kind, userID string) (*domain.Checkout, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.InitiateCheckout")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.kind", kind),
	)

	common, err := s.requestCommon(ctx, requestID, kind)
	if err != nil {
		return nil, err
	}
	if userID != "" && common.UserID != userID {
		return nil, &domain.ErrForbidden{Action: "pay someone else's request"}
	}
	if common.PaymentStatus == domain.PaymentPaid {
		return nil, &domain.ErrConflict{Message: "cette demande est déjà payée"}
	}
	if common.EstimatedPrice == nil {
		return nil, &domain.ErrValidation{Field: "estimated_price", Message: "un devis est requis avant le paiement"}
	}
	amount := *common.EstimatedPrice

	attempt, err := s.store.CreatePaymentAttempt(ctx, &domain.PaymentAttempt{
		RequestID:   requestID,
		RequestKind: kind,
		UserID:      common.UserID,
		Amount:      amount,
		Currency:    domain.Currency,
		Status:      domain.PaymentPending,
	})
	if err != nil {
		return nil, err
	}

	checkout, err := s.gateway.Initiate(ctx, &domain.CheckoutRequest{
		Amount:        amount,
		Currency:      domain.Currency,
		Description:   checkoutDescription(kind, common.TrackingNumber),
		RequestID:     requestID,
		CustomerName:  common.ContactName,
		CustomerEmail: common.Email,
		CustomerPhone: common.Phone,
	})
	if err != nil {
		s.metrics.IncrGatewayCheckout("error")
		s.metrics.IncrExternalError("payment-gateway")
		// Mark the attempt failed so the pending row does not linger.
		if _, uErr := s.store.UpdatePaymentAttempt(ctx, attempt.ID, map[string]any{
			"status": domain.PaymentFailed,
		}); uErr != nil {
			s.logger.Warn("failed to mark payment attempt as failed",
				zap.String("attempt_id", attempt.ID),
				zap.Error(uErr),
			)
		}
		return nil, err
	}

	if _, err := s.store.UpdatePaymentAttempt(ctx, attempt.ID, map[string]any{
		"transaction_id": checkout.TransactionID,
	}); err != nil {
		// The gateway already holds the transaction; losing the link is
		// recoverable by support, so log instead of failing the checkout.
		s.logger.Error("failed to link transaction to payment attempt",
			zap.String("attempt_id", attempt.ID),
			zap.String("transaction_id", checkout.TransactionID),
			zap.Error(err),
		)
	}

	s.metrics.IncrGatewayCheckout("ok")
	s.logger.Info("checkout initiated",
		zap.String("request_id", requestID),
		zap.String("transaction_id", checkout.TransactionID),
		zap.Int("amount", amount),
	)

	return checkout, nil
}

// ============================================================
// Confirm — POST /v1/payments/confirm
// ============================================================

// Confirm resolves a payment attempt. The callback route is public and
// InitiateCheckout hands the transaction id to the client, so the posted
// status is never trusted: the verdict comes from the provider itself.
// The latest paid attempt is authoritative; a request flips to paid once
// and stays paid.
func (s *PaymentService) Confirm(ctx context.Context, conf *domain.PaymentConfirmation) (*domain.PaymentAttempt, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", conf.TransactionID))

	attempt, err := s.store.GetPaymentAttemptByTransaction(ctx, conf.TransactionID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == domain.PaymentPaid {
		// Gateways retry callbacks; a second paid confirmation is a no-op.
		return attempt, nil
	}

	if s.gateway == nil {
		return nil, &domain.ErrExternalService{Service: "payment-gateway", Err: errNoGateway}
	}
	verdict, err := s.gateway.VerifyTransaction(ctx, conf.TransactionID)
	if err != nil {
		s.metrics.IncrExternalError("payment-gateway")
		return nil, err
	}
	if conf.Status != "" && conf.Status != verdict {
		s.logger.Warn("callback status disagrees with gateway",
			zap.String("transaction_id", conf.TransactionID),
			zap.String("callback_status", conf.Status),
			zap.String("gateway_status", verdict),
		)
	}
	if verdict == domain.PaymentPending {
		// Not settled on the provider side yet; nothing to apply.
		return attempt, nil
	}

	updates := map[string]any{"status": verdict}
	if verdict == domain.PaymentPaid {
		updates["paid_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	updated, err := s.store.UpdatePaymentAttempt(ctx, attempt.ID, updates)
	if err != nil {
		return nil, err
	}

	// Attempt and request are two rows in two tables; the attempt is
	// already final, so a failed request update is logged and the verdict
	// stands.
	if verdict == domain.PaymentPaid {
		if err := s.markRequestPaid(ctx, attempt.RequestID, attempt.RequestKind); err != nil {
			s.logger.Error("payment confirmed but request update failed",
				zap.String("request_id", attempt.RequestID),
				zap.String("transaction_id", conf.TransactionID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("payment confirmed",
		zap.String("transaction_id", conf.TransactionID),
		zap.String("status", verdict),
		zap.String("request_id", attempt.RequestID),
	)

	return updated, nil
}

// ============================================================
// ListAttempts — GET /v1/requests/{kind}/{id}/payments
// ============================================================

// ListAttempts returns the payment history of a request, newest first.
// Admins see every request; a client only their own.
func (s *PaymentService) ListAttempts(ctx context.Context, session domain.Session, requestID, kind string) ([]domain.PaymentAttempt, error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.ListAttempts")
	defer span.End()

	if !session.IsAdmin() {
		common, err := s.requestCommon(ctx, requestID, kind)
		if err != nil {
			return nil, err
		}
		if common.UserID != session.UserID {
			return nil, &domain.ErrForbidden{Action: "list payments of someone else's request"}
		}
	}
	return s.store.ListPaymentAttempts(ctx, requestID, kind)
}

// ============================================================
// Internal helpers
// ============================================================

func (s *PaymentService) requestCommon(ctx context.Context, requestID, kind string) (*domain.RequestCommon, error) {
	switch kind {
	case domain.KindCompany:
		req, err := s.requests.GetCompanyRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return req.Common(), nil
	case domain.KindService:
		req, err := s.requests.GetServiceRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return req.Common(), nil
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "unknown request kind"}
	}
}

func (s *PaymentService) markRequestPaid(ctx context.Context, requestID, kind string) error {
	updates := map[string]any{"payment_status": domain.PaymentPaid}
	var err error
	if kind == domain.KindService {
		_, err = s.requests.UpdateServiceRequest(ctx, requestID, updates)
	} else {
		_, err = s.requests.UpdateCompanyRequest(ctx, requestID, updates)
	}
	return err
}

func checkoutDescription(kind, trackingNumber string) string {
	label := "Création d'entreprise"
	if kind == domain.KindService {
		label = "Prestation administrative"
	}
	return fmt.Sprintf("%s — %s", label, trackingNumber)
}
