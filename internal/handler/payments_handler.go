package handler

import (
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Paiements
// ============================================================

func initiateCheckoutHandler(paySvc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/{kind}/{requestId}/pay")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}
		requestID := chi.URLParam(r, "requestId")
		span.SetAttributes(attribute.String("request.id", requestID))

		session := SessionFromContext(ctx)
		checkout, err := paySvc.InitiateCheckout(ctx, requestID, kind, session.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, checkout)
	}
}

// paymentConfirmHandler is called by the gateway's callback (or the
// return page), so it lives outside the authenticated group.
func paymentConfirmHandler(paySvc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/confirm")
		defer span.End()

		var req domain.PaymentConfirmation
		if !decodeBody(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.String("transaction.id", req.TransactionID))

		attempt, err := paySvc.Confirm(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, attempt)
	}
}

func listPaymentsHandler(paySvc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/{kind}/{requestId}/payments")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		session := SessionFromContext(ctx)
		attempts, err := paySvc.ListAttempts(ctx, session, chi.URLParam(r, "requestId"), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"payments": attempts})
	}
}
