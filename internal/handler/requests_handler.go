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
// Intake — le wizard de création
// ============================================================

func validateStepHandler(intakeSvc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/company/validate-step")
		defer span.End()

		var req struct {
			Step  int                 `json:"step" validate:"required,min=1,max=6"`
			Draft domain.CompanyDraft `json:"draft"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := intakeSvc.ValidateStep(ctx, req.Step, &req.Draft); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	}
}

func quoteHandler(intakeSvc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/company/quote")
		defer span.End()

		var req struct {
			Draft domain.CompanyDraft `json:"draft"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		price, err := intakeSvc.Quote(ctx, &req.Draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"estimatedPrice": price,
			"quoteRequired":  price == nil,
			"currency":       domain.Currency,
		})
	}
}

func submitCompanyHandler(intakeSvc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/company")
		defer span.End()

		session := SessionFromContext(ctx)

		var req domain.SubmitCompanyRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := intakeSvc.SubmitCompany(ctx, session.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func submitServiceHandler(intakeSvc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/service")
		defer span.End()

		session := SessionFromContext(ctx)

		var req domain.SubmitServiceRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := intakeSvc.SubmitService(ctx, session.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

// ============================================================
// Consultation des demandes
// ============================================================

func getRequestHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/{kind}/{requestId}")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}
		requestID := chi.URLParam(r, "requestId")
		span.SetAttributes(attribute.String("request.id", requestID))

		session := SessionFromContext(ctx)

		if kind == domain.KindService {
			req, err := reqSvc.GetService(ctx, session, requestID)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, req)
			return
		}

		req, err := reqSvc.GetCompany(ctx, session, requestID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func listAssociatesHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/company/{requestId}/associates")
		defer span.End()

		session := SessionFromContext(ctx)
		associates, err := reqSvc.ListAssociates(ctx, session, chi.URLParam(r, "requestId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"associates": associates})
	}
}

func listMyRequestsHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/mine")
		defer span.End()

		session := SessionFromContext(ctx)
		companies, services, err := reqSvc.ListMine(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"company": companies,
			"service": services,
		})
	}
}

func listCompanyRequestsHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/requests/company")
		defer span.End()

		page, pageSize := parsePagination(r)
		requests, err := reqSvc.ListCompany(ctx, filterFromQuery(r), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
	}
}

func listServiceRequestsHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/requests/service")
		defer span.End()

		page, pageSize := parsePagination(r)
		requests, err := reqSvc.ListService(ctx, filterFromQuery(r), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
	}
}

func filterFromQuery(r *http.Request) domain.RequestFilter {
	q := r.URL.Query()
	return domain.RequestFilter{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Search:        q.Get("search"),
	}
}

// ============================================================
// Cycle de vie (admin)
// ============================================================

func updateStatusHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/requests/{kind}/{requestId}/status")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		var req domain.UpdateStatusRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		updated, err := reqSvc.UpdateStatus(ctx, session, chi.URLParam(r, "requestId"), kind, req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func setQuoteHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/requests/{kind}/{requestId}/quote")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		var req domain.SetQuoteRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		updated, err := reqSvc.SetQuote(ctx, session, chi.URLParam(r, "requestId"), kind, req.Price)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

// ============================================================
// Évaluation client
// ============================================================

func submitReviewHandler(reqSvc *service.RequestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/{kind}/{requestId}/review")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		var req domain.ReviewRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		updated, err := reqSvc.SubmitReview(ctx, session, chi.URLParam(r, "requestId"), kind, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}
