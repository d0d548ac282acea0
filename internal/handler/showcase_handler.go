package handler

import (
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Vitrine publique & contact
// ============================================================

func listShowcaseCompaniesHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/showcase/companies")
		defer span.End()

		companies, err := showSvc.ListCompanies(ctx, true)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
	}
}

func listTestimonialsHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/showcase/testimonials")
		defer span.End()

		testimonials, err := showSvc.ListTestimonials(ctx, true)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"testimonials": testimonials})
	}
}

func submitContactHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contact")
		defer span.End()

		var req domain.SubmitContactRequest
		if !decodeBody(w, r, &req) {
			return
		}

		msg, err := showSvc.SubmitContact(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, domain.SuccessResponse{
			Message: "Message envoyé, nous vous répondrons rapidement",
			ID:      msg.ID,
		})
	}
}

func listContactMessagesHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/contact-messages")
		defer span.End()

		unhandledOnly := r.URL.Query().Get("unhandled") == "true"
		msgs, err := showSvc.ListContactMessages(ctx, unhandledOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	}
}

func createShowcaseCompanyHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/showcase/companies")
		defer span.End()

		var company domain.CreatedCompany
		if !decodeBody(w, r, &company) {
			return
		}

		created, err := showSvc.CreateCompany(ctx, &company)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func createTestimonialHandler(showSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/showcase/testimonials")
		defer span.End()

		var testimonial domain.Testimonial
		if !decodeBody(w, r, &testimonial) {
			return
		}

		created, err := showSvc.CreateTestimonial(ctx, &testimonial)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}
