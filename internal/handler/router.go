package handler

import (
	"net/http"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/service"
	trackinghandler "github.com/legalform-ci/legalform-api/internal/tracking/handler"
	trackingservice "github.com/legalform-ci/legalform-api/internal/tracking/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles every service the router dispatches to.
type Services struct {
	Auth     *service.AuthService
	Intake   *service.IntakeService
	Requests *service.RequestService
	Exchange *service.ExchangeService
	Payments *service.PaymentService
	Admin    *service.AdminService
	Showcase *service.ShowcaseService
	Tracking *trackingservice.TrackingService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Showcase, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Public — suivi de dossier, vitrine, paiements
		// =============================================
		r.Post("/tracking/lookup", trackinghandler.LookupHandler(svcs.Tracking, logger))
		r.Get("/showcase/companies", listShowcaseCompaniesHandler(svcs.Showcase, logger))
		r.Get("/showcase/testimonials", listTestimonialsHandler(svcs.Showcase, logger))
		r.Post("/contact", submitContactHandler(svcs.Showcase, logger))
		r.Post("/payments/confirm", paymentConfirmHandler(svcs.Payments, logger))

		// Wizard pricing runs server-side only; both routes work without
		// a session so the quote shows before signup.
		r.Post("/requests/company/validate-step", validateStepHandler(svcs.Intake, logger))
		r.Post("/requests/company/quote", quoteHandler(svcs.Intake, logger))

		// =============================================
		// Authentification
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))
			r.Post("/password/reset-request", authPasswordResetRequestHandler(svcs.Auth, logger))
			r.Post("/password/reset-confirm", authPasswordResetConfirmHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, logger))
				r.Put("/password", authChangePasswordHandler(svcs.Auth, logger))
			})
		})

		// First-run setup, open only while no admin exists.
		r.Post("/admin/bootstrap", adminBootstrapHandler(svcs.Auth, logger))

		// =============================================
		// Client (authenticated)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Get("/me", getMeHandler(svcs.Auth, logger))
			r.Put("/profile", updateProfileHandler(svcs.Auth, logger))

			r.Post("/requests/company", submitCompanyHandler(svcs.Intake, logger))
			r.Post("/requests/service", submitServiceHandler(svcs.Intake, logger))
			r.Get("/requests/mine", listMyRequestsHandler(svcs.Requests, logger))
			r.Get("/requests/{kind}/{requestId}", getRequestHandler(svcs.Requests, logger))
			r.Get("/requests/company/{requestId}/associates", listAssociatesHandler(svcs.Requests, logger))
			r.Post("/requests/{kind}/{requestId}/review", submitReviewHandler(svcs.Requests, logger))

			r.Post("/requests/{kind}/{requestId}/documents", uploadDocumentHandler(svcs.Exchange, logger))
			r.Get("/requests/{kind}/{requestId}/documents", listDocumentsHandler(svcs.Exchange, logger))
			r.Get("/documents/{documentId}/url", documentURLHandler(svcs.Exchange, logger))
			r.Post("/requests/{kind}/{requestId}/messages", sendMessageHandler(svcs.Exchange, logger))
			r.Get("/requests/{kind}/{requestId}/messages", listMessagesHandler(svcs.Exchange, logger))

			r.Post("/requests/{kind}/{requestId}/pay", initiateCheckoutHandler(svcs.Payments, logger))
			r.Get("/requests/{kind}/{requestId}/payments", listPaymentsHandler(svcs.Payments, logger))

			r.Get("/notifications", listNotificationsHandler(svcs.Admin, logger))
			r.Post("/notifications/{notifId}/read", markNotificationReadHandler(svcs.Admin, logger))
		})

		// =============================================
		// Back office (admin only)
		// =============================================
		r.Route("/admin", func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))
			r.Use(RequireAdmin(logger))

			r.Get("/dashboard/stats", dashboardStatsHandler(svcs.Admin, logger))

			r.Get("/requests/company", listCompanyRequestsHandler(svcs.Requests, logger))
			r.Get("/requests/service", listServiceRequestsHandler(svcs.Requests, logger))
			r.Patch("/requests/{kind}/{requestId}/status", updateStatusHandler(svcs.Requests, logger))
			r.Patch("/requests/{kind}/{requestId}/quote", setQuoteHandler(svcs.Requests, logger))

			r.Put("/requests/{kind}/{requestId}/ticket", upsertTicketHandler(svcs.Admin, logger))
			r.Get("/requests/{kind}/{requestId}/ticket", getTicketHandler(svcs.Admin, logger))

			r.Get("/team", listTeamHandler(svcs.Admin, logger))
			r.Post("/team", createTeamMemberHandler(svcs.Admin, logger))
			r.Patch("/team/{memberId}", updateTeamMemberHandler(svcs.Admin, logger))

			r.Get("/settings/{key}", getSettingHandler(svcs.Admin, logger))
			r.Put("/settings/{key}", upsertSettingHandler(svcs.Admin, logger))

			r.Get("/contact-messages", listContactMessagesHandler(svcs.Showcase, logger))
			r.Post("/showcase/companies", createShowcaseCompanyHandler(svcs.Showcase, logger))
			r.Post("/showcase/testimonials", createTestimonialHandler(svcs.Showcase, logger))
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "legalform-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if showcaseSvc != nil {
			// publishedOnly=false bypasses the showcase cache so the
			// probe really reaches the store.
			start := time.Now()
			_, err := showcaseSvc.ListTestimonials(ctx, false)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
