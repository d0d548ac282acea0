package handler

import (
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Tableau de bord
// ============================================================

func dashboardStatsHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/dashboard/stats")
		defer span.End()

		stats, err := adminSvc.GetDashboardStats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

// ============================================================
// Tickets de suivi interne
// ============================================================

func upsertTicketHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/requests/{kind}/{requestId}/ticket")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		var req domain.UpsertTicketRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		ticket, err := adminSvc.UpsertTicket(ctx, session, chi.URLParam(r, "requestId"), kind, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, ticket)
	}
}

func getTicketHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/requests/{kind}/{requestId}/ticket")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		ticket, err := adminSvc.GetTicket(ctx, chi.URLParam(r, "requestId"), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, ticket)
	}
}

// ============================================================
// Notifications
// ============================================================

func listNotificationsHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/notifications")
		defer span.End()

		session := SessionFromContext(ctx)
		page, pageSize := parsePagination(r)
		unreadOnly := r.URL.Query().Get("unread") == "true"

		notifs, err := adminSvc.ListNotifications(ctx, session, unreadOnly, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
	}
}

func markNotificationReadHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/notifications/{notifId}/read")
		defer span.End()

		if err := adminSvc.MarkNotificationRead(ctx, chi.URLParam(r, "notifId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Équipe interne
// ============================================================

func listTeamHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/team")
		defer span.End()

		team, err := adminSvc.ListTeam(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"team": team})
	}
}

func createTeamMemberHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/team")
		defer span.End()

		var req domain.CreateInternalUserRequest
		if !decodeBody(w, r, &req) {
			return
		}

		member, err := adminSvc.CreateTeamMember(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, member)
	}
}

func updateTeamMemberHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/team/{memberId}")
		defer span.End()

		var req struct {
			Role     *string `json:"role,omitempty"`
			IsActive *bool   `json:"isActive,omitempty"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		updates := map[string]any{}
		if req.Role != nil {
			updates["role"] = *req.Role
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if len(updates) == 0 {
			writeError(w, http.StatusBadRequest, "no fields to update")
			return
		}

		member, err := adminSvc.UpdateTeamMember(ctx, chi.URLParam(r, "memberId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, member)
	}
}

// ============================================================
// Paramètres du site
// ============================================================

func getSettingHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/settings/{key}")
		defer span.End()

		setting, err := adminSvc.GetSetting(ctx, chi.URLParam(r, "key"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, setting)
	}
}

func upsertSettingHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/settings/{key}")
		defer span.End()

		var req domain.UpdateSettingRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		setting, err := adminSvc.UpsertSetting(ctx, session, chi.URLParam(r, "key"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, setting)
	}
}
