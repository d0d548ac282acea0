package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var adminTracer = otel.Tracer("service/admin")

const dashboardCacheKey = "dashboard_stats"

// AdminService backs the back-office console: dashboard aggregates,
// triage tickets, notifications, staff accounts and site settings.
type AdminService struct {
	store      port.AdminStore
	auth       port.AuthStore
	statsCache port.Cache[*domain.DashboardStats]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAdminService creates a new admin service. statsCache shields the
// dashboard aggregates from hammering the database on every refresh.
func NewAdminService(store port.AdminStore, auth port.AuthStore, statsCache port.Cache[*domain.DashboardStats], metrics *observability.Metrics, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:      store,
		auth:       auth,
		statsCache: statsCache,
		metrics:    metrics,
		logger:     logger,
	}
}

// ============================================================
// Dashboard — GET /v1/admin/dashboard/stats
// ============================================================

// GetDashboardStats assembles the dashboard aggregates, fanning the four
// independent queries out concurrently. Results are cached briefly.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.GetDashboardStats")
	defer span.End()

	if cached, ok := s.statsCache.Get(dashboardCacheKey); ok {
		s.metrics.IncrCacheHit("dashboard_stats")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard_stats")

	stats := &domain.DashboardStats{GeneratedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, err := s.store.CountRequestsByStatus(gctx, domain.KindCompany)
		if err != nil {
			return err
		}
		stats.CompanyByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.store.CountRequestsByStatus(gctx, domain.KindService)
		if err != nil {
			return err
		}
		stats.ServiceByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		revenue, err := s.store.SumPaidAmounts(gctx)
		if err != nil {
			return err
		}
		stats.PaidRevenue = revenue
		return nil
	})
	g.Go(func() error {
		open, err := s.store.CountOpenTickets(gctx)
		if err != nil {
			return err
		}
		stats.OpenTickets = open
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, n := range stats.CompanyByStatus {
		stats.TotalRequests += n
	}
	for _, n := range stats.ServiceByStatus {
		stats.TotalRequests += n
	}
	stats.PendingQuotes = stats.CompanyByStatus[domain.StatusPendingQuote] +
		stats.ServiceByStatus[domain.StatusPendingQuote]

	s.statsCache.Set(dashboardCacheKey, stats)
	return stats, nil
}

// ============================================================
// Tickets — PUT /v1/admin/requests/{kind}/{id}/ticket
// ============================================================

// UpsertTicket creates or updates the triage ticket of a request. Closing
// records who closed it.
func (s *AdminService) UpsertTicket(ctx context.Context, session domain.Session, requestID, kind string, req *domain.UpsertTicketRequest) (*domain.Ticket, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UpsertTicket")
	defer span.End()

	ticket := &domain.Ticket{
		RequestID:     requestID,
		RequestKind:   kind,
		AssignedTo:    req.AssignedTo,
		Priority:      req.Priority,
		InternalNotes: req.InternalNotes,
		Status:        "open",
	}
	if req.Close {
		ticket.Status = "closed"
		ticket.ClosedBy = session.UserID
	}
	return s.store.UpsertTicket(ctx, ticket)
}

// GetTicket returns the triage ticket attached to a request, if any.
func (s *AdminService) GetTicket(ctx context.Context, requestID, kind string) (*domain.Ticket, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.GetTicket")
	defer span.End()
	return s.store.GetTicket(ctx, requestID, kind)
}

// ============================================================
// Notifications
// ============================================================

// ListNotifications returns a user's notifications, newest first.
func (s *AdminService) ListNotifications(ctx context.Context, session domain.Session, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ListNotifications")
	defer span.End()
	return s.store.ListNotifications(ctx, session.UserID, unreadOnly, page, pageSize)
}

// MarkNotificationRead flips one notification to read.
func (s *AdminService) MarkNotificationRead(ctx context.Context, notifID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.MarkNotificationRead")
	defer span.End()
	return s.store.MarkNotificationRead(ctx, notifID)
}

// ============================================================
// Staff — /v1/admin/team
// ============================================================

// ListTeam returns every internal staff member.
func (s *AdminService) ListTeam(ctx context.Context) ([]domain.InternalUser, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ListTeam")
	defer span.End()
	return s.store.ListInternalUsers(ctx)
}

// CreateTeamMember creates a staff account: an admin user with a random
// initial password plus the internal_users categorization row. The
// password arrives to the member out of band; they reset it on first
// login.
func (s *AdminService) CreateTeamMember(ctx context.Context, req *domain.CreateInternalUserRequest) (*domain.InternalUser, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.CreateTeamMember")
	defer span.End()

	if !domain.IsValidInternalRole(req.Role) {
		return nil, &domain.ErrValidation{Field: "role", Message: "rôle interne inconnu"}
	}
	if existing, err := s.auth.GetUserByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &domain.ErrConflict{Message: "un compte existe déjà avec cet email"}
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.auth.CreateUser(ctx, &domain.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     domain.RoleAdmin,
	}, string(hash))
	if err != nil {
		return nil, err
	}

	member, err := s.store.CreateInternalUser(ctx, &domain.InternalUser{
		UserID:   user.ID,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: true,
	})
	if err != nil {
		// User row exists but the staff row does not; support re-links by
		// hand, same recovery path as a half-finished registration.
		s.logger.Error("staff row insert failed after user creation",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("team member created",
		zap.String("user_id", user.ID),
		zap.String("role", req.Role),
	)
	return member, nil
}

// UpdateTeamMember patches a staff row (role, activity flag).
func (s *AdminService) UpdateTeamMember(ctx context.Context, id string, updates map[string]any) (*domain.InternalUser, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UpdateTeamMember")
	defer span.End()

	if role, ok := updates["role"].(string); ok && !domain.IsValidInternalRole(role) {
		return nil, &domain.ErrValidation{Field: "role", Message: "rôle interne inconnu"}
	}
	return s.store.UpdateInternalUser(ctx, id, updates)
}

// ============================================================
// Settings — /v1/admin/settings/{key}
// ============================================================

// GetSetting returns one settings row by key.
func (s *AdminService) GetSetting(ctx context.Context, key string) (*domain.SiteSetting, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.GetSetting")
	defer span.End()
	return s.store.GetSetting(ctx, key)
}

// UpsertSetting writes one settings row and records who changed it.
func (s *AdminService) UpsertSetting(ctx context.Context, session domain.Session, key string, req *domain.UpdateSettingRequest) (*domain.SiteSetting, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UpsertSetting")
	defer span.End()

	return s.store.UpsertSetting(ctx, &domain.SiteSetting{
		Key:       key,
		Value:     req.Value,
		Category:  req.Category,
		UpdatedBy: session.UserID,
	})
}
