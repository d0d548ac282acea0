// Package service provides the business logic layer (use cases):
// intake wizard, request lifecycle, document exchange, payments,
// authentication and the admin console.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.AuthStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "Un compte existe déjà avec cet email"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    domain.NormalizePhone(req.Phone),
		Role:     domain.RoleClient,
	}
	created, err := s.store.CreateUser(ctx, user, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", created.ID),
		zap.String("role", created.Role),
	)

	return &domain.RegisterResponse{
		UserID:  created.ID,
		Message: "Compte créé avec succès",
	}, nil
}

// ============================================================
// BootstrapAdmin — POST /v1/admin/bootstrap
// ============================================================

// BootstrapAdmin creates the very first admin account. It only works
// while no active admin exists; afterwards the endpoint always conflicts.
func (s *AuthService) BootstrapAdmin(ctx context.Context, req *domain.BootstrapAdminRequest) (*domain.RegisterResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.BootstrapAdmin")
	defer span.End()

	count, err := s.store.CountAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		s.logger.Warn("bootstrap attempted with existing admin")
		return nil, &domain.ErrConflict{Message: "Un administrateur existe déjà"}
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "Un compte existe déjà avec cet email"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    domain.NormalizePhone(req.Phone),
		Role:     domain.RoleAdmin,
	}
	created, err := s.store.CreateUser(ctx, user, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("admin bootstrapped", zap.String("user_id", created.ID))

	return &domain.RegisterResponse{
		UserID:  created.ID,
		Message: "Administrateur créé avec succès",
	}, nil
}
