package service

import (
	"context"
	"fmt"

	"github.com/legalform-ci/legalform-api/internal/domain"
)

// ============================================================
// GetMe — GET /v1/me
// ============================================================

func (s *AuthService) GetMe(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.GetMe")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return user, nil
}

// ============================================================
// UpdateProfile — PUT /v1/me/profile
// ============================================================

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.UpdateProfile")
	defer span.End()

	updates := map[string]any{}
	if req.FullName != "" {
		updates["full_name"] = req.FullName
	}
	if req.Phone != "" {
		updates["phone"] = domain.NormalizePhone(req.Phone)
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "aucun champ à mettre à jour"}
	}

	profile, err := s.store.UpdateProfile(ctx, userID, updates)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
