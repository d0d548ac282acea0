package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakeAuthStore is an in-memory AuthStore for auth flow tests.
type fakeAuthStore struct {
	users       map[string]*domain.User // by ID
	credentials map[string]*domain.AuthCredential
	refresh     map[string]*domain.AuthRefreshToken // by token hash
	resetCodes  map[string]*domain.AuthPasswordResetCode
	profiles    map[string]*domain.Profile
	nextID      int
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		users:       make(map[string]*domain.User),
		credentials: make(map[string]*domain.AuthCredential),
		refresh:     make(map[string]*domain.AuthRefreshToken),
		resetCodes:  make(map[string]*domain.AuthPasswordResetCode),
		profiles:    make(map[string]*domain.Profile),
	}
}

func (f *fakeAuthStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAuthStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthStore) CountAdmins(_ context.Context) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.Role == domain.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (f *fakeAuthStore) CreateUser(_ context.Context, u *domain.User, passwordHash string) (*domain.User, error) {
	f.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", f.nextID)
	cp.IsActive = true
	f.users[cp.ID] = &cp
	f.credentials[cp.ID] = &domain.AuthCredential{
		ID:           fmt.Sprintf("cred-%d", f.nextID),
		UserID:       cp.ID,
		PasswordHash: passwordHash,
	}
	return &cp, nil
}

func (f *fakeAuthStore) GetCredentials(_ context.Context, userID string) (*domain.AuthCredential, error) {
	c, ok := f.credentials[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeAuthStore) UpdateCredentials(_ context.Context, userID string, updates map[string]any) error {
	c, ok := f.credentials[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	if v, ok := updates["failed_attempts"].(int); ok {
		c.FailedAttempts = v
	}
	if v, ok := updates["locked_until"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			c.LockedUntil = &ts
		}
	} else if _, present := updates["locked_until"]; present {
		c.LockedUntil = nil
	}
	if v, ok := updates["password_hash"].(string); ok {
		c.PasswordHash = v
	}
	return nil
}

func (f *fakeAuthStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.refresh[tokenHash] = &domain.AuthRefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	t, ok := f.refresh[tokenHash]
	if !ok || t.Revoked {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if t, ok := f.refresh[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (f *fakeAuthStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	for _, t := range f.refresh {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthStore) StoreResetCode(_ context.Context, userID, code string, expiresAt time.Time) error {
	f.resetCodes[userID] = &domain.AuthPasswordResetCode{
		ID:        "code-" + userID,
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeAuthStore) GetValidResetCode(_ context.Context, userID, code string) (*domain.AuthPasswordResetCode, error) {
	c, ok := f.resetCodes[userID]
	if !ok || c.Used || c.Code != code || c.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeAuthStore) MarkResetCodeUsed(_ context.Context, codeID string) error {
	for _, c := range f.resetCodes {
		if c.ID == codeID {
			c.Used = true
		}
	}
	return nil
}

func (f *fakeAuthStore) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAuthStore) UpdateProfile(_ context.Context, userID string, updates map[string]any) (*domain.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		p = &domain.Profile{ID: userID}
		f.profiles[userID] = p
	}
	if v, ok := updates["full_name"].(string); ok {
		p.FullName = v
	}
	if v, ok := updates["phone"].(string); ok {
		p.Phone = v
	}
	cp := *p
	return &cp, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeAuthStore) {
	t.Helper()
	store := newFakeAuthStore()
	svc := NewAuthService(store, "test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
	return svc, store
}

func registerClient(t *testing.T, svc *AuthService) string {
	t.Helper()
	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
		FullName: "Aya Kouassi",
		Phone:    "+2250701020304",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp.UserID
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	userID := registerClient(t, svc)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, resp.UserID)
	}
	if resp.Role != domain.RoleClient {
		t.Errorf("expected client role, got %s", resp.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens")
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.Sub != userID || claims.Role != domain.RoleClient {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerClient(t, svc)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "aya@example.ci",
		Password: "autremotdepasse",
		FullName: "Aya K.",
	})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin_WrongPasswordCountsAttempts(t *testing.T) {
	svc, store := newAuthFixture(t)
	userID := registerClient(t, svc)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "mauvais",
	})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	cred, _ := store.GetCredentials(context.Background(), userID)
	if cred.FailedAttempts != 1 {
		t.Errorf("expected 1 failed attempt, got %d", cred.FailedAttempts)
	}
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	svc, store := newAuthFixture(t)
	userID := registerClient(t, svc)

	for i := 0; i < maxFailedAttempts; i++ {
		svc.Login(context.Background(), &domain.LoginRequest{
			Email:    "aya@example.ci",
			Password: "mauvais",
		})
	}

	cred, _ := store.GetCredentials(context.Background(), userID)
	if cred.LockedUntil == nil || !cred.LockedUntil.After(time.Now()) {
		t.Fatal("expected the account locked after max failed attempts")
	}

	// Even the right password is rejected while locked.
	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized while locked, got %v", err)
	}
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	svc, store := newAuthFixture(t)
	userID := registerClient(t, svc)

	svc.Login(context.Background(), &domain.LoginRequest{Email: "aya@example.ci", Password: "mauvais"})
	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	}); err != nil {
		t.Fatalf("login: %v", err)
	}

	cred, _ := store.GetCredentials(context.Background(), userID)
	if cred.FailedAttempts != 0 {
		t.Errorf("expected the counter reset, got %d", cred.FailedAttempts)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, store := newAuthFixture(t)
	userID := registerClient(t, svc)
	store.users[userID].IsActive = false

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized for an inactive account, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerClient(t, svc)

	login, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("expected a rotated refresh token")
	}

	// The consumed token is revoked.
	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized on token reuse, got %v", err)
	}
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerClient(t, svc)

	login, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "aya@example.ci",
		Password: "motdepasse123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), login.UserID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestValidateAccessToken_RejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, err := svc.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}

func TestBootstrapAdmin_OnlyOnce(t *testing.T) {
	svc, _ := newAuthFixture(t)

	first, err := svc.BootstrapAdmin(context.Background(), &domain.BootstrapAdminRequest{
		Email:    "admin@example.ci",
		Password: "motdepasse123",
		FullName: "Admin",
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if first.UserID == "" {
		t.Error("expected a created admin")
	}

	_, err = svc.BootstrapAdmin(context.Background(), &domain.BootstrapAdminRequest{
		Email:    "autre@example.ci",
		Password: "motdepasse123",
		FullName: "Autre",
	})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict once an admin exists, got %v", err)
	}
}

func TestPasswordHashCost(t *testing.T) {
	svc, store := newAuthFixture(t)
	userID := registerClient(t, svc)

	cred, _ := store.GetCredentials(context.Background(), userID)
	cost, err := bcrypt.Cost([]byte(cred.PasswordHash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcryptCost {
		t.Errorf("expected bcrypt cost %d, got %d", bcryptCost, cost)
	}
}
