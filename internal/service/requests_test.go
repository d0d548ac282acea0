package service

import (
	"context"
	"errors"
	"testing"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"

	"go.uber.org/zap"
)

var (
	adminSession  = domain.Session{UserID: "admin-1", Role: domain.RoleAdmin}
	clientSession = domain.Session{UserID: "user-1", Role: domain.RoleClient}
)

func seedCompany(store *fakeRequestStore, status string) *domain.CompanyRequest {
	req, _ := store.CreateCompanyRequest(context.Background(), &domain.CompanyRequest{
		RequestCommon: domain.RequestCommon{
			TrackingNumber: "LF-2026-000001",
			UserID:         "user-1",
			Phone:          "+2250701020304",
			Status:         status,
			PaymentStatus:  domain.PaymentPending,
		},
		StructureType: "sarl",
		CompanyName:   "Ivoire Négoce",
	})
	return req
}

func newRequestService(store *fakeRequestStore, admin *fakeAdminStore) *RequestService {
	return NewRequestService(store, admin, observability.NewMetrics(), zap.NewNop())
}

func TestGetCompany_OwnerAndAdmin(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusPending)

	if _, err := svc.GetCompany(context.Background(), clientSession, req.ID); err != nil {
		t.Errorf("owner should see their request: %v", err)
	}
	if _, err := svc.GetCompany(context.Background(), adminSession, req.ID); err != nil {
		t.Errorf("admin should see any request: %v", err)
	}
}

func TestGetCompany_StrangerGetsGenericNotFound(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusPending)

	stranger := domain.Session{UserID: "user-2", Role: domain.RoleClient}
	_, err := svc.GetCompany(context.Background(), stranger, req.ID)

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found (not forbidden) for a stranger, got %v", err)
	}
}

func TestUpdateStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{domain.StatusPendingQuote, domain.StatusPending, true},
		{domain.StatusPendingQuote, domain.StatusRejected, true},
		{domain.StatusPending, domain.StatusInProgress, true},
		{domain.StatusPending, domain.StatusRejected, true},
		{domain.StatusInProgress, domain.StatusCompleted, true},
		{domain.StatusInProgress, domain.StatusRejected, true},
		{domain.StatusPending, domain.StatusCompleted, false},
		{domain.StatusPendingQuote, domain.StatusInProgress, false},
		{domain.StatusCompleted, domain.StatusInProgress, false},
		{domain.StatusRejected, domain.StatusPending, false},
		{domain.StatusCompleted, domain.StatusRejected, false},
	}

	for _, tc := range cases {
		store := newFakeRequestStore()
		svc := newRequestService(store, &fakeAdminStore{})
		req := seedCompany(store, tc.from)

		_, err := svc.UpdateStatus(context.Background(), adminSession, req.ID, domain.KindCompany, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: expected success, got %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			var inv *domain.ErrInvalidTransition
			if !errors.As(err, &inv) {
				t.Errorf("%s -> %s: expected invalid transition, got %v", tc.from, tc.to, err)
			}
		}
	}
}

func TestUpdateStatus_RequiresAdmin(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusPending)

	_, err := svc.UpdateStatus(context.Background(), clientSession, req.ID, domain.KindCompany, domain.StatusInProgress)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden for a client session, got %v", err)
	}
}

func TestUpdateStatus_CompletedRecordsClosure(t *testing.T) {
	store := newFakeRequestStore()
	admin := &fakeAdminStore{}
	svc := newRequestService(store, admin)
	req := seedCompany(store, domain.StatusInProgress)

	updated, err := svc.UpdateStatus(context.Background(), adminSession, req.ID, domain.KindCompany, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ClosedAt == nil {
		t.Error("expected closed_at to be set on completion")
	}
	if updated.ClosedBy != "admin-1" {
		t.Errorf("expected closed_by admin-1, got %s", updated.ClosedBy)
	}
	if len(admin.notifications) != 1 {
		t.Fatalf("expected one owner notification, got %d", len(admin.notifications))
	}
	if admin.notifications[0].UserID != "user-1" {
		t.Errorf("notification addressed to %s, want user-1", admin.notifications[0].UserID)
	}
}

func TestUpdateStatus_NotificationFailureDoesNotFailTransition(t *testing.T) {
	store := newFakeRequestStore()
	admin := &fakeAdminStore{notifyErr: errors.New("notifications down")}
	svc := newRequestService(store, admin)
	req := seedCompany(store, domain.StatusPending)

	updated, err := svc.UpdateStatus(context.Background(), adminSession, req.ID, domain.KindCompany, domain.StatusInProgress)
	if err != nil {
		t.Fatalf("transition should survive a notification failure: %v", err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Errorf("expected in_progress, got %s", updated.Status)
	}
}

func TestSetQuote(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusPendingQuote)

	updated, err := svc.SetQuote(context.Background(), adminSession, req.ID, domain.KindCompany, 250000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.EstimatedPrice == nil || *updated.EstimatedPrice != 250000 {
		t.Errorf("expected price 250000, got %v", updated.EstimatedPrice)
	}
	if updated.Status != domain.StatusPending {
		t.Errorf("expected status pending after quoting, got %s", updated.Status)
	}
}

func TestSetQuote_PendingCompanyWithoutPrice(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	// Companies needing a manual quote enter as pending with a nil price.
	req := seedCompany(store, domain.StatusPending)

	updated, err := svc.SetQuote(context.Background(), adminSession, req.ID, domain.KindCompany, 300000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.EstimatedPrice == nil || *updated.EstimatedPrice != 300000 {
		t.Errorf("expected price 300000, got %v", updated.EstimatedPrice)
	}
	if updated.Status != domain.StatusPending {
		t.Errorf("expected the company request to stay pending, got %s", updated.Status)
	}
}

func TestSetQuote_InvalidStates(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})

	inProgress := seedCompany(store, domain.StatusInProgress)
	if _, err := svc.SetQuote(context.Background(), adminSession, inProgress.ID, domain.KindCompany, 250000); err == nil {
		t.Error("an in_progress request must not be quotable")
	} else {
		var inv *domain.ErrInvalidTransition
		if !errors.As(err, &inv) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	}

	// A pending company that already has a price is not re-quotable.
	priced := seedCompany(store, domain.StatusPending)
	if _, err := store.UpdateCompanyRequest(context.Background(), priced.ID, map[string]any{"estimated_price": 180000}); err != nil {
		t.Fatalf("seed price: %v", err)
	}
	_, err := svc.SetQuote(context.Background(), adminSession, priced.ID, domain.KindCompany, 250000)
	var inv *domain.ErrInvalidTransition
	if !errors.As(err, &inv) {
		t.Fatalf("expected invalid transition for a priced pending company, got %v", err)
	}
}

func TestSetQuote_RejectsNonPositivePrice(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusPendingQuote)

	for _, price := range []int{0, -100} {
		_, err := svc.SetQuote(context.Background(), adminSession, req.ID, domain.KindCompany, price)
		var verr *domain.ErrValidation
		if !errors.As(err, &verr) {
			t.Errorf("price %d: expected validation error, got %v", price, err)
		}
	}
}

func TestSubmitReview(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusCompleted)

	updated, err := svc.SubmitReview(context.Background(), clientSession, req.ID, domain.KindCompany, &domain.ReviewRequest{
		Rating: 5,
		Review: "Service impeccable",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ClientRating == nil || *updated.ClientRating != 5 {
		t.Errorf("expected rating 5, got %v", updated.ClientRating)
	}
	if updated.ClientReview != "Service impeccable" {
		t.Errorf("unexpected review text: %s", updated.ClientReview)
	}
}

func TestSubmitReview_OnlyWhenCompleted(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusInProgress)

	_, err := svc.SubmitReview(context.Background(), clientSession, req.ID, domain.KindCompany, &domain.ReviewRequest{Rating: 4})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for an open request, got %v", err)
	}
}

func TestSubmitReview_StrangerGetsGenericNotFound(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	req := seedCompany(store, domain.StatusCompleted)

	stranger := domain.Session{UserID: "user-2", Role: domain.RoleClient}
	_, err := svc.SubmitReview(context.Background(), stranger, req.ID, domain.KindCompany, &domain.ReviewRequest{Rating: 4})

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found for a stranger, got %v", err)
	}
}

func TestListMine(t *testing.T) {
	store := newFakeRequestStore()
	svc := newRequestService(store, &fakeAdminStore{})
	seedCompany(store, domain.StatusPending)
	store.CreateServiceRequest(context.Background(), &domain.ServiceRequest{
		RequestCommon: domain.RequestCommon{UserID: "user-1", Status: domain.StatusPendingQuote},
		ServiceType:   "verification",
	})
	store.CreateServiceRequest(context.Background(), &domain.ServiceRequest{
		RequestCommon: domain.RequestCommon{UserID: "user-2", Status: domain.StatusPendingQuote},
		ServiceType:   "transport",
	})

	companies, services, err := svc.ListMine(context.Background(), clientSession)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(companies) != 1 || len(services) != 1 {
		t.Errorf("expected 1 company and 1 service request, got %d and %d", len(companies), len(services))
	}
}
