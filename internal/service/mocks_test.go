package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
)

// fakeRequestStore is an in-memory RequestStore for service tests.
type fakeRequestStore struct {
	mu         sync.Mutex
	companies  map[string]*domain.CompanyRequest
	services   map[string]*domain.ServiceRequest
	associates []domain.Associate

	nextID        int
	failCreate    bool
	failAssociate bool
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{
		companies: make(map[string]*domain.CompanyRequest),
		services:  make(map[string]*domain.ServiceRequest),
	}
}

func (f *fakeRequestStore) id() string {
	f.nextID++
	return fmt.Sprintf("req-%d", f.nextID)
}

func (f *fakeRequestStore) CreateCompanyRequest(_ context.Context, req *domain.CompanyRequest) (*domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	cp := *req
	cp.ID = f.id()
	f.companies[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeRequestStore) GetCompanyRequest(_ context.Context, id string) (*domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.companies[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "company_request", ID: id}
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) GetCompanyRequestByTracking(_ context.Context, trackingNumber string) (*domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.companies {
		if req.TrackingNumber == trackingNumber {
			cp := *req
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company_request", ID: trackingNumber}
}

func (f *fakeRequestStore) ListCompanyRequests(_ context.Context, _ domain.RequestFilter, _, _ int) ([]domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CompanyRequest
	for _, req := range f.companies {
		out = append(out, *req)
	}
	return out, nil
}

func (f *fakeRequestStore) ListCompanyRequestsByOwner(_ context.Context, userID string) ([]domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CompanyRequest
	for _, req := range f.companies {
		if req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) UpdateCompanyRequest(_ context.Context, id string, updates map[string]any) (*domain.CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.companies[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "company_request", ID: id}
	}
	applyCommonUpdates(&req.RequestCommon, updates)
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) CreateServiceRequest(_ context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	cp := *req
	cp.ID = f.id()
	f.services[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeRequestStore) GetServiceRequest(_ context.Context, id string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.services[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "service_request", ID: id}
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) GetServiceRequestByTracking(_ context.Context, trackingNumber string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.services {
		if req.TrackingNumber == trackingNumber {
			cp := *req
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "service_request", ID: trackingNumber}
}

func (f *fakeRequestStore) ListServiceRequests(_ context.Context, _ domain.RequestFilter, _, _ int) ([]domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServiceRequest
	for _, req := range f.services {
		out = append(out, *req)
	}
	return out, nil
}

func (f *fakeRequestStore) ListServiceRequestsByOwner(_ context.Context, userID string) ([]domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServiceRequest
	for _, req := range f.services {
		if req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) UpdateServiceRequest(_ context.Context, id string, updates map[string]any) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.services[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "service_request", ID: id}
	}
	applyCommonUpdates(&req.RequestCommon, updates)
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) CreateAssociate(_ context.Context, a *domain.Associate) (*domain.Associate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAssociate {
		return nil, fmt.Errorf("store unavailable")
	}
	cp := *a
	cp.ID = f.id()
	f.associates = append(f.associates, cp)
	return &cp, nil
}

func (f *fakeRequestStore) ListAssociates(_ context.Context, companyRequestID string) ([]domain.Associate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Associate
	for _, a := range f.associates {
		if a.CompanyRequestID == companyRequestID {
			out = append(out, a)
		}
	}
	return out, nil
}

// applyCommonUpdates mirrors what PostgREST does with a PATCH body, for
// the columns the services actually touch.
func applyCommonUpdates(c *domain.RequestCommon, updates map[string]any) {
	if v, ok := updates["status"].(string); ok {
		c.Status = v
	}
	if v, ok := updates["payment_status"].(string); ok {
		c.PaymentStatus = v
	}
	if v, ok := updates["estimated_price"].(int); ok {
		c.EstimatedPrice = &v
	}
	if v, ok := updates["closed_by"].(string); ok {
		c.ClosedBy = v
	}
	if v, ok := updates["closed_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			c.ClosedAt = &ts
		}
	}
	if v, ok := updates["client_rating"].(int); ok {
		c.ClientRating = &v
	}
	if v, ok := updates["client_review"].(string); ok {
		c.ClientReview = v
	}
}

// fakeAdminStore records notifications and serves canned aggregates.
type fakeAdminStore struct {
	notifications []domain.Notification
	notifyErr     error
}

func (f *fakeAdminStore) CreateNotification(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	if f.notifyErr != nil {
		return nil, f.notifyErr
	}
	cp := *n
	cp.ID = fmt.Sprintf("notif-%d", len(f.notifications)+1)
	f.notifications = append(f.notifications, cp)
	return &cp, nil
}

func (f *fakeAdminStore) ListNotifications(_ context.Context, _ string, _ bool, _, _ int) ([]domain.Notification, error) {
	return f.notifications, nil
}

func (f *fakeAdminStore) MarkNotificationRead(_ context.Context, _ string) error { return nil }

func (f *fakeAdminStore) UpsertTicket(_ context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	cp := *t
	return &cp, nil
}

func (f *fakeAdminStore) GetTicket(_ context.Context, _, _ string) (*domain.Ticket, error) {
	return nil, &domain.ErrNotFound{Resource: "ticket"}
}

func (f *fakeAdminStore) CountOpenTickets(_ context.Context) (int, error) { return 0, nil }

func (f *fakeAdminStore) GetSetting(_ context.Context, key string) (*domain.SiteSetting, error) {
	return nil, &domain.ErrNotFound{Resource: "setting", ID: key}
}

func (f *fakeAdminStore) UpsertSetting(_ context.Context, s *domain.SiteSetting) (*domain.SiteSetting, error) {
	cp := *s
	return &cp, nil
}

func (f *fakeAdminStore) CountRequestsByStatus(_ context.Context, _ string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *fakeAdminStore) SumPaidAmounts(_ context.Context) (int, error) { return 0, nil }

func (f *fakeAdminStore) ListInternalUsers(_ context.Context) ([]domain.InternalUser, error) {
	return nil, nil
}

func (f *fakeAdminStore) CreateInternalUser(_ context.Context, u *domain.InternalUser) (*domain.InternalUser, error) {
	cp := *u
	return &cp, nil
}

func (f *fakeAdminStore) UpdateInternalUser(_ context.Context, _ string, _ map[string]any) (*domain.InternalUser, error) {
	return nil, &domain.ErrNotFound{Resource: "internal_user"}
}

// fakePaymentStore is an in-memory PaymentStore.
type fakePaymentStore struct {
	mu       sync.Mutex
	attempts map[string]*domain.PaymentAttempt
	nextID   int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{attempts: make(map[string]*domain.PaymentAttempt)}
}

func (f *fakePaymentStore) CreatePaymentAttempt(_ context.Context, attempt *domain.PaymentAttempt) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *attempt
	f.nextID++
	cp.ID = fmt.Sprintf("attempt-%d", f.nextID)
	f.attempts[cp.ID] = &cp
	return &cp, nil
}

func (f *fakePaymentStore) GetPaymentAttemptByTransaction(_ context.Context, transactionID string) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.TransactionID == transactionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "payment_attempt", ID: transactionID}
}

func (f *fakePaymentStore) ListPaymentAttempts(_ context.Context, requestID, requestKind string) ([]domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PaymentAttempt
	for _, a := range f.attempts {
		if a.RequestID == requestID && a.RequestKind == requestKind {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) UpdatePaymentAttempt(_ context.Context, id string, updates map[string]any) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "payment_attempt", ID: id}
	}
	if v, ok := updates["status"].(string); ok {
		a.Status = v
	}
	if v, ok := updates["transaction_id"].(string); ok {
		a.TransactionID = v
	}
	cp := *a
	return &cp, nil
}

// fakeGateway returns a canned checkout or a configured error, and plays
// the provider's side of transaction verification: txStatus holds what the
// provider would report per transaction id.
type fakeGateway struct {
	checkout    *domain.Checkout
	err         error
	calls       int
	lastReq     *domain.CheckoutRequest
	txStatus    map[string]string
	verifyErr   error
	verifyCalls int
}

func (f *fakeGateway) Initiate(_ context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.checkout, nil
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, transactionID string) (string, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	if status, ok := f.txStatus[transactionID]; ok {
		return status, nil
	}
	return domain.PaymentPending, nil
}
