// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// RequestStore defines the data operations for both request kinds and
// their associates. Implemented by the Supabase adapter (or any other
// persistence layer).
type RequestStore interface {
	// Company requests
	CreateCompanyRequest(ctx context.Context, req *domain.CompanyRequest) (*domain.CompanyRequest, error)
	GetCompanyRequest(ctx context.Context, id string) (*domain.CompanyRequest, error)
	GetCompanyRequestByTracking(ctx context.Context, trackingNumber string) (*domain.CompanyRequest, error)
	ListCompanyRequests(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.CompanyRequest, error)
	ListCompanyRequestsByOwner(ctx context.Context, userID string) ([]domain.CompanyRequest, error)
	UpdateCompanyRequest(ctx context.Context, id string, updates map[string]any) (*domain.CompanyRequest, error)

	// Service requests
	CreateServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error)
	GetServiceRequest(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetServiceRequestByTracking(ctx context.Context, trackingNumber string) (*domain.ServiceRequest, error)
	ListServiceRequests(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.ServiceRequest, error)
	ListServiceRequestsByOwner(ctx context.Context, userID string) ([]domain.ServiceRequest, error)
	UpdateServiceRequest(ctx context.Context, id string, updates map[string]any) (*domain.ServiceRequest, error)

	// Associates
	CreateAssociate(ctx context.Context, a *domain.Associate) (*domain.Associate, error)
	ListAssociates(ctx context.Context, companyRequestID string) ([]domain.Associate, error)
}

// ExchangeStore defines the data operations for documents and messages
// attached to a request by (id, kind).
type ExchangeStore interface {
	CreateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	ListDocuments(ctx context.Context, requestID, requestKind string) ([]domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	CreateMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	ListMessages(ctx context.Context, requestID, requestKind string) ([]domain.Message, error)
	MarkMessagesRead(ctx context.Context, requestID, requestKind, readerRole string) error
}

// BlobStore is the object-storage collaborator for exchanged documents.
type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	PublicURL(bucket, path string) string
	Delete(ctx context.Context, bucket string, paths []string) error
}

// PaymentStore defines the data operations for payment attempts.
type PaymentStore interface {
	CreatePaymentAttempt(ctx context.Context, attempt *domain.PaymentAttempt) (*domain.PaymentAttempt, error)
	GetPaymentAttemptByTransaction(ctx context.Context, transactionID string) (*domain.PaymentAttempt, error)
	ListPaymentAttempts(ctx context.Context, requestID, requestKind string) ([]domain.PaymentAttempt, error)
	UpdatePaymentAttempt(ctx context.Context, id string, updates map[string]any) (*domain.PaymentAttempt, error)
}

// PaymentGateway initiates a hosted checkout with the external payment
// provider and reads back the real state of a transaction. Callbacks are
// never trusted on their own; the provider is the source of truth.
type PaymentGateway interface {
	Initiate(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error)
	// VerifyTransaction fetches the transaction from the provider and
	// returns its state mapped to a domain payment status.
	VerifyTransaction(ctx context.Context, transactionID string) (string, error)
}

// AdminStore defines the data operations behind the admin console:
// notifications, tickets, settings and dashboard aggregates.
type AdminStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, notifID string) error

	UpsertTicket(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error)
	GetTicket(ctx context.Context, requestID, requestKind string) (*domain.Ticket, error)
	CountOpenTickets(ctx context.Context) (int, error)

	GetSetting(ctx context.Context, key string) (*domain.SiteSetting, error)
	UpsertSetting(ctx context.Context, s *domain.SiteSetting) (*domain.SiteSetting, error)

	CountRequestsByStatus(ctx context.Context, kind string) (map[string]int, error)
	SumPaidAmounts(ctx context.Context) (int, error)

	ListInternalUsers(ctx context.Context) ([]domain.InternalUser, error)
	CreateInternalUser(ctx context.Context, u *domain.InternalUser) (*domain.InternalUser, error)
	UpdateInternalUser(ctx context.Context, id string, updates map[string]any) (*domain.InternalUser, error)
}

// ShowcaseStore defines the public marketing data operations.
type ShowcaseStore interface {
	ListCreatedCompanies(ctx context.Context, publishedOnly bool) ([]domain.CreatedCompany, error)
	CreateCreatedCompany(ctx context.Context, c *domain.CreatedCompany) (*domain.CreatedCompany, error)
	ListTestimonials(ctx context.Context, publishedOnly bool) ([]domain.Testimonial, error)
	CreateTestimonial(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error)
	CreateContactMessage(ctx context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error)
	ListContactMessages(ctx context.Context, unhandledOnly bool) ([]domain.ContactMessage, error)
}

// AuthStore defines all data operations for the authentication system.
type AuthStore interface {
	// User lookup
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CountAdmins(ctx context.Context) (int, error)

	// Registration
	CreateUser(ctx context.Context, u *domain.User, passwordHash string) (*domain.User, error)

	// Credentials
	GetCredentials(ctx context.Context, userID string) (*domain.AuthCredential, error)
	UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error

	// Refresh tokens
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error

	// Password reset codes
	StoreResetCode(ctx context.Context, userID, code string, expiresAt time.Time) error
	GetValidResetCode(ctx context.Context, userID, code string) (*domain.AuthPasswordResetCode, error)
	MarkResetCodeUsed(ctx context.Context, codeID string) error

	// Profile
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]any) (*domain.Profile, error)
}
