package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var intakeTracer = otel.Tracer("service/intake")

// IntakeService turns finished wizard drafts into persisted requests.
type IntakeService struct {
	store    port.RequestStore
	payments *PaymentService
	tariffs  domain.Tariffs
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewIntakeService creates a new intake service. payments may be nil when
// the gateway is not configured; submissions then skip checkout creation.
func NewIntakeService(store port.RequestStore, payments *PaymentService, tariffs domain.Tariffs, metrics *observability.Metrics, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		store:    store,
		payments: payments,
		tariffs:  tariffs,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// ValidateStep — POST /v1/requests/company/validate-step
// ============================================================

// ValidateStep checks whether a draft may advance past the given step.
// The frontend calls this on every "next" click so the gate logic lives
// server-side only.
func (s *IntakeService) ValidateStep(ctx context.Context, step int, draft *domain.CompanyDraft) error {
	_, span := intakeTracer.Start(ctx, "IntakeService.ValidateStep")
	defer span.End()
	span.SetAttributes(attribute.Int("wizard.step", step))

	return domain.CanAdvance(step, draft)
}

// ============================================================
// Quote — POST /v1/requests/company/quote
// ============================================================

// Quote prices a draft without persisting anything. A nil price means a
// manual quote is required.
func (s *IntakeService) Quote(ctx context.Context, draft *domain.CompanyDraft) (*int, error) {
	_, span := intakeTracer.Start(ctx, "IntakeService.Quote")
	defer span.End()

	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}
	return domain.ComputePrice(draft, s.tariffs), nil
}

// ============================================================
// SubmitCompany — POST /v1/requests/company
// ============================================================

// SubmitCompany persists a finished company formation draft. The request
// row, its associates and the initial payment attempt are written
// sequentially; associate and checkout failures are logged but do not
// roll back the request.
func (s *IntakeService) SubmitCompany(ctx context.Context, userID string, req *domain.SubmitCompanyRequest) (*domain.SubmitCompanyResponse, error) {
	ctx, span := intakeTracer.Start(ctx, "IntakeService.SubmitCompany")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("submit_company", time.Since(start)) }()

	draft := &req.Draft
	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	price := domain.ComputePrice(draft, s.tariffs)
	associates := namedAssociates(draft)

	// Company requests always enter the lifecycle as pending, even with a
	// nil price: the back office prices them via SetQuote without a status
	// detour. pending_quote is reserved for standalone service requests.
	request := &domain.CompanyRequest{
		RequestCommon: domain.RequestCommon{
			TrackingNumber: generateTrackingNumber(),
			UserID:         userID,
			ContactName:    draft.ManagerFullName,
			Phone:          domain.NormalizePhone(draft.ManagerPhone),
			Email:          draft.ManagerEmail,
			Status:         domain.StatusPending,
			PaymentStatus:  domain.PaymentPending,
			EstimatedPrice: price,
		},
		StructureType: draft.StructureType,
		CompanyName:   draft.CompanyName,
		Sigle:         draft.Sigle,
		Capital:       draft.Capital,
		Activity:      draft.Activity,
		Bank:          draft.Bank,
		// The wizard's "ville" is the administrative region; the commune
		// fills the city column.
		Region:             draft.City,
		City:               draft.Commune,
		Address:            formatAddress(draft),
		AssociatesCount:    len(associates),
		AdditionalServices: draft.AdditionalServices,
	}

	created, err := s.store.CreateCompanyRequest(ctx, request)
	if err != nil {
		s.logger.Error("failed to create company request",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrRequestCreated(domain.KindCompany)

	// Insert associates one by one. A failed associate leaves the request
	// usable; the back office completes missing rows by hand.
	for i := range associates {
		a := associateFromDraft(created.ID, &associates[i])
		if _, aErr := s.store.CreateAssociate(ctx, a); aErr != nil {
			s.logger.Error("failed to create associate",
				zap.String("request_id", created.ID),
				zap.Int("index", i),
				zap.Error(aErr),
			)
		}
	}

	resp := &domain.SubmitCompanyResponse{
		RequestID:      created.ID,
		TrackingNumber: created.TrackingNumber,
		EstimatedPrice: price,
		QuoteRequired:  price == nil,
	}

	// Fixed price: open a checkout right away so the client can pay from
	// the confirmation screen.
	if price != nil && s.payments != nil {
		checkout, payErr := s.payments.InitiateCheckout(ctx, created.ID, domain.KindCompany, userID)
		if payErr != nil {
			var extErr *domain.ErrExternalService
			if errors.As(payErr, &extErr) {
				s.metrics.IncrExternalError(extErr.Service)
				s.logger.Warn("checkout creation failed, request stays payable later",
					zap.String("request_id", created.ID),
					zap.Error(payErr),
				)
			} else {
				s.logger.Error("unexpected checkout error",
					zap.String("request_id", created.ID),
					zap.Error(payErr),
				)
			}
		} else {
			resp.PaymentURL = checkout.PaymentURL
		}
	}

	s.logger.Info("company request submitted",
		zap.String("request_id", created.ID),
		zap.String("tracking_number", created.TrackingNumber),
		zap.String("structure_type", draft.StructureType),
		zap.Bool("quote_required", price == nil),
	)

	return resp, nil
}

// ============================================================
// SubmitService — POST /v1/requests/service
// ============================================================

// SubmitService persists a standalone additional-service request. These
// are always quoted by hand, so they start in pending_quote with no price.
func (s *IntakeService) SubmitService(ctx context.Context, userID string, req *domain.SubmitServiceRequest) (*domain.SubmitCompanyResponse, error) {
	ctx, span := intakeTracer.Start(ctx, "IntakeService.SubmitService")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if !domain.IsValidAdditionalService(req.ServiceType) {
		return nil, &domain.ErrValidation{Field: "serviceType", Message: fmt.Sprintf("service inconnu: %s", req.ServiceType)}
	}

	request := &domain.ServiceRequest{
		RequestCommon: domain.RequestCommon{
			TrackingNumber: generateTrackingNumber(),
			UserID:         userID,
			ContactName:    req.ContactName,
			Phone:          domain.NormalizePhone(req.Phone),
			Email:          req.Email,
			Status:         domain.StatusPendingQuote,
			PaymentStatus:  domain.PaymentPending,
		},
		ServiceType:    req.ServiceType,
		CompanyName:    req.CompanyName,
		ServiceDetails: req.ServiceDetails,
	}

	created, err := s.store.CreateServiceRequest(ctx, request)
	if err != nil {
		s.logger.Error("failed to create service request",
			zap.String("user_id", userID),
			zap.String("service_type", req.ServiceType),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrRequestCreated(domain.KindService)

	s.logger.Info("service request submitted",
		zap.String("request_id", created.ID),
		zap.String("tracking_number", created.TrackingNumber),
		zap.String("service_type", req.ServiceType),
	)

	return &domain.SubmitCompanyResponse{
		RequestID:      created.ID,
		TrackingNumber: created.TrackingNumber,
		QuoteRequired:  true,
	}, nil
}

// ============================================================
// Internal helpers
// ============================================================

// generateTrackingNumber builds a human-readable reference like
// LF-2026-428713. Collisions are possible in theory; the unique index on
// tracking_number rejects them and the client retries.
func generateTrackingNumber() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000))
	return fmt.Sprintf("LF-%d-%06d", time.Now().Year(), n.Int64())
}

// namedAssociates drops blank rows; the wizard submits trailing empty
// associate forms the client never filled in.
func namedAssociates(d *domain.CompanyDraft) []domain.AssociateDraft {
	out := make([]domain.AssociateDraft, 0, len(d.Associates))
	for _, a := range d.Associates {
		if strings.TrimSpace(a.FullName) != "" {
			out = append(out, a)
		}
	}
	return out
}

func formatAddress(d *domain.CompanyDraft) string {
	if d.Landmark == "" {
		return d.Quarter
	}
	if d.Quarter == "" {
		return d.Landmark
	}
	return d.Quarter + ", " + d.Landmark
}

func associateFromDraft(requestID string, d *domain.AssociateDraft) *domain.Associate {
	return &domain.Associate{
		CompanyRequestID:  requestID,
		FullName:          d.FullName,
		Phone:             domain.NormalizePhone(d.Phone),
		Email:             d.Email,
		Profession:        d.Profession,
		BirthDate:         d.BirthDate,
		BirthPlace:        d.BirthPlace,
		ResidenceAddress:  d.ResidenceAddress,
		MaritalStatus:     d.MaritalStatus,
		MaritalRegime:     d.MaritalRegime,
		IDRectoURL:        d.IDRectoURL,
		IDVersoURL:        d.IDVersoURL,
		IsManager:         d.IsManager,
		CashContribution:  d.CashContribution,
		NatureDescription: d.NatureDescription,
		NatureValue:       d.NatureValue,
		Percentage:        d.Percentage,
		NumberOfShares:    d.NumberOfShares,
		ShareStart:        d.ShareStart,
		ShareEnd:          d.ShareEnd,
		TotalContribution: d.TotalContribution,
	}
}
