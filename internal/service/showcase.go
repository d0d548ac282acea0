package service

import (
	"context"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var showcaseTracer = otel.Tracer("service/showcase")

// Cache keys for the public, published-only lists. Console reads bypass
// the cache so staff always see fresh rows.
const (
	companiesCacheKey    = "showcase:companies"
	testimonialsCacheKey = "showcase:testimonials"
)

// ShowcaseService serves the public marketing content (created companies,
// testimonials) and the contact form.
type ShowcaseService struct {
	store        port.ShowcaseStore
	companies    port.Cache[[]domain.CreatedCompany]
	testimonials port.Cache[[]domain.Testimonial]
	logger       *zap.Logger
}

// NewShowcaseService creates a new showcase service.
func NewShowcaseService(store port.ShowcaseStore, companies port.Cache[[]domain.CreatedCompany], testimonials port.Cache[[]domain.Testimonial], logger *zap.Logger) *ShowcaseService {
	return &ShowcaseService{
		store:        store,
		companies:    companies,
		testimonials: testimonials,
		logger:       logger,
	}
}

// ListCompanies returns showcase entries. The public endpoint only sees
// published ones, served from the TTL cache; the console sees everything.
func (s *ShowcaseService) ListCompanies(ctx context.Context, publishedOnly bool) ([]domain.CreatedCompany, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.ListCompanies")
	defer span.End()

	if publishedOnly && s.companies != nil {
		if cached, ok := s.companies.Get(companiesCacheKey); ok {
			return cached, nil
		}
	}

	list, err := s.store.ListCreatedCompanies(ctx, publishedOnly)
	if err != nil {
		return nil, err
	}
	if publishedOnly && s.companies != nil {
		s.companies.Set(companiesCacheKey, list)
	}
	return list, nil
}

// CreateCompany adds a showcase entry. Admin only.
func (s *ShowcaseService) CreateCompany(ctx context.Context, c *domain.CreatedCompany) (*domain.CreatedCompany, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.CreateCompany")
	defer span.End()

	if c.CompanyName == "" {
		return nil, &domain.ErrValidation{Field: "company_name", Message: "required"}
	}
	created, err := s.store.CreateCreatedCompany(ctx, c)
	if err != nil {
		return nil, err
	}
	if s.companies != nil {
		s.companies.Delete(companiesCacheKey)
	}
	return created, nil
}

// ListTestimonials returns testimonials, optionally published only.
// Published listings are served from the TTL cache.
func (s *ShowcaseService) ListTestimonials(ctx context.Context, publishedOnly bool) ([]domain.Testimonial, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.ListTestimonials")
	defer span.End()

	if publishedOnly && s.testimonials != nil {
		if cached, ok := s.testimonials.Get(testimonialsCacheKey); ok {
			return cached, nil
		}
	}

	list, err := s.store.ListTestimonials(ctx, publishedOnly)
	if err != nil {
		return nil, err
	}
	if publishedOnly && s.testimonials != nil {
		s.testimonials.Set(testimonialsCacheKey, list)
	}
	return list, nil
}

// CreateTestimonial adds a curated testimonial. Admin only.
func (s *ShowcaseService) CreateTestimonial(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.CreateTestimonial")
	defer span.End()

	if t.Rating < 1 || t.Rating > 5 {
		return nil, &domain.ErrValidation{Field: "rating", Message: "la note doit être comprise entre 1 et 5"}
	}
	if t.AuthorName == "" || t.Body == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "auteur et texte requis"}
	}
	created, err := s.store.CreateTestimonial(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.testimonials != nil {
		s.testimonials.Delete(testimonialsCacheKey)
	}
	return created, nil
}

// SubmitContact records a public contact-form message.
func (s *ShowcaseService) SubmitContact(ctx context.Context, req *domain.SubmitContactRequest) (*domain.ContactMessage, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.SubmitContact")
	defer span.End()

	msg, err := s.store.CreateContactMessage(ctx, &domain.ContactMessage{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    domain.NormalizePhone(req.Phone),
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact message received",
		zap.String("id", msg.ID),
		zap.String("subject", req.Subject),
	)
	return msg, nil
}

// ListContactMessages returns contact-form messages for the console.
func (s *ShowcaseService) ListContactMessages(ctx context.Context, unhandledOnly bool) ([]domain.ContactMessage, error) {
	ctx, span := showcaseTracer.Start(ctx, "ShowcaseService.ListContactMessages")
	defer span.End()
	return s.store.ListContactMessages(ctx, unhandledOnly)
}
