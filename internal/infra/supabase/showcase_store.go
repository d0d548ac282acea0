package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// ShowcaseStore implementation — public marketing content
// ============================================================

func (c *Client) ListCreatedCompanies(ctx context.Context, publishedOnly bool) ([]domain.CreatedCompany, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreatedCompanies")
	defer span.End()

	path := "created_companies?order=created_at.desc"
	if publishedOnly {
		path += "&is_published=eq.true"
	}
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.CreatedCompany
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created_companies: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateCreatedCompany(ctx context.Context, cc *domain.CreatedCompany) (*domain.CreatedCompany, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCreatedCompany")
	defer span.End()

	row := map[string]any{
		"id":             uuid.New().String(),
		"company_name":   cc.CompanyName,
		"structure_type": cc.StructureType,
		"sector":         cc.Sector,
		"city":           cc.City,
		"logo_url":       cc.LogoURL,
		"description":    cc.Description,
		"is_published":   cc.IsPublished,
	}

	body, err := c.doPost(ctx, "created_companies", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.CreatedCompany
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created_company: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from created_companies insert")
	}
	return &rows[0], nil
}

func (c *Client) ListTestimonials(ctx context.Context, publishedOnly bool) ([]domain.Testimonial, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTestimonials")
	defer span.End()

	path := "testimonials?order=created_at.desc"
	if publishedOnly {
		path += "&is_published=eq.true"
	}
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Testimonial
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode testimonials: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateTestimonial(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTestimonial")
	defer span.End()

	row := map[string]any{
		"id":           uuid.New().String(),
		"author_name":  t.AuthorName,
		"company_name": t.CompanyName,
		"photo_url":    t.PhotoURL,
		"rating":       t.Rating,
		"body":         t.Body,
		"is_published": t.IsPublished,
	}

	body, err := c.doPost(ctx, "testimonials", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.Testimonial
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode testimonial: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from testimonials insert")
	}
	return &rows[0], nil
}

func (c *Client) CreateContactMessage(ctx context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateContactMessage")
	defer span.End()

	row := map[string]any{
		"id":         uuid.New().String(),
		"full_name":  m.FullName,
		"email":      m.Email,
		"phone":      m.Phone,
		"subject":    m.Subject,
		"message":    m.Body,
		"is_handled": false,
	}

	body, err := c.doPost(ctx, "contact_messages", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.ContactMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode contact_message: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from contact_messages insert")
	}
	return &rows[0], nil
}

func (c *Client) ListContactMessages(ctx context.Context, unhandledOnly bool) ([]domain.ContactMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListContactMessages")
	defer span.End()

	path := "contact_messages?order=created_at.desc"
	if unhandledOnly {
		path += "&is_handled=eq.false"
	}
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.ContactMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode contact_messages: %w", err)
	}
	return rows, nil
}
