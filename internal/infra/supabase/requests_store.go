package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// RequestStore implementation — formation requests via PostgREST
// ============================================================

// --- Company requests ---

func (c *Client) CreateCompanyRequest(ctx context.Context, r *domain.CompanyRequest) (*domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCompanyRequest")
	defer span.End()

	row := map[string]any{
		"id":              uuid.New().String(),
		"tracking_number": r.TrackingNumber,
		"user_id":         r.UserID,
		"contact_name":    r.ContactName,
		"phone":           r.Phone,
		"email":           r.Email,
		"status":          r.Status,
		"payment_status":  r.PaymentStatus,
		"structure_type":  r.StructureType,
		"company_name":    r.CompanyName,
		"sigle":           r.Sigle,
		"capital":         r.Capital,
		"activity":        r.Activity,
		"bank":            r.Bank,
		"region":          r.Region,
		"city":            r.City,
		"address":         r.Address,
	}
	if r.EstimatedPrice != nil {
		row["estimated_price"] = *r.EstimatedPrice
	}
	if r.AssociatesCount > 0 {
		row["associates_count"] = r.AssociatesCount
	}
	if len(r.AdditionalServices) > 0 {
		row["additional_services"] = r.AdditionalServices
	}

	body, err := c.doPost(ctx, "company_requests", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.CompanyRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode company_request: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from company_requests insert")
	}
	return &rows[0], nil
}

func (c *Client) GetCompanyRequest(ctx context.Context, id string) (*domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompanyRequest")
	defer span.End()

	path := fmt.Sprintf("company_requests?id=eq.%s&limit=1", id)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.CompanyRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode company_request: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "company_request", ID: id}
	}
	return &rows[0], nil
}

// GetCompanyRequestByTracking serves the public tracking lookup, so it is
// wrapped in the circuit breaker and retried like any other external call.
func (c *Client) GetCompanyRequestByTracking(ctx context.Context, trackingNumber string) (*domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompanyRequestByTracking")
	defer span.End()
	span.SetAttributes(attribute.String("tracking.number", trackingNumber))

	var result *domain.CompanyRequest

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("company_requests?tracking_number=eq.%s&limit=1", url.QueryEscape(trackingNumber))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "company_request", ID: trackingNumber}
			}

			var rows []domain.CompanyRequest
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode company_request: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "company_request", ID: trackingNumber}
			}
			result = &rows[0]
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/company_requests", Err: err}
	}

	return result, nil
}

func (c *Client) ListCompanyRequests(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanyRequests")
	defer span.End()

	path := "company_requests?" + filterQuery(filter, page, pageSize, "company_name")
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.CompanyRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode company_requests: %w", err)
	}
	return rows, nil
}

func (c *Client) ListCompanyRequestsByOwner(ctx context.Context, userID string) ([]domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanyRequestsByOwner")
	defer span.End()

	path := fmt.Sprintf("company_requests?user_id=eq.%s&order=created_at.desc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.CompanyRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode company_requests: %w", err)
	}
	return rows, nil
}

func (c *Client) UpdateCompanyRequest(ctx context.Context, id string, updates map[string]any) (*domain.CompanyRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCompanyRequest")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	path := fmt.Sprintf("company_requests?id=eq.%s", id)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetCompanyRequest(ctx, id)
}

// --- Service requests ---

func (c *Client) CreateServiceRequest(ctx context.Context, r *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateServiceRequest")
	defer span.End()

	row := map[string]any{
		"id":              uuid.New().String(),
		"tracking_number": r.TrackingNumber,
		"user_id":         r.UserID,
		"contact_name":    r.ContactName,
		"phone":           r.Phone,
		"email":           r.Email,
		"status":          r.Status,
		"payment_status":  r.PaymentStatus,
		"service_type":    r.ServiceType,
		"company_name":    r.CompanyName,
	}
	if r.EstimatedPrice != nil {
		row["estimated_price"] = *r.EstimatedPrice
	}
	if len(r.ServiceDetails) > 0 {
		row["service_details"] = r.ServiceDetails
	}

	body, err := c.doPost(ctx, "service_requests", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.ServiceRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode service_request: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from service_requests insert")
	}
	return &rows[0], nil
}

func (c *Client) GetServiceRequest(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetServiceRequest")
	defer span.End()

	path := fmt.Sprintf("service_requests?id=eq.%s&limit=1", id)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.ServiceRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode service_request: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "service_request", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) GetServiceRequestByTracking(ctx context.Context, trackingNumber string) (*domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetServiceRequestByTracking")
	defer span.End()
	span.SetAttributes(attribute.String("tracking.number", trackingNumber))

	var result *domain.ServiceRequest

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("service_requests?tracking_number=eq.%s&limit=1", url.QueryEscape(trackingNumber))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "service_request", ID: trackingNumber}
			}

			var rows []domain.ServiceRequest
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode service_request: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "service_request", ID: trackingNumber}
			}
			result = &rows[0]
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/service_requests", Err: err}
	}

	return result, nil
}

func (c *Client) ListServiceRequests(ctx context.Context, filter domain.RequestFilter, page, pageSize int) ([]domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListServiceRequests")
	defer span.End()

	path := "service_requests?" + filterQuery(filter, page, pageSize, "company_name")
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.ServiceRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode service_requests: %w", err)
	}
	return rows, nil
}

func (c *Client) ListServiceRequestsByOwner(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListServiceRequestsByOwner")
	defer span.End()

	path := fmt.Sprintf("service_requests?user_id=eq.%s&order=created_at.desc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.ServiceRequest
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode service_requests: %w", err)
	}
	return rows, nil
}

func (c *Client) UpdateServiceRequest(ctx context.Context, id string, updates map[string]any) (*domain.ServiceRequest, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateServiceRequest")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	path := fmt.Sprintf("service_requests?id=eq.%s", id)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetServiceRequest(ctx, id)
}

// --- Associates ---

func (c *Client) CreateAssociate(ctx context.Context, a *domain.Associate) (*domain.Associate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAssociate")
	defer span.End()

	row := map[string]any{
		"id":                 uuid.New().String(),
		"company_request_id": a.CompanyRequestID,
		"full_name":          a.FullName,
		"phone":              a.Phone,
		"email":              a.Email,
		"profession":         a.Profession,
		"residence_address":  a.ResidenceAddress,
		"marital_status":     a.MaritalStatus,
		"marital_regime":     a.MaritalRegime,
		"is_manager":         a.IsManager,
	}
	if a.BirthDate != "" {
		row["birth_date"] = a.BirthDate
	}
	if a.BirthPlace != "" {
		row["birth_place"] = a.BirthPlace
	}
	if a.IDRectoURL != "" {
		row["id_recto_url"] = a.IDRectoURL
	}
	if a.IDVersoURL != "" {
		row["id_verso_url"] = a.IDVersoURL
	}
	if a.CashContribution > 0 {
		row["cash_contribution"] = a.CashContribution
	}
	if a.NatureDescription != "" {
		row["nature_contribution_description"] = a.NatureDescription
		row["nature_contribution_value"] = a.NatureValue
	}
	if a.Percentage > 0 {
		row["percentage"] = a.Percentage
	}
	if a.NumberOfShares > 0 {
		row["number_of_shares"] = a.NumberOfShares
		row["share_start"] = a.ShareStart
		row["share_end"] = a.ShareEnd
	}
	if a.TotalContribution > 0 {
		row["total_contribution"] = a.TotalContribution
	}

	body, err := c.doPost(ctx, "associates", row)
	if err != nil {
		return nil, err
	}

	var rows []domain.Associate
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode associate: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result returned from associates insert")
	}
	return &rows[0], nil
}

func (c *Client) ListAssociates(ctx context.Context, companyRequestID string) ([]domain.Associate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAssociates")
	defer span.End()

	path := fmt.Sprintf("associates?company_request_id=eq.%s&order=created_at.asc", companyRequestID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Associate
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode associates: %w", err)
	}
	return rows, nil
}

// filterQuery builds the PostgREST query string shared by both request
// tables. searchCol is the name-ish column matched by the search filter.
func filterQuery(filter domain.RequestFilter, page, pageSize int, searchCol string) string {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", "eq."+filter.Status)
	}
	if filter.PaymentStatus != "" {
		q.Set("payment_status", "eq."+filter.PaymentStatus)
	}
	if filter.Search != "" {
		pattern := "*" + filter.Search + "*"
		q.Set("or", fmt.Sprintf("(%s.ilike.%s,contact_name.ilike.%s,tracking_number.ilike.%s)",
			searchCol, pattern, pattern, pattern))
	}
	q.Set("order", "created_at.desc")
	q.Set("limit", fmt.Sprintf("%d", pageSize))
	q.Set("offset", fmt.Sprintf("%d", (page-1)*pageSize))
	return q.Encode()
}
