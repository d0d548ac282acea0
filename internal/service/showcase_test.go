package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/cache"

	"go.uber.org/zap"
)

// fakeShowcaseStore counts list calls so cache behavior is observable.
type fakeShowcaseStore struct {
	companies    []domain.CreatedCompany
	testimonials []domain.Testimonial
	contacts     []domain.ContactMessage

	companyLists     int
	testimonialLists int
}

func (f *fakeShowcaseStore) ListCreatedCompanies(_ context.Context, publishedOnly bool) ([]domain.CreatedCompany, error) {
	f.companyLists++
	var out []domain.CreatedCompany
	for _, c := range f.companies {
		if !publishedOnly || c.IsPublished {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeShowcaseStore) CreateCreatedCompany(_ context.Context, c *domain.CreatedCompany) (*domain.CreatedCompany, error) {
	cp := *c
	cp.ID = fmt.Sprintf("company-%d", len(f.companies)+1)
	f.companies = append(f.companies, cp)
	return &cp, nil
}

func (f *fakeShowcaseStore) ListTestimonials(_ context.Context, publishedOnly bool) ([]domain.Testimonial, error) {
	f.testimonialLists++
	var out []domain.Testimonial
	for _, t := range f.testimonials {
		if !publishedOnly || t.IsPublished {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeShowcaseStore) CreateTestimonial(_ context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	cp := *t
	cp.ID = fmt.Sprintf("testimonial-%d", len(f.testimonials)+1)
	f.testimonials = append(f.testimonials, cp)
	return &cp, nil
}

func (f *fakeShowcaseStore) CreateContactMessage(_ context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error) {
	cp := *m
	cp.ID = fmt.Sprintf("contact-%d", len(f.contacts)+1)
	f.contacts = append(f.contacts, cp)
	return &cp, nil
}

func (f *fakeShowcaseStore) ListContactMessages(_ context.Context, unhandledOnly bool) ([]domain.ContactMessage, error) {
	var out []domain.ContactMessage
	for _, m := range f.contacts {
		if !unhandledOnly || !m.IsHandled {
			out = append(out, m)
		}
	}
	return out, nil
}

func newShowcaseFixture() (*ShowcaseService, *fakeShowcaseStore) {
	store := &fakeShowcaseStore{}
	svc := NewShowcaseService(store,
		cache.New[[]domain.CreatedCompany](time.Minute),
		cache.New[[]domain.Testimonial](time.Minute),
		zap.NewNop())
	return svc, store
}

func TestListCompanies_PublishedServedFromCache(t *testing.T) {
	svc, store := newShowcaseFixture()
	store.companies = []domain.CreatedCompany{
		{ID: "c1", CompanyName: "Ivoire Négoce", IsPublished: true},
		{ID: "c2", CompanyName: "Brouillon", IsPublished: false},
	}

	for i := 0; i < 3; i++ {
		list, err := svc.ListCompanies(context.Background(), true)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected only the published entry, got %d", len(list))
		}
	}
	if store.companyLists != 1 {
		t.Errorf("expected 1 store read behind the cache, got %d", store.companyLists)
	}

	// Console listing bypasses the cache and sees drafts.
	all, err := svc.ListCompanies(context.Background(), false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both entries for the console, got %d", len(all))
	}
	if store.companyLists != 2 {
		t.Errorf("expected the console read to hit the store, got %d reads", store.companyLists)
	}
}

func TestCreateCompany_InvalidatesCache(t *testing.T) {
	svc, store := newShowcaseFixture()
	store.companies = []domain.CreatedCompany{
		{ID: "c1", CompanyName: "Ivoire Négoce", IsPublished: true},
	}

	if _, err := svc.ListCompanies(context.Background(), true); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if _, err := svc.CreateCompany(context.Background(), &domain.CreatedCompany{
		CompanyName: "Nouvelle SARL",
		IsPublished: true,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.ListCompanies(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected the new entry after invalidation, got %d entries", len(list))
	}
}

func TestCreateCompany_RequiresName(t *testing.T) {
	svc, _ := newShowcaseFixture()

	_, err := svc.CreateCompany(context.Background(), &domain.CreatedCompany{})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTestimonial_Validation(t *testing.T) {
	svc, _ := newShowcaseFixture()

	cases := []domain.Testimonial{
		{AuthorName: "Aya", Body: "Parfait", Rating: 0},
		{AuthorName: "Aya", Body: "Parfait", Rating: 6},
		{AuthorName: "", Body: "Parfait", Rating: 5},
		{AuthorName: "Aya", Body: "", Rating: 5},
	}
	for i, tc := range cases {
		_, err := svc.CreateTestimonial(context.Background(), &tc)
		var verr *domain.ErrValidation
		if !errors.As(err, &verr) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}

	if _, err := svc.CreateTestimonial(context.Background(), &domain.Testimonial{
		AuthorName:  "Aya Kouassi",
		Body:        "Accompagnement impeccable du début à la fin.",
		Rating:      5,
		IsPublished: true,
	}); err != nil {
		t.Fatalf("valid testimonial rejected: %v", err)
	}
}

func TestSubmitContact_NormalizesPhone(t *testing.T) {
	svc, store := newShowcaseFixture()

	msg, err := svc.SubmitContact(context.Background(), &domain.SubmitContactRequest{
		FullName: "Aya Kouassi",
		Email:    "aya@example.ci",
		Phone:    "+225 07 01 02 03 04",
		Subject:  "Création SARL",
		Body:     "Je souhaite créer une SARL à Abidjan.",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected a persisted message ID")
	}
	if store.contacts[0].Phone != "+2250701020304" {
		t.Errorf("expected the phone normalized to E.164, got %s", store.contacts[0].Phone)
	}
}
