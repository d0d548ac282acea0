package domain

import "time"

// ============================================================
// Public showcase & contact
// ============================================================

// CreatedCompany is a curated showcase entry for a company the agency
// helped create.
type CreatedCompany struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"company_name"`
	StructureType string    `json:"structure_type,omitempty"`
	Sector        string    `json:"sector,omitempty"`
	City          string    `json:"city,omitempty"`
	LogoURL       string    `json:"logo_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
}

// Testimonial is a published client review, either curated or derived from
// a completed request's rating and review.
type Testimonial struct {
	ID          string    `json:"id"`
	AuthorName  string    `json:"author_name"`
	CompanyName string    `json:"company_name,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Rating      int       `json:"rating"`
	Body        string    `json:"body"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactMessage is a message from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"message"`
	IsHandled bool      `json:"is_handled"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitContactRequest is the body for POST /v1/contact.
type SubmitContactRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"message" validate:"required"`
}
