package domain

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Documents exchanged on a request
// ============================================================

// Document type tags accepted on upload. "autre" is the open-ended tag and
// is always available.
var DocumentTypes = []string{
	"cni_recto", "cni_verso", "extrait_naissance", "casier_judiciaire",
	"filiation", "contrat_bail", "statuts", "dsv", "autre",
}

// IsValidDocumentType reports whether the tag belongs to the fixed set.
func IsValidDocumentType(tag string) bool {
	for _, t := range DocumentTypes {
		if t == tag {
			return true
		}
	}
	return false
}

// Document is a file exchanged on a request. Rows are append-only: created
// on upload, never mutated.
type Document struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	RequestKind    string    `json:"request_type"`
	DocumentName   string    `json:"document_name"`
	DocumentType   string    `json:"document_type"`
	FilePath       string    `json:"file_path"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedByRole string    `json:"uploaded_by_role"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// BlobPath builds the storage path for an uploaded document:
// {ownerId}/{requestId}/{unixMillis}_{tag}.{ext}.
func BlobPath(ownerID, requestID, tag, filename string, at time.Time) string {
	ext := "bin"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	return fmt.Sprintf("%s/%s/%d_%s.%s", ownerID, requestID, at.UnixMilli(), tag, ext)
}

// ============================================================
// Messages exchanged on a request
// ============================================================

// Message is a chat entry on a request. Append-only; the read flag is
// mutated independently by the recipient side.
type Message struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	RequestKind string    `json:"request_type"`
	SenderID    string    `json:"sender_id"`
	SenderRole  string    `json:"sender_role"`
	Body        string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================
// Request / exchange payloads
// ============================================================

// SubmitCompanyRequest is the body for POST /v1/requests/company.
type SubmitCompanyRequest struct {
	Draft CompanyDraft `json:"draft" validate:"required"`
}

// SubmitCompanyResponse is returned after a wizard submission.
type SubmitCompanyResponse struct {
	RequestID      string `json:"requestId"`
	TrackingNumber string `json:"trackingNumber"`
	EstimatedPrice *int   `json:"estimatedPrice,omitempty"`
	QuoteRequired  bool   `json:"quoteRequired"`
	PaymentURL     string `json:"paymentUrl,omitempty"`
}

// SubmitServiceRequest is the body for POST /v1/requests/service.
type SubmitServiceRequest struct {
	ServiceType    string         `json:"serviceType" validate:"required"`
	CompanyName    string         `json:"companyName,omitempty"`
	ContactName    string         `json:"contactName" validate:"required"`
	Phone          string         `json:"phone" validate:"required"`
	Email          string         `json:"email" validate:"required,email"`
	ServiceDetails map[string]any `json:"serviceDetails,omitempty"`
}

// UpdateStatusRequest is the body for PATCH /v1/admin/requests/{kind}/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetQuoteRequest is the body for PATCH /v1/admin/requests/service/{id}/quote.
type SetQuoteRequest struct {
	Price int `json:"price" validate:"required,gt=0"`
}

// ReviewRequest is the body for POST /v1/requests/{kind}/{id}/review.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review,omitempty"`
}

// UploadDocumentRequest accompanies a document upload. The file bytes
// travel as multipart form data next to these fields.
type UploadDocumentRequest struct {
	DocumentType string `json:"documentType" validate:"required"`
	Description  string `json:"description,omitempty"`
}

// SendMessageRequest is the body for POST /v1/requests/{kind}/{id}/messages.
type SendMessageRequest struct {
	Body string `json:"message" validate:"required"`
}
