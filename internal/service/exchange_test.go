package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/legalform-ci/legalform-api/internal/domain"

	"go.uber.org/zap"
)

// fakeExchangeStore is an in-memory ExchangeStore.
type fakeExchangeStore struct {
	documents []domain.Document
	messages  []domain.Message
	docErr    error
}

func (f *fakeExchangeStore) CreateDocument(_ context.Context, doc *domain.Document) (*domain.Document, error) {
	if f.docErr != nil {
		return nil, f.docErr
	}
	cp := *doc
	cp.ID = fmt.Sprintf("doc-%d", len(f.documents)+1)
	f.documents = append(f.documents, cp)
	return &cp, nil
}

func (f *fakeExchangeStore) ListDocuments(_ context.Context, requestID, requestKind string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range f.documents {
		if d.RequestID == requestID && d.RequestKind == requestKind {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeExchangeStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for _, d := range f.documents {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "document", ID: id}
}

func (f *fakeExchangeStore) CreateMessage(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	cp := *msg
	cp.ID = fmt.Sprintf("msg-%d", len(f.messages)+1)
	f.messages = append(f.messages, cp)
	return &cp, nil
}

func (f *fakeExchangeStore) ListMessages(_ context.Context, requestID, requestKind string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.RequestID == requestID && m.RequestKind == requestKind {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeExchangeStore) MarkMessagesRead(_ context.Context, requestID, requestKind, readerRole string) error {
	for i := range f.messages {
		m := &f.messages[i]
		if m.RequestID == requestID && m.RequestKind == requestKind && m.SenderRole != readerRole {
			m.IsRead = true
		}
	}
	return nil
}

// fakeBlobStore records uploads without storing bytes.
type fakeBlobStore struct {
	uploads []string
}

func (f *fakeBlobStore) Upload(_ context.Context, _, path string, _ []byte, _ string) (string, error) {
	f.uploads = append(f.uploads, path)
	return path, nil
}

func (f *fakeBlobStore) Download(_ context.Context, _, _ string) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeBlobStore) PublicURL(bucket, path string) string {
	return "https://storage.example/" + bucket + "/" + path
}

func (f *fakeBlobStore) Delete(_ context.Context, _ string, _ []string) error { return nil }

func newExchangeFixture(t *testing.T) (*ExchangeService, *fakeExchangeStore, *fakeBlobStore, string) {
	t.Helper()

	requests := newFakeRequestStore()
	req, err := requests.CreateCompanyRequest(context.Background(), &domain.CompanyRequest{
		RequestCommon: domain.RequestCommon{
			UserID: "user-1",
			Status: domain.StatusInProgress,
		},
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	store := &fakeExchangeStore{}
	blobs := &fakeBlobStore{}
	svc := NewExchangeService(store, requests, blobs, "company-documents", zap.NewNop())
	return svc, store, blobs, req.ID
}

func TestUploadDocument(t *testing.T) {
	svc, store, blobs, requestID := newExchangeFixture(t)

	doc, err := svc.UploadDocument(context.Background(), clientSession, requestID, domain.KindCompany,
		"cni.PDF", []byte("contenu"), "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "cni_recto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.UploadedByRole != domain.RoleClient {
		t.Errorf("expected uploader role client, got %s", doc.UploadedByRole)
	}
	if len(blobs.uploads) != 1 {
		t.Fatalf("expected 1 blob upload, got %d", len(blobs.uploads))
	}

	// Path shape: {ownerId}/{requestId}/{unixMillis}_{tag}.{ext}
	path := blobs.uploads[0]
	if !strings.HasPrefix(path, "user-1/"+requestID+"/") {
		t.Errorf("unexpected path prefix: %s", path)
	}
	if !strings.HasSuffix(path, "_cni_recto.pdf") {
		t.Errorf("expected tag and lowered extension in %s", path)
	}
	if len(store.documents) != 1 {
		t.Errorf("expected 1 document row, got %d", len(store.documents))
	}
}

func TestUploadDocument_RejectsUnknownType(t *testing.T) {
	svc, _, blobs, requestID := newExchangeFixture(t)

	_, err := svc.UploadDocument(context.Background(), clientSession, requestID, domain.KindCompany,
		"x.pdf", []byte("contenu"), "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "selfie"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(blobs.uploads) != 0 {
		t.Error("nothing must reach storage for an invalid type")
	}
}

func TestUploadDocument_RejectsEmptyAndOversized(t *testing.T) {
	svc, _, _, requestID := newExchangeFixture(t)

	_, err := svc.UploadDocument(context.Background(), clientSession, requestID, domain.KindCompany,
		"x.pdf", nil, "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "statuts"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("empty file: expected validation error, got %v", err)
	}

	big := make([]byte, maxDocumentSize+1)
	_, err = svc.UploadDocument(context.Background(), clientSession, requestID, domain.KindCompany,
		"x.pdf", big, "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "statuts"})
	if !errors.As(err, &verr) {
		t.Fatalf("oversized file: expected validation error, got %v", err)
	}
}

func TestUploadDocument_StrangerGetsGenericNotFound(t *testing.T) {
	svc, _, _, requestID := newExchangeFixture(t)

	stranger := domain.Session{UserID: "user-2", Role: domain.RoleClient}
	_, err := svc.UploadDocument(context.Background(), stranger, requestID, domain.KindCompany,
		"x.pdf", []byte("contenu"), "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "statuts"})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found for a stranger, got %v", err)
	}
}

func TestDocumentURL(t *testing.T) {
	svc, _, _, requestID := newExchangeFixture(t)

	doc, err := svc.UploadDocument(context.Background(), clientSession, requestID, domain.KindCompany,
		"bail.pdf", []byte("contenu"), "application/pdf",
		&domain.UploadDocumentRequest{DocumentType: "contrat_bail"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	url, err := svc.DocumentURL(context.Background(), clientSession, doc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "company-documents") || !strings.Contains(url, doc.FilePath) {
		t.Errorf("unexpected URL: %s", url)
	}
}

func TestSendAndListMessages(t *testing.T) {
	svc, store, _, requestID := newExchangeFixture(t)

	if _, err := svc.SendMessage(context.Background(), adminSession, requestID, domain.KindCompany, "Votre dossier avance"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), clientSession, requestID, domain.KindCompany)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	// Listing as the client flags the admin's message as read.
	if !store.messages[0].IsRead {
		t.Error("expected the admin message marked read after the client listed")
	}
}

func TestSendMessage_RejectsEmptyBody(t *testing.T) {
	svc, _, _, requestID := newExchangeFixture(t)

	_, err := svc.SendMessage(context.Background(), clientSession, requestID, domain.KindCompany, "")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
