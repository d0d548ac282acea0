package handler

import (
	"io"
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Documents
// ============================================================

// uploadDocumentHandler accepts multipart form data: a "file" part plus
// "documentType" and optional "description" fields.
func uploadDocumentHandler(exchSvc *service.ExchangeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/{kind}/{requestId}/documents")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}
		requestID := chi.URLParam(r, "requestId")
		span.SetAttributes(attribute.String("request.id", requestID))

		if err := r.ParseMultipartForm(12 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "expected multipart form data")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file part is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file")
			return
		}

		req := &domain.UploadDocumentRequest{
			DocumentType: r.FormValue("documentType"),
			Description:  r.FormValue("description"),
		}
		if req.DocumentType == "" {
			writeError(w, http.StatusBadRequest, "documentType is required")
			return
		}

		session := SessionFromContext(ctx)
		doc, err := exchSvc.UploadDocument(ctx, session, requestID, kind,
			header.Filename, data, header.Header.Get("Content-Type"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, doc)
	}
}

func listDocumentsHandler(exchSvc *service.ExchangeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/{kind}/{requestId}/documents")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		session := SessionFromContext(ctx)
		docs, err := exchSvc.ListDocuments(ctx, session, chi.URLParam(r, "requestId"), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	}
}

func documentURLHandler(exchSvc *service.ExchangeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/documents/{documentId}/url")
		defer span.End()

		session := SessionFromContext(ctx)
		url, err := exchSvc.DocumentURL(ctx, session, chi.URLParam(r, "documentId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

// ============================================================
// Messages
// ============================================================

func sendMessageHandler(exchSvc *service.ExchangeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/requests/{kind}/{requestId}/messages")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		var req domain.SendMessageRequest
		if !decodeBody(w, r, &req) {
			return
		}

		session := SessionFromContext(ctx)
		msg, err := exchSvc.SendMessage(ctx, session, chi.URLParam(r, "requestId"), kind, req.Body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

func listMessagesHandler(exchSvc *service.ExchangeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/requests/{kind}/{requestId}/messages")
		defer span.End()

		kind, ok := requestKind(chi.URLParam(r, "kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "kind must be company or service")
			return
		}

		session := SessionFromContext(ctx)
		msgs, err := exchSvc.ListMessages(ctx, session, chi.URLParam(r, "requestId"), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	}
}
