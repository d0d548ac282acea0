// Package handler — tracking_handler.go implémente la route publique
// POST /v1/tracking/lookup, le suivi de dossier sans compte.
//
// La route est volontairement en POST : le téléphone et le numéro de
// suivi voyagent dans le corps, jamais dans l'URL (logs d'accès,
// historiques de proxy).
//
// Request:
//
//	Content-Type: application/json
//	Body: {"phone": "+2250701020304", "trackingNumber": "LF-2026-428713"}
//
// Response (200 OK): la projection restreinte du dossier.
// Response (404): réponse générique, identique que le numéro n'existe
// pas ou que le téléphone ne corresponde pas.
// Response (429): couple (téléphone, IP) bloqué, avec l'en-tête
// Retry-After en secondes.
package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	maindomain "github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/tracking/domain"
	"github.com/legalform-ci/legalform-api/internal/tracking/service"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("tracking/handler")

// LookupHandler retourne le http.HandlerFunc de POST /v1/tracking/lookup.
// Le handler reste fin : décodage, extraction de l'IP, délégation.
func LookupHandler(svc *service.TrackingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tracking/lookup")
		defer span.End()

		var req domain.LookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "corps invalide: {\"phone\": \"...\", \"trackingNumber\": \"...\"} attendu")
			return
		}
		if req.Phone == "" || req.TrackingNumber == "" {
			writeError(w, http.StatusBadRequest, "phone et trackingNumber sont requis")
			return
		}

		result, err := svc.Lookup(ctx, &req, clientIP(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// clientIP extrait l'adresse du client. Le middleware RealIP a déjà
// remplacé RemoteAddr par l'adresse d'origine derrière un proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mappe les erreurs de domaine vers les codes HTTP.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *maindomain.ErrRateLimited:
		seconds := int(e.RetryAfter.Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, "trop de tentatives, réessayez plus tard")
	case *maindomain.ErrNotFound:
		// Message générique : ne révèle jamais la cause exacte.
		writeError(w, http.StatusNotFound, "dossier introuvable")
	case *maindomain.ErrValidation:
		writeError(w, http.StatusUnprocessableEntity, e.Error())
	default:
		logger.Error("unexpected error in tracking handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
