// Package service implémente le suivi public de dossier.
//
// La règle anti-énumération : téléphone inconnu, numéro de suivi inconnu
// ou couple incohérent produisent exactement la même réponse. Chaque
// échec incrémente le compteur (téléphone, IP) ; une réussite l'efface.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/port"
	trackingdomain "github.com/legalform-ci/legalform-api/internal/tracking/domain"
	trackingport "github.com/legalform-ci/legalform-api/internal/tracking/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("tracking/service")

// TrackingService répond aux consultations publiques de dossier.
type TrackingService struct {
	requests port.RequestStore
	limiter  trackingport.RateLimitStore
	limits   trackingdomain.Limits
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTrackingService crée le service de suivi public.
func NewTrackingService(requests port.RequestStore, limiter trackingport.RateLimitStore, limits trackingdomain.Limits, metrics *observability.Metrics, logger *zap.Logger) *TrackingService {
	return &TrackingService{
		requests: requests,
		limiter:  limiter,
		limits:   limits,
		metrics:  metrics,
		logger:   logger,
	}
}

// Lookup traite une consultation. ip est l'adresse du client telle que
// vue par le serveur (après RealIP).
func (s *TrackingService) Lookup(ctx context.Context, req *trackingdomain.LookupRequest, ip string) (*trackingdomain.LookupResult, error) {
	ctx, span := tracer.Start(ctx, "TrackingService.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("tracking.number", req.TrackingNumber))

	phone := domain.NormalizePhone(req.Phone)
	now := time.Now().UTC()

	entry, err := s.limiter.GetRateLimit(ctx, phone, ip)
	if err != nil {
		// Limiteur indisponible : on laisse passer plutôt que de bloquer
		// tout le suivi public.
		s.logger.Warn("limiteur indisponible, consultation autorisée",
			zap.Error(err),
		)
		s.metrics.IncrExternalError("supabase/public_tracking_rate_limit")
		entry = nil
	}
	if entry != nil && entry.BlockedUntil != nil && entry.BlockedUntil.After(now) {
		s.metrics.IncrTrackingLookup("rate_limited")
		return nil, &domain.ErrRateLimited{RetryAfter: entry.BlockedUntil.Sub(now)}
	}

	result := s.find(ctx, phone, req.TrackingNumber)
	if result == nil {
		s.recordFailure(ctx, phone, ip)
		s.metrics.IncrTrackingLookup("not_found")
		// Réponse générique, identique pour toutes les causes d'échec.
		return nil, &domain.ErrNotFound{Resource: "request", ID: req.TrackingNumber}
	}

	if entry != nil {
		if err := s.limiter.ClearRateLimit(ctx, phone, ip); err != nil {
			s.logger.Warn("échec de remise à zéro du compteur",
				zap.Error(err),
			)
		}
	}

	s.metrics.IncrTrackingLookup("found")
	return result, nil
}

// find cherche le dossier dans les deux tables et vérifie le téléphone.
// Retourne nil pour toute cause d'échec, sans la distinguer.
func (s *TrackingService) find(ctx context.Context, phone, trackingNumber string) *trackingdomain.LookupResult {
	var notFound *domain.ErrNotFound

	company, err := s.requests.GetCompanyRequestByTracking(ctx, trackingNumber)
	if err == nil {
		if !domain.SamePhone(company.Phone, phone) {
			return nil
		}
		return projectResult(company.Common(), domain.KindCompany, company.CompanyName)
	}
	if !errors.As(err, &notFound) {
		s.logger.Error("recherche de dossier création en échec", zap.Error(err))
		return nil
	}

	service, err := s.requests.GetServiceRequestByTracking(ctx, trackingNumber)
	if err == nil {
		if !domain.SamePhone(service.Phone, phone) {
			return nil
		}
		return projectResult(service.Common(), domain.KindService, service.ServiceType)
	}
	if !errors.As(err, &notFound) {
		s.logger.Error("recherche de dossier service en échec", zap.Error(err))
	}
	return nil
}

// recordFailure fait incrémenter le compteur du couple (téléphone, IP)
// par le stockage, qui applique seuil et fenêtre en une seule opération.
func (s *TrackingService) recordFailure(ctx context.Context, phone, ip string) {
	entry, err := s.limiter.RecordAttempt(ctx, phone, ip, s.limits)
	if err != nil {
		s.logger.Warn("échec d'écriture du compteur de tentatives",
			zap.Error(err),
		)
		return
	}
	if entry.BlockedUntil != nil {
		s.logger.Warn("couple téléphone/IP bloqué",
			zap.String("ip", ip),
			zap.Int("attempts", entry.AttemptCount),
			zap.Time("blocked_until", *entry.BlockedUntil),
		)
	}
}

func projectResult(common *domain.RequestCommon, kind, label string) *trackingdomain.LookupResult {
	return &trackingdomain.LookupResult{
		TrackingNumber: common.TrackingNumber,
		Kind:           kind,
		Status:         common.Status,
		PaymentStatus:  common.PaymentStatus,
		Label:          label,
		SubmittedAt:    common.CreatedAt,
		UpdatedAt:      common.UpdatedAt,
		ClosedAt:       common.ClosedAt,
	}
}
