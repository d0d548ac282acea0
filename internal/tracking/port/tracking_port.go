// Package port — tracking_port.go définit l'interface du stockage des
// compteurs de tentatives du suivi public.
//
// Le service de suivi dépend de cette interface et non du client
// Supabase concret, ce qui permet de le tester avec un store en mémoire.
package port

import (
	"context"

	trackingdomain "github.com/legalform-ci/legalform-api/internal/tracking/domain"
)

// RateLimitStore persiste les compteurs de tentatives par (téléphone, IP).
type RateLimitStore interface {
	// GetRateLimit renvoie nil (sans erreur) si aucun compteur n'existe.
	GetRateLimit(ctx context.Context, phone, ip string) (*trackingdomain.RateLimitEntry, error)
	// RecordAttempt incrémente le compteur du couple côté stockage, en une
	// seule opération atomique : une ligne unique par (téléphone, IP),
	// fenêtre expirée remise à 1, blocage posé au seuil. Renvoie l'état
	// après incrément.
	RecordAttempt(ctx context.Context, phone, ip string, limits trackingdomain.Limits) (*trackingdomain.RateLimitEntry, error)
	ClearRateLimit(ctx context.Context, phone, ip string) error
}
