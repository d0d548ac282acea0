// Package domain — tracking.go définit les types de la route publique
// POST /v1/tracking/lookup.
//
// Cette route est le point d'entrée du suivi de dossier sans compte.
// Le client fournit son numéro de téléphone et son numéro de suivi ;
// en retour il obtient une projection restreinte du dossier.
//
// Le flux complet :
//  1. Le visiteur saisit téléphone + numéro de suivi
//  2. L'API vérifie le compteur de tentatives pour (téléphone, IP)
//  3. Le dossier est recherché par numéro de suivi (création puis service)
//  4. Le téléphone du dossier doit correspondre à celui fourni
//  5. Toute non-correspondance renvoie la même réponse "dossier introuvable"
package domain

import "time"

// LookupRequest est le corps envoyé par le visiteur.
type LookupRequest struct {
	Phone          string `json:"phone" validate:"required"`
	TrackingNumber string `json:"trackingNumber" validate:"required"`
}

// LookupResult est la projection restreinte renvoyée au visiteur.
// Volontairement limitée : pas d'identifiants internes, pas de
// coordonnées, pas de montants, pas de détails des associés.
type LookupResult struct {
	TrackingNumber string     `json:"trackingNumber"`
	Kind           string     `json:"kind"` // company ou service
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"paymentStatus"`
	Label          string     `json:"label"` // nom de société ou type de service
	SubmittedAt    time.Time  `json:"submittedAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
}

// Limits regroupe les seuils du limiteur de tentatives, injectés depuis
// la configuration.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
	Cooldown    time.Duration
}

// RateLimitEntry est la ligne de comptage par couple (téléphone, IP).
// Le compteur se réinitialise quand la fenêtre expire ; au-delà du seuil
// le couple est bloqué jusqu'à blocked_until.
type RateLimitEntry struct {
	ID             string     `json:"id"`
	Phone          string     `json:"phone"`
	IPAddress      string     `json:"ip_address"`
	AttemptCount   int        `json:"attempt_count"`
	FirstAttemptAt time.Time  `json:"first_attempt_at"`
	LastAttemptAt  time.Time  `json:"last_attempt_at"`
	BlockedUntil   *time.Time `json:"blocked_until,omitempty"`
}
