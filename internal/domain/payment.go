package domain

import "time"

// ============================================================
// Payments
// ============================================================

// Currency for all amounts. Prices are whole francs, there are no
// fractional FCFA amounts.
const Currency = "XOF"

// PaymentAttempt is one gateway transaction linked to a request. A request
// may accumulate several attempts; the most recent paid one is
// authoritative for the request's payment_status.
type PaymentAttempt struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"request_id"`
	RequestKind   string     `json:"request_type"`
	UserID        string     `json:"user_id"`
	Amount        int        `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"` // pending, paid, failed
	TransactionID string     `json:"transaction_id,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CheckoutRequest is what the payment gateway needs to open a checkout.
type CheckoutRequest struct {
	Amount        int    `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	RequestID     string `json:"request_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// Checkout is the gateway's answer: where to send the client.
type Checkout struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference,omitempty"`
	PaymentURL    string `json:"payment_url"`
}

// PaymentConfirmation is the body for POST /v1/payments/confirm, posted by
// the gateway (or the return page) once a transaction resolves. Status is
// advisory: the applied verdict comes from the gateway itself.
type PaymentConfirmation struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Status        string `json:"status" validate:"omitempty,oneof=pending paid failed"`
}
