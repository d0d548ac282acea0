// Package payment provides the client for the hosted payment gateway
// (FedaPay). Checkout happens off-site: we create a transaction, ask for
// its payment token and redirect the customer to the hosted page.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("payment")

// GatewayClient calls the FedaPay transactions API.
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	returnURL  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewGatewayClient creates a new GatewayClient.
func NewGatewayClient(httpClient *http.Client, baseURL, apiKey, returnURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *GatewayClient {
	return &GatewayClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		returnURL:  returnURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// gatewayTransaction mirrors the transaction shape of the FedaPay API.
type gatewayTransaction struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Amount      int    `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type createTransactionResponse struct {
	V1Transaction gatewayTransaction `json:"v1/transaction"`
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Initiate creates a gateway transaction and returns the hosted checkout
// URL. Two sequential calls: create the transaction, then request its
// payment token.
func (g *GatewayClient) Initiate(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Initiate")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.Int("amount", req.Amount),
	)

	var checkout domain.Checkout

	result, err := g.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, g.cfg, func() error {
			tx, err := g.createTransaction(ctx, req)
			if err != nil {
				return err
			}

			tok, err := g.createToken(ctx, tx.ID)
			if err != nil {
				return err
			}

			checkout = domain.Checkout{
				TransactionID: fmt.Sprintf("%d", tx.ID),
				Reference:     tx.Reference,
				PaymentURL:    tok.URL,
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &checkout, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "payment-gateway", Err: err}
	}

	return result.(*domain.Checkout), nil
}

// VerifyTransaction reads the transaction back from FedaPay and maps its
// state to a domain payment status.
func (g *GatewayClient) VerifyTransaction(ctx context.Context, transactionID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Gateway.VerifyTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", transactionID))

	result, err := g.cb.Execute(func() (any, error) {
		var status string
		innerErr := resilience.RetryWithBackoff(ctx, g.cfg, func() error {
			tx, err := g.getTransaction(ctx, transactionID)
			if err != nil {
				return err
			}
			status = mapGatewayStatus(tx.Status)
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return status, nil
	})

	if err != nil {
		return "", &domain.ErrExternalService{Service: "payment-gateway", Err: err}
	}

	return result.(string), nil
}

// mapGatewayStatus translates FedaPay transaction states into the three
// payment statuses the rest of the system knows.
func mapGatewayStatus(status string) string {
	switch status {
	case "approved", "transferred":
		return domain.PaymentPaid
	case "declined", "canceled", "expired", "refunded":
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

func (g *GatewayClient) createTransaction(ctx context.Context, req *domain.CheckoutRequest) (*gatewayTransaction, error) {
	payload := map[string]any{
		"description":  req.Description,
		"amount":       req.Amount,
		"currency":     map[string]string{"iso": req.Currency},
		"callback_url": g.returnURL,
		"custom_metadata": map[string]string{
			"request_id": req.RequestID,
		},
		"customer": map[string]any{
			"firstname":    req.CustomerName,
			"email":        req.CustomerEmail,
			"phone_number": map[string]string{"number": req.CustomerPhone, "country": "ci"},
		},
	}

	var out createTransactionResponse
	if err := g.doPost(ctx, "/v1/transactions", payload, &out); err != nil {
		return nil, err
	}
	return &out.V1Transaction, nil
}

func (g *GatewayClient) createToken(ctx context.Context, transactionID int64) (*tokenResponse, error) {
	var out tokenResponse
	path := fmt.Sprintf("/v1/transactions/%d/token", transactionID)
	if err := g.doPost(ctx, path, map[string]any{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GatewayClient) getTransaction(ctx context.Context, transactionID string) (*gatewayTransaction, error) {
	var out createTransactionResponse
	path := fmt.Sprintf("/v1/transactions/%s", transactionID)
	if err := g.doGet(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out.V1Transaction, nil
}

func (g *GatewayClient) doGet(ctx context.Context, path string, out any) error {
	url := g.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *GatewayClient) doPost(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := g.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
