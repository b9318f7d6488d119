package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hotspot-pix-portal/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements adapter.PaymentGateway against the
// Mercado Pago payments REST API using the PIX payment method.
type MercadoPagoGateway struct {
	accessToken string
	payerEmail  string
	baseURL     string
	client      *http.Client
}

func NewMercadoPagoGateway(accessToken, payerEmail string) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.New("access token empty")
	}
	if payerEmail == "" {
		payerEmail = "comprador@hotspot.local"
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		payerEmail:  payerEmail,
		baseURL:     "https://api.mercadopago.com",
		client:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SetBaseURL overrides the API endpoint, used by tests.
func (g *MercadoPagoGateway) SetBaseURL(u string) { g.baseURL = u }

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

type mpPaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

type mpPaymentResponse struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode string `json:"qr_code"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (g *MercadoPagoGateway) IssueCharge(ctx context.Context, amountCents int64, description string) (adapter.Charge, error) {
	reqBody := mpPaymentRequest{
		// Mercado Pago takes the amount in BRL with two decimals.
		TransactionAmount: float64(amountCents) / 100,
		Description:       description,
		PaymentMethodID:   "pix",
	}
	reqBody.Payer.Email = g.payerEmail

	b, err := json.Marshal(reqBody)
	if err != nil {
		return adapter.Charge{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments", bytes.NewReader(b))
	if err != nil {
		return adapter.Charge{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	// Provider-side dedupe: one charge per call even if the request is retried.
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.Charge{}, fmt.Errorf("mercadopago request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return adapter.Charge{}, fmt.Errorf("mercadopago create payment: status %d", resp.StatusCode)
	}

	var out mpPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Charge{}, fmt.Errorf("mercadopago decode: %w", err)
	}
	if out.ID == 0 || out.PointOfInteraction.TransactionData.QRCode == "" {
		return adapter.Charge{}, errors.New("mercadopago: response missing id or qr_code")
	}
	return adapter.Charge{
		ID:        strconv.FormatInt(out.ID, 10),
		QRPayload: out.PointOfInteraction.TransactionData.QRCode,
	}, nil
}

func (g *MercadoPagoGateway) LookupCharge(ctx context.Context, chargeID string) (adapter.ChargeOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+chargeID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mercadopago lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("mercadopago: payment %s not found", chargeID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mercadopago lookup: status %d", resp.StatusCode)
	}

	var out mpPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("mercadopago decode: %w", err)
	}
	switch out.Status {
	case "approved":
		return adapter.ChargeOutcomeSuccess, nil
	case "rejected", "cancelled", "refunded", "charged_back":
		return adapter.ChargeOutcomeFailure, nil
	default:
		// pending, in_process, authorized
		return adapter.ChargeOutcomePending, nil
	}
}
