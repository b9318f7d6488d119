//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotspot-pix-portal/internal/domain/ports/adapter"
)

func TestMercadoPagoGateway_IssueCharge(t *testing.T) {
	t.Run("posts a pix payment and returns the charge", func(t *testing.T) {
		// Arrange
		var gotReq mpPaymentRequest
		var gotAuth, gotIdem string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/v1/payments" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			gotIdem = r.Header.Get("X-Idempotency-Key")
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{
				"id": 987654321,
				"status": "pending",
				"point_of_interaction": {"transaction_data": {"qr_code": "00020126pix-copy-paste"}}
			}`))
		}))
		defer srv.Close()
		g, err := NewMercadoPagoGateway("tok-123", "payer@example.com")
		if err != nil {
			t.Fatalf("NewMercadoPagoGateway: %v", err)
		}
		g.SetBaseURL(srv.URL)

		// Act
		charge, err := g.IssueCharge(context.Background(), 300, "Acesso Wi-Fi 1 hora")

		// Assert
		if err != nil {
			t.Fatalf("IssueCharge: %v", err)
		}
		if charge.ID != "987654321" {
			t.Errorf("expected charge id 987654321, got %q", charge.ID)
		}
		if charge.QRPayload != "00020126pix-copy-paste" {
			t.Errorf("unexpected QR payload %q", charge.QRPayload)
		}
		if gotReq.TransactionAmount != 3.00 {
			t.Errorf("expected amount 3.00 BRL, got %v", gotReq.TransactionAmount)
		}
		if gotReq.PaymentMethodID != "pix" {
			t.Errorf("expected pix method, got %q", gotReq.PaymentMethodID)
		}
		if gotReq.Payer.Email != "payer@example.com" {
			t.Errorf("unexpected payer %q", gotReq.Payer.Email)
		}
		if gotAuth != "Bearer tok-123" {
			t.Errorf("unexpected authorization %q", gotAuth)
		}
		if gotIdem == "" {
			t.Error("idempotency key missing")
		}
	})

	t.Run("provider error surfaces as failure", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		g, _ := NewMercadoPagoGateway("tok", "")
		g.SetBaseURL(srv.URL)

		// Act
		_, err := g.IssueCharge(context.Background(), 200, "x")

		// Assert
		if err == nil {
			t.Fatal("expected error on provider 500")
		}
	})

	t.Run("response without qr_code is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 1, "status": "pending"}`))
		}))
		defer srv.Close()
		g, _ := NewMercadoPagoGateway("tok", "")
		g.SetBaseURL(srv.URL)

		if _, err := g.IssueCharge(context.Background(), 200, "x"); err == nil {
			t.Fatal("expected error when qr_code is missing")
		}
	})

	t.Run("empty access token is refused at construction", func(t *testing.T) {
		if _, err := NewMercadoPagoGateway("", "x"); err == nil {
			t.Fatal("expected constructor error")
		}
	})
}

func TestMercadoPagoGateway_LookupCharge(t *testing.T) {
	cases := []struct {
		providerStatus string
		want           adapter.ChargeOutcome
	}{
		{"approved", adapter.ChargeOutcomeSuccess},
		{"rejected", adapter.ChargeOutcomeFailure},
		{"cancelled", adapter.ChargeOutcomeFailure},
		{"refunded", adapter.ChargeOutcomeFailure},
		{"charged_back", adapter.ChargeOutcomeFailure},
		{"pending", adapter.ChargeOutcomePending},
		{"in_process", adapter.ChargeOutcomePending},
	}
	for _, tc := range cases {
		t.Run(tc.providerStatus, func(t *testing.T) {
			// Arrange
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/payments/42" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"id": 42, "status": "` + tc.providerStatus + `"}`))
			}))
			defer srv.Close()
			g, _ := NewMercadoPagoGateway("tok", "")
			g.SetBaseURL(srv.URL)

			// Act
			outcome, err := g.LookupCharge(context.Background(), "42")

			// Assert
			if err != nil {
				t.Fatalf("LookupCharge: %v", err)
			}
			if outcome != tc.want {
				t.Errorf("status %q: expected %q, got %q", tc.providerStatus, tc.want, outcome)
			}
		})
	}

	t.Run("unknown payment id errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()
		g, _ := NewMercadoPagoGateway("tok", "")
		g.SetBaseURL(srv.URL)

		if _, err := g.LookupCharge(context.Background(), "missing"); err == nil {
			t.Fatal("expected error on 404")
		}
	})
}
