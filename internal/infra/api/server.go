package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/adapter"
	"hotspot-pix-portal/internal/domain/ports/repository"
	"hotspot-pix-portal/internal/infra/adapters/payment"
	"hotspot-pix-portal/internal/infra/logging"
	"hotspot-pix-portal/internal/infra/metrics"
	"hotspot-pix-portal/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"
)

// Server exposes the customer-facing portal API plus the payment
// provider's webhook endpoint.
type Server struct {
	sessionUC     usecase.SessionUseCase
	planUC        usecase.PlanUseCase
	sessions      repository.SessionStore
	gateway       adapter.PaymentGateway
	webhookSecret string
	webhookPath   string
	log           *zerolog.Logger
}

func NewServer(sessionUC usecase.SessionUseCase, planUC usecase.PlanUseCase, sessions repository.SessionStore, gateway adapter.PaymentGateway, webhookSecret, webhookPath string, logger *zerolog.Logger) *Server {
	if webhookPath == "" {
		webhookPath = "/webhook/payments"
	}
	apiLog := logger.With().Str("component", "PortalAPI").Logger()
	return &Server{
		sessionUC:     sessionUC,
		planUC:        planUC,
		sessions:      sessions,
		gateway:       gateway,
		webhookSecret: webhookSecret,
		webhookPath:   webhookPath,
		log:           &apiLog,
	}
}

// Router assembles the chi router with the guard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(TraceID(s.log))
	r.Use(RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetStatus)
		r.Get("/sessions/{id}/qr.png", s.handleQRImage)
	})

	r.Post(s.webhookPath, s.handleWebhook)
	return r
}

type planResponse struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list plans", http.StatusInternalServerError)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			ID:              p.ID,
			Label:           p.Label,
			DurationMinutes: p.DurationMinutes,
			PriceCents:      p.PriceCents,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []planResponse `json:"data"`
	}{Data: out})
}

type createSessionRequest struct {
	PlanID string `json:"plan_id"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	QRPayload string    `json:"qr_payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := s.sessionUC.CreateSession(r.Context(), req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlanNotFound):
			http.Error(w, "plan not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrGatewayUnavailable):
			http.Error(w, "payment gateway unavailable", http.StatusBadGateway)
		default:
			http.Error(w, "failed to create session", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		QRPayload: sess.QRPayload,
		ExpiresAt: sess.ExpiresAt,
	})
}

type statusResponse struct {
	Status               model.SessionStatus `json:"status"`
	TimeRemainingSeconds int                 `json:"time_remaining_seconds"`
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, remaining, err := s.sessionUC.GetStatus(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:               status,
		TimeRemainingSeconds: int(remaining.Seconds()),
	})
}

func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.FindByID(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	png, err := qrcode.Encode(sess.QRPayload, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to render qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// webhookPayload is the Mercado Pago notification body; only the payment
// id matters, the outcome is looked up at the provider.
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var body webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		metrics.IncNotification("invalid")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	chargeID := body.Data.ID.String()
	if body.Type != "payment" || chargeID == "" {
		// Other event types are acknowledged and dropped.
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.webhookSecret != "" {
		sig := r.Header.Get("x-signature")
		reqID := r.Header.Get("x-request-id")
		if !payment.VerifyWebhookSignature(s.webhookSecret, sig, reqID, chargeID) {
			metrics.IncNotification("invalid")
			s.log.Warn().Str("charge_id", chargeID).Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	ctx := logging.WithChargeID(r.Context(), chargeID)
	outcome, err := s.gateway.LookupCharge(ctx, chargeID)
	if err != nil {
		s.log.Warn().Err(err).Str("charge_id", chargeID).Msg("charge lookup failed")
		// Let the provider redeliver; the charge reconciler also covers this.
		http.Error(w, "lookup failed", http.StatusBadGateway)
		return
	}

	// Always ack once the charge is resolved: provisioning problems are
	// the manager's to retry and alert on, not the provider's.
	if err := s.sessionUC.HandleNotification(ctx, chargeID, outcome); err != nil {
		if !errors.Is(err, domain.ErrUnknownCharge) {
			s.log.Error().Err(err).Str("charge_id", chargeID).Msg("notification handling failed")
		}
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
