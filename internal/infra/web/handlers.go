package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/usecase"
)

// A struct to define the expected JSON request body for creating or
// replacing a plan.
type planRequest struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func plansCreateHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		plan, err := planUC.Create(r.Context(), req.ID, req.Label, req.DurationMinutes, req.PriceCents)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrAlreadyExists):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "Failed to create plan", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

func plansListHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := planUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		response := struct {
			Data []*model.AccessPlan `json:"data"`
		}{Data: plans}
		writeJSON(w, http.StatusOK, response)
	}
}

func planUpdateHandler(planUC usecase.PlanUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		plan, err := planUC.Update(r.Context(), id, req.Label, req.DurationMinutes, req.PriceCents)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Plan not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "Failed to update plan", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

func planDeleteHandler(planUC usecase.PlanUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := planUC.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Plan not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, revenue, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}
		response := struct {
			Sessions     map[model.SessionStatus]int `json:"sessions"`
			RevenueCents int64                       `json:"revenue_cents"`
		}{
			Sessions:     counts,
			RevenueCents: revenue,
		}
		writeJSON(w, http.StatusOK, response)
	}
}

type routerSettingsRequest struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func routerSettingsGetHandler(settingsUC usecase.SettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := settingsUC.Router(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeJSON(w, http.StatusOK, &model.RouterSettings{})
				return
			}
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}
		// Never echo the router password back.
		s.Password = ""
		writeJSON(w, http.StatusOK, s)
	}
}

func routerSettingsPutHandler(settingsUC usecase.SettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req routerSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := settingsUC.UpdateRouter(r.Context(), &model.RouterSettings{
			Address:  req.Address,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type paymentSettingsRequest struct {
	PixKey        string `json:"pix_key"`
	WebhookSecret string `json:"webhook_secret"`
}

func paymentSettingsGetHandler(settingsUC usecase.SettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := settingsUC.Payment(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeJSON(w, http.StatusOK, &model.PaymentSettings{})
				return
			}
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}
		s.WebhookSecret = ""
		writeJSON(w, http.StatusOK, s)
	}
}

func paymentSettingsPutHandler(settingsUC usecase.SettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := settingsUC.UpdatePayment(r.Context(), &model.PaymentSettings{
			PixKey:        req.PixKey,
			WebhookSecret: req.WebhookSecret,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
