package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hotspot-pix-portal/internal/usecase"

	"github.com/rs/zerolog"
)

// RouterPinger is the slice of the provisioner the "test connection"
// action needs.
type RouterPinger interface {
	Ping(ctx context.Context) error
}

// Server is the admin API: plans CRUD, router/payment settings, and
// dashboard stats, all behind JWT auth.
type Server struct {
	planUC     usecase.PlanUseCase
	statsUC    usecase.StatsUseCase
	settingsUC usecase.SettingsUseCase
	pinger     RouterPinger
	auth       *AuthManager
	password   string
	log        *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	statsUC usecase.StatsUseCase,
	settingsUC usecase.SettingsUseCase,
	pinger RouterPinger,
	auth *AuthManager,
	password string,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		planUC:     planUC,
		statsUC:    statsUC,
		settingsUC: settingsUC,
		pinger:     pinger,
		auth:       auth,
		password:   password,
		log:        &webLog,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/api/login", s.handleLogin)
	mux.HandleFunc("/admin/api/logout", s.handleLogout)

	mux.Handle("/admin/api/stats", s.authMiddleware(statsHandler(s.statsUC)))

	plansRouter := s.authMiddleware(s.plansRouter())
	mux.Handle("/admin/api/plans", plansRouter)
	mux.Handle("/admin/api/plans/", plansRouter)

	mux.Handle("/admin/api/settings/router", s.authMiddleware(s.routerSettings()))
	mux.Handle("/admin/api/settings/router/test", s.authMiddleware(http.HandlerFunc(s.handleRouterTest)))
	mux.Handle("/admin/api/settings/payment", s.authMiddleware(s.paymentSettings()))
}

// authMiddleware requires a valid admin JWT (cookie or bearer).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.auth.cfg.HMACSecret) == 0 {
			s.log.Error().Msg("Admin JWT secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.password == "" || req.Password != s.password {
		s.log.Warn().Msg("admin login rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) plansRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/admin/api/plans")
		id = strings.Trim(id, "/")
		switch {
		case id == "" && r.Method == http.MethodGet:
			plansListHandler(s.planUC)(w, r)
		case id == "" && r.Method == http.MethodPost:
			plansCreateHandler(s.planUC)(w, r)
		case id != "" && r.Method == http.MethodPut:
			planUpdateHandler(s.planUC, id)(w, r)
		case id != "" && r.Method == http.MethodDelete:
			planDeleteHandler(s.planUC, id)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) routerSettings() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			routerSettingsGetHandler(s.settingsUC)(w, r)
		case http.MethodPut:
			routerSettingsPutHandler(s.settingsUC)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) paymentSettings() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			paymentSettingsGetHandler(s.settingsUC)(w, r)
		case http.MethodPut:
			paymentSettingsPutHandler(s.settingsUC)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) handleRouterTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.pinger == nil {
		http.Error(w, "Router not configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
