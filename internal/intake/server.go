package intake

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

// Server exposes the intake pipeline over HTTP.
type Server struct {
	svc     *Service
	limiter *rate.Limiter
}

// NewServer builds the HTTP layer around a Service.
func NewServer(svc *Service, cfg config.ServerConfig) *Server {
	return &Server{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}
}

// Router returns the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimit).Post("/prices", s.handleSubmit)
		r.Get("/prices/{id}", s.handleGetSubmission)
		r.Get("/users/{userID}/trust", s.handleTrust)
		r.Post("/sweep", s.handleSweep)
	})
	return r
}

// rateLimit sheds submission load once the global token bucket drains.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Çok fazla istek, lütfen bekleyiniz")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub model.PriceSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "Geçersiz istek gövdesi")
		return
	}

	result, err := s.svc.Submit(r.Context(), &sub)
	if err != nil {
		zap.L().Error("submit failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Sunucu hatası")
		return
	}
	if !result.Validation.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := s.svc.Submission(r.Context(), id)
	if err != nil {
		zap.L().Error("get submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Sunucu hatası")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "Kayıt bulunamadı")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleTrust(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	report, err := s.svc.Trust(r.Context(), userID)
	if err != nil {
		zap.L().Error("trust report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Sunucu hatası")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	promoted, err := s.svc.Sweep(r.Context())
	if err != nil {
		zap.L().Error("sweep failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Sunucu hatası")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"promoted": promoted})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
