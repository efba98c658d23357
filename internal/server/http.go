package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rajuthattil19-prog/datacol/internal/delivery"
	"github.com/rajuthattil19-prog/datacol/internal/query"
)

// MaxWebhookBody is the largest webhook payload accepted.
const MaxWebhookBody = 1 << 20

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleLiveness)
	r.Head("/", s.handleLiveness)
	r.Get("/health", s.handleLiveness)
	r.Handle("/metrics", promhttp.Handler())

	if s.intake != nil {
		r.Post("/webhook", s.handleWebhook)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return AuthMiddleware(s.authToken, next) })
		r.Get("/stats", s.handleGlobalStats)
		r.Get("/origins/{id}/stats", s.handleOriginStats)
		r.Get("/origins/{id}/actors/{actor}/stats", s.handleActorStats)
	})

	return r
}

// handleLiveness answers GET / and GET /health. It never touches the store.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

// handleWebhook handles POST /webhook. The response is sent only after the
// update went through ingestion, so a 500 makes the platform re-deliver it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			writeText(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, "Payload Too Large")
			return
		}
		s.logger.Warn("reading webhook body failed", "err", err)
		writeText(w, http.StatusInternalServerError, "Error")
		return
	}

	res, err := s.intake.Intake(r.Context(), body)
	switch {
	case errors.Is(err, delivery.ErrInvalidPayload):
		s.logger.Warn("rejecting undecodable webhook payload", "bytes", len(body))
		writeText(w, http.StatusInternalServerError, "Error")
		return
	case err != nil:
		s.logger.Warn("webhook intake unavailable", "err", err)
		writeText(w, http.StatusServiceUnavailable, "Unavailable")
		return
	case res.Failed():
		writeText(w, http.StatusInternalServerError, "Error")
		return
	}
	writeText(w, http.StatusOK, "Accepted")
}

// handleGlobalStats handles GET /v1/stats.
func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	g, err := s.stats.GlobalStats(r.Context())
	if err != nil {
		s.logger.Error("global stats failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleOriginStats handles GET /v1/origins/{id}/stats.
func (s *Server) handleOriginStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "origin id must be an integer")
		return
	}
	o, err := s.stats.OriginStats(r.Context(), id)
	if err != nil {
		s.logger.Error("origin stats failed", "origin", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleActorStats handles GET /v1/origins/{id}/actors/{actor}/stats.
func (s *Server) handleActorStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "origin id must be an integer")
		return
	}
	actor, err := strconv.ParseInt(chi.URLParam(r, "actor"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "actor id must be an integer")
		return
	}
	a, err := s.stats.ActorStats(r.Context(), id, actor)
	if errors.Is(err, query.ErrNotFound) {
		writeError(w, http.StatusNotFound, "actor has no events in this origin")
		return
	}
	if err != nil {
		s.logger.Error("actor stats failed", "origin", id, "actor", actor, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// writeText writes a plain-text response with the given status code.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
