// Package http expose le moteur financier en JSON.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	applog "chantierfin/internal/log"
	"chantierfin/internal/ports"
	"chantierfin/internal/services"
)

// Services regroupe les cas d'usage servis par l'API.
type Services struct {
	Avenants      *services.AvenantService
	Achats        *services.AchatService
	Alertes       *services.AlerteService
	Consolidation *services.ConsolidationService
	Evolution     *services.EvolutionService
	AlerteRepo    ports.AlerteRepository
}

type Server struct {
	httpServer *http.Server
	svc        Services
	limiter    *rateLimiter
}

func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	mux := http.NewServeMux()
	handler := applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(mux)
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		limiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/avenants", s.protege(s.handleCreerAvenant))
	mux.HandleFunc("POST /api/avenants/{id}/valider", s.protege(s.handleValiderAvenant))
	mux.HandleFunc("DELETE /api/avenants/{id}", s.protege(s.handleSupprimerAvenant))

	mux.HandleFunc("POST /api/achats", s.protege(s.handleCreerAchat))
	mux.HandleFunc("POST /api/achats/{id}/statut", s.protege(s.handleChangerStatut))

	mux.HandleFunc("POST /api/chantiers/{id}/verification", s.protege(s.handleVerification))
	mux.HandleFunc("GET /api/chantiers/{id}/alertes", s.protege(s.handleListerAlertes))
	mux.HandleFunc("GET /api/chantiers/{id}/evolution", s.protege(s.handleEvolution))
	mux.HandleFunc("POST /api/alertes/{id}/acquitter", s.protege(s.handleAcquitterAlerte))

	mux.HandleFunc("GET /api/consolidation", s.protege(s.handleConsolidation))

	return s
}

// protege enveloppe un handler avec la limitation de debit et les entetes
// communs.
func (s *Server) protege(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			writeErreur(w, http.StatusTooManyRequests, "rate_limited", "trop de requetes")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Request-Id", generateRequestID())
		next(w, r)
	}
}

func (s *Server) Start() error {
	slog.Info("Serveur HTTP demarre", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// generateRequestID cree un identifiant de requete pour le tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
