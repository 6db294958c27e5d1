// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/parcel"
	"github.com/landscore/score-cli/internal/report"
)

// Scorer is the engine surface the server needs.
type Scorer interface {
	ScorePolygon(ctx context.Context, p orb.Polygon) (*report.Metrics, error)
	ScoreCadastral(ctx context.Context, cadastral string) (*report.Metrics, error)
}

// Server routes scoring requests to the engine.
type Server struct {
	scorer Scorer
	router chi.Router
}

// New builds the server and its routes.
func New(scorer Scorer) *Server {
	s := &Server{scorer: scorer}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/score", s.handleScorePolygon)
	r.Get("/api/parcels/{cadastral}/score", s.handleScoreCadastral)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

type ctxKey string

const requestIDKey ctxKey = "request_id"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", id),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScorePolygon scores a parcel boundary posted as GeoJSON (a bare
// Polygon geometry, a Feature, or a FeatureCollection).
func (s *Server) handleScorePolygon(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	poly, err := parcel.FromGeoJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.scorer.ScorePolygon(r.Context(), poly)
	if err != nil {
		zap.L().Error("score polygon failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleScoreCadastral(w http.ResponseWriter, r *http.Request) {
	cadastral := chi.URLParam(r, "cadastral")
	if strings.TrimSpace(cadastral) == "" {
		writeError(w, http.StatusBadRequest, "cadastral number is required")
		return
	}

	m, err := s.scorer.ScoreCadastral(r.Context(), cadastral)
	if err != nil {
		zap.L().Error("score cadastral failed",
			zap.String("cadastral", cadastral),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		if strings.Contains(err.Error(), "no object found") {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
