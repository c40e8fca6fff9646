// Package httpapi exposes the analyzer over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"spike-zone-bot/analyzer"
	"spike-zone-bot/report"
)

const DefaultMaxBodyBytes = 1 << 20

type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Report, error)
}

type Metrics interface {
	Handler() http.Handler
	Instrument(route string, next http.Handler) http.Handler
}

type Zone struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Score int    `json:"score"`
}

type AnalyzeResponse struct {
	ID            string `json:"id"`
	Events        int    `json:"events"`
	Blocks        int    `json:"blocks"`
	Skipped       int    `json:"skipped"`
	WindowMinutes int    `json:"window_minutes"`
	Zones         []Zone `json:"zones"`
	Report        string `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Server wires the routes. Metrics may be nil, which disables /metrics.
type Server struct {
	Log          *slog.Logger
	Analyzer     Analyzer
	Metrics      Metrics
	MaxBodyBytes int64
}

func (s *Server) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/v1/analyze", s.instrument("analyze", http.HandlerFunc(s.analyze))).Methods(http.MethodPost)
	r.Handle("/healthz", s.instrument("healthz", http.HandlerFunc(healthz))).Methods(http.MethodGet)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Handler is Router wrapped with panic recovery and an access log written
// through the structured logger.
func (s *Server) Handler() http.Handler {
	access := &logWriter{log: s.logger()}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.CombinedLoggingHandler(access, s.Router()),
	)
}

func (s *Server) instrument(route string, h http.Handler) http.Handler {
	if s.Metrics == nil {
		return h
	}
	return s.Metrics.Instrument(route, h)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	text, err := readText(http.MaxBytesReader(w, r.Body, limit), r.Header.Get("Content-Type"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty text"})
		return
	}

	rep, err := s.Analyzer.Analyze(r.Context(), analyzer.Request{Source: "http", Text: text})
	if errors.Is(err, analyzer.ErrInsufficientData) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger().Error("analyze failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rep))
}

// readText accepts either a raw text body or a JSON object {"text": "..."}.
func readText(body io.Reader, contentType string) (string, error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/json" {
		var req analyzeRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", err
			}
			return "", errors.New("invalid json body")
		}
		return req.Text, nil
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toResponse(rep analyzer.Report) AnalyzeResponse {
	res := rep.Result
	out := AnalyzeResponse{
		ID:            rep.ID,
		Events:        res.Events,
		Blocks:        rep.Blocks,
		Skipped:       rep.Skipped,
		WindowMinutes: res.Window,
		Zones:         make([]Zone, 0, len(res.Zones)),
		Report:        rep.Text,
	}
	for _, z := range res.Zones {
		out.Zones = append(out.Zones, Zone{Start: report.Clock(z.Start), End: report.Clock(res.End(z)), Score: z.Score})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type logWriter struct{ log *slog.Logger }

func (l *logWriter) Write(p []byte) (int, error) {
	l.log.Info("http access", "line", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
