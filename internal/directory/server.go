package directory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ClaimRequest is the body of POST /v1/sessions.
type ClaimRequest struct {
	Code string `json:"code"`
	Addr string `json:"addr"`
}

// ResolveResponse is the body of GET /v1/sessions/{code}.
type ResolveResponse struct {
	Addr string `json:"addr"`
}

// TURNCredentials is the shape returned by the credential endpoint: one ICE
// server entry per element, opaque to the directory itself.
type TURNCredentials []ICEServer

type ICEServer struct {
	URLs       string `json:"urls"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// Server exposes the registry plus a best-effort relay-credential endpoint
// over HTTP.
type Server struct {
	reg   *Registry
	creds TURNCredentials
	log   *slog.Logger
}

func NewServer(reg *Registry, creds TURNCredentials, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{reg: reg, creds: creds, log: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/v1/sessions", s.handleClaim)
	r.Put("/v1/sessions/{code}", s.handleRefresh)
	r.Get("/v1/sessions/{code}", s.handleResolve)
	r.Delete("/v1/sessions/{code}", s.handleRelease)
	r.Get("/v1/turn-credentials", s.handleCredentials)
	return r
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.Addr == "" {
		http.Error(w, "bad claim request", http.StatusBadRequest)
		return
	}
	if err := s.reg.Claim(req.Code, req.Addr, time.Now()); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			http.Error(w, "code taken", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("session registered", "code", req.Code, "addr", req.Addr)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Addr == "" {
		http.Error(w, "bad refresh request", http.StatusBadRequest)
		return
	}
	if err := s.reg.Refresh(code, req.Addr, time.Now()); err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	addr, err := s.reg.Resolve(code, time.Now())
	if err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ResolveResponse{Addr: addr})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	addr := r.URL.Query().Get("addr")
	s.reg.Release(code, addr)
	s.log.Info("session released", "code", code)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.creds)
}
