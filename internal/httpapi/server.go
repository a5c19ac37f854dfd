package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/auth"
	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/history"
	apimw "github.com/hamed0406/uptimewatch/internal/httpapi/middleware"
	"github.com/hamed0406/uptimewatch/internal/report"
	"github.com/hamed0406/uptimewatch/internal/repo"
	"github.com/hamed0406/uptimewatch/internal/status"
)

// Refresher asks the monitor for an immediate tick.
type Refresher interface {
	Refresh() bool
}

type Server struct {
	Logger    *zap.Logger
	Endpoints repo.EndpointStore
	Board     *status.Board
	History   *history.Store
	Reports   *report.Reporter
	Gate      *auth.Gate
	Refresher Refresher
}

// Limits are per-IP requests per minute; zero disables a limiter. Client IPs
// come from the socket unless TrustProxy lets forwarded headers set them.
type Limits struct {
	APIRPM     int
	APIBurst   int
	LoginRPM   int
	LoginBurst int
	TrustProxy bool
}

func (s *Server) Router(origins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	if lim.TrustProxy {
		r.Use(chimw.RealIP)
	}
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Access-Password"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.With(apimw.RateLimit(lim.LoginRPM, lim.LoginBurst)).Post("/login", s.handleLogin)

		api.Group(func(p chi.Router) {
			p.Use(apimw.RateLimit(lim.APIRPM, lim.APIBurst))
			p.Use(apimw.RequirePassword(s.Gate))

			p.Get("/status", s.handleStatus)
			p.Get("/overview", s.handleOverview)
			p.Get("/reports/{period}", s.handleReport)
			p.Get("/endpoints", s.handleListEndpoints)
			p.Post("/endpoints", s.handleAddEndpoint)
			p.Delete("/endpoints/{name}", s.handleRemoveEndpoint)
			p.Post("/refresh", s.handleRefresh)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type loginPayload struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if !s.Gate.Check(p.Password) {
		s.Logger.Info("login_rejected", zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Board.Report())
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var snaps []domain.HistorySnapshot
	if s.History != nil {
		snaps = s.History.Snapshots()
	}
	writeJSON(w, http.StatusOK, status.Summarize(s.Board.Results(), snaps))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, ok, err := s.Reports.Summary(r.Context(), p)
	if err != nil {
		s.Logger.Warn("report_summary_error", zap.String("period", p.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	eps, err := s.Endpoints.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	out := make([]domain.Endpoint, 0, len(eps))
	for _, ep := range eps {
		out = append(out, domain.Endpoint{Name: ep.Name, URL: domain.MaskedURL})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddEndpoint(w http.ResponseWriter, r *http.Request) {
	var p domain.Endpoint
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if !domain.ValidName(p.Name) || !isValidHTTPURL(p.URL) {
		writeError(w, http.StatusBadRequest, "a printable name and an http(s) url are required")
		return
	}
	p.URL = normalizeHTTPURL(p.URL)

	err := s.Endpoints.Add(r.Context(), p)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		writeError(w, http.StatusConflict, "endpoint already exists")
		return
	case err != nil:
		s.Logger.Warn("endpoint_add_error", zap.String("endpoint", p.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add")
		return
	}

	s.Logger.Info("endpoint_added", zap.String("endpoint", p.Name))
	if s.Refresher != nil {
		s.Refresher.Refresh()
	}
	writeJSON(w, http.StatusCreated, domain.Endpoint{Name: p.Name, URL: domain.MaskedURL})
}

func (s *Server) handleRemoveEndpoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.Endpoints.Remove(r.Context(), name)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "no such endpoint")
		return
	case err != nil:
		s.Logger.Warn("endpoint_remove_error", zap.String("endpoint", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not remove")
		return
	}
	s.Logger.Info("endpoint_removed", zap.String("endpoint", name))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	queued := false
	if s.Refresher != nil {
		queued = s.Refresher.Refresh()
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": queued})
}

// isValidHTTPURL accepts absolute http(s) URLs with a host.
func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

// normalizeHTTPURL lowercases scheme and host, drops default ports and a bare
// trailing slash. Path and query are kept as given.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}
	return u.String()
}
