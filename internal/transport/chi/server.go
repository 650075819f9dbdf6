package chi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/page"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	logpkg "github.com/MrMohammed1/Miran-Search/internal/logger"
	healthuc "github.com/MrMohammed1/Miran-Search/internal/usecase/health"
	productsuc "github.com/MrMohammed1/Miran-Search/internal/usecase/products"
)

// errorCode is the machine-readable code of an error response.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeValidationFailed      errorCode = "validation_failed"
	codeNotFound              errorCode = "not_found"
	codeDependencyUnavailable errorCode = "dependency_unavailable"
	codeUnauthorized          errorCode = "unauthorized"
	codeInternalError         errorCode = "internal_error"
)

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// pageResponse is the paginated envelope with next/previous rendered as URLs.
type pageResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []product.Product `json:"results"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type invalidateResponse struct {
	Scope   string `json:"scope"`
	Deleted int    `json:"deleted"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options tune the HTTP server.
type Options struct {
	// PublicBaseURL replaces the request scheme and host in pagination links.
	PublicBaseURL string
	// APIKeys guard the admin routes. Empty disables the check.
	APIKeys []string
}

// Server serves the product API over chi.
type Server struct {
	products      *productsuc.Service
	health        *healthuc.Service
	links         linkBuilder
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	products *productsuc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	s := &Server{
		products: products,
		health:   health,
		links:    linkBuilder{base: strings.TrimRight(opts.PublicBaseURL, "/")},
		apiKeys:  opts.APIKeys,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrDependencyUnavailable, http.StatusServiceUnavailable, codeDependencyUnavailable),
	}
	return s
}

// Register mounts the API routes on r, which must not have routes yet.
// Trailing slashes are optional.
func (s *Server) Register(r chi.Router) {
	r.Use(chiMiddleware.StripSlashes)

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.ListProducts)
		r.Get("/products/search", s.SearchProducts)
		r.Get("/products/{id}", s.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.apiKeys))
			r.Post("/admin/cache/invalidate", s.InvalidateCache)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
}

// ListProducts handles GET /api/products/.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	number, err := page.ParseNumber(r.URL.Query().Get("page"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := s.products.List(r.Context(), number)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.pageToResponse(r, p))
}

// SearchProducts handles GET /api/products/search/.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	number, err := page.ParseNumber(params.Get("page"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	log := logpkg.FromContext(r.Context())
	filter := product.Filter{
		Category:    params.Get("category"),
		CaloriesMin: parseBound(log, "calories_min", params.Get("calories_min")),
		CaloriesMax: parseBound(log, "calories_max", params.Get("calories_max")),
	}

	q, err := query.New(params.Get("q"), number, filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := s.products.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.pageToResponse(r, p))
}

// GetProduct handles GET /api/products/{id}/.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrNotFound.Error())
		return
	}

	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// InvalidateCache handles POST /api/admin/cache/invalidate. The optional
// scope parameter names one op; "all" or no scope drops everything.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	scope := strings.TrimSpace(r.URL.Query().Get("scope"))
	op := fingerprint.Op(scope)
	if scope == "all" {
		op = ""
	}

	n, err := s.products.Invalidate(r.Context(), op)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if op == "" {
		scope = "all"
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Scope: scope, Deleted: n})
}

// HealthCheck handles GET /health. Only an unreachable catalog fails the check.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pageToResponse(r *http.Request, p page.Page) pageResponse {
	resp := pageResponse{Count: p.Count, Results: p.Results}
	if p.Next != nil {
		u := s.links.pageURL(r, *p.Next)
		resp.Next = &u
	}
	if p.Previous != nil {
		u := s.links.pageURL(r, *p.Previous)
		resp.Previous = &u
	}
	return resp
}

// parseBound parses an optional calorie bound. Unparseable or non-finite
// values are dropped so the search still runs without that bound.
func parseBound(log *zap.Logger, name, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		log.Warn("Ignoring invalid calorie bound", zap.String("param", name), zap.String("value", raw))
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the client-facing part of err. Validation
// messages describe the caller's input and are passed through; everything
// else is reduced to its sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	for _, s := range []error{domain.ErrNotFound, domain.ErrDependencyUnavailable} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
