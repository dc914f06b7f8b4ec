package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scopeq/internal/catalog"
	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/request"
	"github.com/kailas-cloud/scopeq/internal/logger"
	healthuc "github.com/kailas-cloud/scopeq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/scopeq/internal/usecase/search"
)

// maxBodyBytes bounds a search request body.
const maxBodyBytes = 1 << 20

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthenticated    ErrorCode = "unauthenticated"
	CodeForbidden          ErrorCode = "forbidden"
	CodeScopeMissing       ErrorCode = "scope_missing"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeResourceNotFound   ErrorCode = "resource_not_found"
	CodeStorageUnavailable ErrorCode = "storage_unavailable"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	catalog       *catalog.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *catalog.Registry,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated),
		sentinelHandler(domain.ErrScope, http.StatusForbidden, CodeScopeMissing),
		sentinelHandler(domain.ErrAuthorization, http.StatusForbidden, CodeForbidden),
		sentinelHandler(domain.ErrUnknownResource, http.StatusNotFound, CodeResourceNotFound),
		sentinelHandler(domain.ErrStorage, http.StatusServiceUnavailable, CodeStorageUnavailable),
	}
	return s
}

// Routes registers the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/resources", s.ListResources)
		r.Post("/{resource}/search", s.Search)
		r.Get("/{resource}", s.SearchQuery)
	})
}

// Search handles POST /v1/{resource}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	req, err := request.Parse(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.run(w, r, req)
}

// SearchQuery handles GET /v1/{resource}.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	req, err := request.FromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.run(w, r, req)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, req request.Request) {
	p, _ := principal.FromContext(r.Context())
	resp, err := s.search.Search(r.Context(), p, chi.URLParam(r, "resource"), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResourceInfo describes a searchable resource.
type ResourceInfo struct {
	Name          string   `json:"name"`
	Filters       []string `json:"filters"`
	Sort          []string `json:"sort"`
	DefaultSort   string   `json:"default_sort"`
	DefaultLimit  int      `json:"default_limit"`
	MaxLimit      int      `json:"max_limit"`
	LimitOverflow string   `json:"limit_overflow"`
}

// ListResources handles GET /v1/resources.
func (s *Server) ListResources(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		s.handleDomainError(w, r, domain.ErrUnauthenticated)
		return
	}

	items := make([]ResourceInfo, 0)
	for _, def := range s.catalog.Visible(p.Role()) {
		items = append(items, resourceInfo(def))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func resourceInfo(def resource.Definition) ResourceInfo {
	sortFields := make([]string, 0, len(def.Sort.Fields()))
	for _, f := range def.Sort.Fields() {
		sortFields = append(sortFields, f.Name)
	}
	return ResourceInfo{
		Name:          def.Name,
		Filters:       def.Params(),
		Sort:          sortFields,
		DefaultSort:   def.Sort.Default().String(),
		DefaultLimit:  def.Page.DefaultLimit(),
		MaxLimit:      def.Page.MaxLimit(),
		LimitOverflow: string(def.Page.Overflow()),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody reads a JSON object body. An empty body is an empty request.
func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	body := make(map[string]any)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		return nil, err
	}
	if body == nil {
		body = make(map[string]any)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message, field string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Field:   field,
	})
}

// validationHandler reports the offending field of a ValidationError.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, ve.Field+": "+ve.Reason, ve.Field)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel message only.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error(), "")
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error", "")
}
