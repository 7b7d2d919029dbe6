package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain"
	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	logpkg "github.com/kailas-cloud/docparse/internal/logger"
	"github.com/kailas-cloud/docparse/internal/preflight"
	"github.com/kailas-cloud/docparse/internal/render"
	healthuc "github.com/kailas-cloud/docparse/internal/usecase/health"
	parseuc "github.com/kailas-cloud/docparse/internal/usecase/parse"
)

const (
	msgParsed           = "Document parsed successfully"
	msgInputNotFound    = "Input not found"
	msgConversionFailed = "Document conversion failed"
	msgBusy             = "Server is busy, retry later"
	msgTimeout          = "Document conversion timed out"

	// multipartOverhead is allowed on top of the file size limit for
	// boundaries and the other form fields.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the parse API.
type Server struct {
	parser          *parseuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	maxUploadBytes  int64
	allowLocalPaths bool
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(parser *parseuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		parser: parser,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		clientInputHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest,
			ErrorResponseCodeBadRequest, "Invalid request"),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusNotFound,
			ErrorResponseCodeInputNotFound, msgInputNotFound),
		sentinelHandler(domain.ErrBusy, http.StatusServiceUnavailable,
			ErrorResponseCodeBusy, msgBusy),
		sentinelHandler(domain.ErrConversionTimeout, http.StatusGatewayTimeout,
			ErrorResponseCodeTimeout, msgTimeout),
		sentinelHandler(domain.ErrConversionFailed, http.StatusInternalServerError,
			ErrorResponseCodeConversionFailed, msgConversionFailed),
	}
	return s
}

// WithUploadLimit caps the size of uploaded files. Zero means unlimited.
func (s *Server) WithUploadLimit(n int64) *Server {
	s.maxUploadBytes = n
	return s
}

// WithLocalPaths lets /parse/url accept filesystem paths.
func (s *Server) WithLocalPaths(allow bool) *Server {
	s.allowLocalPaths = allow
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/parse/url", s.ParseURL)
	r.Post("/parse/file", s.ParseFile)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ParseURL handles POST /parse/url.
func (s *Server) ParseURL(w http.ResponseWriter, r *http.Request) {
	var req ParseURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	src, err := s.sourceFromURL(strings.TrimSpace(req.URL))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	format, err := render.ParseFormat(deref(req.OutputFormat))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	s.parse(w, r, parseuc.Request{
		Source:      src,
		Format:      format,
		IncludeJSON: req.IncludeJSON != nil && *req.IncludeJSON,
	})
}

func (s *Server) sourceFromURL(raw string) (conversion.Source, error) {
	if raw == "" {
		return conversion.Source{}, errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return conversion.Source{}, errors.New("url must include a host")
		}
		return conversion.FromURL(raw), nil
	}
	if !s.allowLocalPaths {
		return conversion.Source{}, errors.New("url must use http or https")
	}
	return conversion.FromPath(raw), nil
}

// ParseFile handles POST /parse/file.
func (s *Server) ParseFile(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusUnprocessableEntity, ErrorResponseCodeUnprocessableInput, preflight.MsgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "file is required")
		return
	}
	var file types.File
	file.InitFromMultipart(headers[0])
	if s.maxUploadBytes > 0 && file.FileSize() > s.maxUploadBytes {
		writeError(w, http.StatusUnprocessableEntity, ErrorResponseCodeUnprocessableInput, preflight.MsgTooLarge)
		return
	}
	data, err := file.Bytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid file: "+err.Error())
		return
	}

	format, err := render.ParseFormat(r.FormValue("output_format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	var includeJSON bool
	if v := r.FormValue("include_json"); v != "" {
		if err := runtime.BindStringToObject(v, &includeJSON); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
				fmt.Sprintf("include_json must be a boolean, got %q", v))
			return
		}
	}

	s.parse(w, r, parseuc.Request{
		Source:      conversion.FromStream(file.Filename(), data),
		Format:      format,
		IncludeJSON: includeJSON,
	})
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request, req parseuc.Request) {
	res, err := s.parser.Parse(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ParseResponse{
		Message: msgParsed,
		Status:  ParseResponseStatusOk,
		Data: ParseResponseData{
			Output:     res.Output,
			JSONOutput: res.JSON,
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{Detail: ErrorDetail{
		Code:    code,
		Message: message,
	}})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with a fixed message.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// clientInputHandler surfaces the pipeline's own message for rejected input.
func clientInputHandler(w http.ResponseWriter, err error) bool {
	var cie *domain.ClientInputError
	if !errors.As(err, &cie) {
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, ErrorResponseCodeUnprocessableInput, cie.Message)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
