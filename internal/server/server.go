// Package server exposes discover-and-enrich, discovery, transfer and run
// history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
)

const maxBatchSize = 100

// Enricher runs discover-and-enrich for one or many companies.
type Enricher interface {
	DiscoverAndEnrich(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) (*model.EnrichmentResult, error)
	RunBatch(ctx context.Context, companies []model.CompanyRef, designation model.DesignationFilter, concurrency int) (*enrich.BatchReport, error)
}

// RunLister lists recorded runs.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]store.RunRecord, error)
}

// Discoverer finds candidate companies.
type Discoverer interface {
	Run(ctx context.Context, q discovery.Query) (*discovery.Result, error)
}

// Transferrer pushes contacts to the outreach platform.
type Transferrer interface {
	TransferItems(ctx context.Context, listName string, items []outreach.Item) (*outreach.TransferReport, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	enricher       Enricher
	runs           RunLister
	discoverer     Discoverer
	transferrer    Transferrer
	concurrency    int
	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithRuns enables GET /v1/runs.
func WithRuns(r RunLister) Option {
	return func(s *Server) { s.runs = r }
}

// WithDiscoverer enables POST /v1/discover.
func WithDiscoverer(d Discoverer) Option {
	return func(s *Server) { s.discoverer = d }
}

// WithTransferrer enables POST /v1/transfer.
func WithTransferrer(t Transferrer) Option {
	return func(s *Server) { s.transferrer = t }
}

// WithBatchConcurrency caps concurrent companies in POST /v1/enrich/batch.
func WithBatchConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithAllowedOrigins sets the CORS allow-list. Empty allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// New creates a Server.
func New(e Enricher, opts ...Option) *Server {
	s := &Server{enricher: e, concurrency: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/enrich", s.handleEnrich)
		r.Post("/enrich/batch", s.handleBatch)
		if s.runs != nil {
			r.Get("/runs", s.handleRuns)
		}
		if s.discoverer != nil {
			r.Post("/discover", s.handleDiscover)
		}
		if s.transferrer != nil {
			r.Post("/transfer", s.handleTransfer)
		}
	})
	return r
}

// enrichRequest is the body of POST /v1/enrich.
type enrichRequest struct {
	model.CompanyRef
	Designation string `json:"designation"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.CompanyRef.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.enricher.DiscoverAndEnrich(r.Context(), req.CompanyRef, model.ParseDesignation(req.Designation))
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// batchRequest is the body of POST /v1/enrich/batch.
type batchRequest struct {
	Companies   []model.CompanyRef `json:"companies"`
	Designation string             `json:"designation"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Companies) == 0 {
		writeError(w, http.StatusBadRequest, "companies is required")
		return
	}
	if len(req.Companies) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch exceeds "+strconv.Itoa(maxBatchSize)+" companies")
		return
	}

	report, err := s.enricher.RunBatch(r.Context(), req.Companies, model.ParseDesignation(req.Designation), s.concurrency)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{}

	if name := strings.TrimSpace(q.Get("company")); name != "" {
		filter.CompanyKey = model.CompanyRef{Name: name, Website: q.Get("website")}.Key()
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var q discovery.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(q.Industry) == "" || strings.TrimSpace(q.Location) == "" {
		writeError(w, http.StatusBadRequest, "industry and location are required")
		return
	}

	result, err := s.discoverer.Run(r.Context(), q)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// transferRequest is the body of POST /v1/transfer.
type transferRequest struct {
	List     string          `json:"list"`
	Company  string          `json:"company"`
	Contacts []model.Contact `json:"contacts"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Contacts) == 0 {
		writeError(w, http.StatusBadRequest, "contacts is required")
		return
	}

	items := make([]outreach.Item, len(req.Contacts))
	for i, c := range req.Contacts {
		items[i] = outreach.Item{Contact: c, Company: req.Company}
	}
	report, err := s.transferrer.TransferItems(r.Context(), req.List, items)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeRunError maps a failed run to a status. Rejected provider credentials
// are reported without the provider's detail.
func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	log := zap.L().With(zap.String("path", r.URL.Path), zap.String("request_id", middleware.GetReqID(r.Context())))
	switch {
	case resilience.IsConfigError(err):
		log.Error("provider rejected credentials", zap.Error(err))
		writeError(w, http.StatusBadGateway, "provider rejected credentials")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn("request canceled", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "request canceled")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// NewHTTPServer wraps the handler with timeouts suited to long enrichment calls.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
