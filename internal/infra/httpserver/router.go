package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appadvisory "github.com/bryanwahyu/finadvisor/internal/application/advisory"
	appfin "github.com/bryanwahyu/finadvisor/internal/application/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/gst"
	"github.com/bryanwahyu/finadvisor/internal/middleware"
)

const (
	// multipart overhead allowed on top of the document size limit
	formOverhead = 1 << 20
	maxJSONBody  = 1 << 20
)

// Options holds everything the router serves.
type Options struct {
	Financials  *appfin.Service
	Advisory    *appadvisory.Service
	Checkers    map[string]middleware.HealthChecker
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	// Files serves locally stored documents under /files when set.
	Files http.Handler
}

type Router struct {
	finSvc *appfin.Service
	advSvc *appadvisory.Service
}

func NewRouter(opts Options) http.Handler {
	r := &Router{finSvc: opts.Financials, advSvc: opts.Advisory}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		mux.Use(opts.RateLimiter.Handler)
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Handle("/metrics", promhttp.Handler())

	if opts.Files != nil {
		mux.Handle("/files/*", http.StripPrefix("/files/", opts.Files))
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Route("/financials", func(rt chi.Router) {
			rt.Get("/", r.wrap(r.handleList))
			rt.Post("/upload", r.wrap(r.handleUpload))
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
			rt.Get("/{id}", r.wrap(r.handleGet))
			rt.Put("/{id}/metrics", r.wrap(r.handleUpdateMetrics))
			rt.Post("/{id}/advisory", r.wrap(r.handleRetryAdvisory))
			rt.Get("/{id}/reports", r.wrap(r.handleReports))
		})
		rt.Post("/ai/insights", r.wrap(r.handleInsights))
		rt.Post("/gst/validate", r.wrap(r.handleGSTValidate))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := errorStatus(err)
			if status >= http.StatusInternalServerError {
				zap.L().Error("request failed",
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err))
			}
			writeJSON(w, status, map[string]string{"message": msg})
		}
	}
}

// errorStatus maps an error to its HTTP status and client message.
func errorStatus(err error) (int, string) {
	var de *domain.Error
	var mf *credit.MissingFieldError
	var mbe *http.MaxBytesError

	switch {
	case errors.As(err, &mf):
		return http.StatusBadRequest, mf.Error()
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidState):
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrInvalidState) {
			status = http.StatusConflict
		}
		if errors.As(err, &de) {
			return status, de.Msg
		}
		return status, err.Error()
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, domain.ErrRecordNotFound.Error()
	case errors.Is(err, advisory.ErrQuotaExceeded):
		return http.StatusTooManyRequests, appfin.UpstreamMessage(err)
	case errors.Is(err, advisory.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, appfin.UpstreamMessage(err)
	case errors.Is(err, advisory.ErrUpstreamMalformed), errors.Is(err, advisory.ErrUpstreamError):
		return http.StatusBadGateway, appfin.UpstreamMessage(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeJSON always returns nil: once the header is out, an encode failure
// can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Int("status", status), zap.Error(err))
	}
	return nil
}

// decodeBody reads a JSON request body of at most maxJSONBody bytes into v.
func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBody)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return domain.Invalid("request body is required")
		}
		return domain.Invalid("invalid JSON body: %v", err)
	}
	return nil
}

func recordID(req *http.Request) (int64, error) {
	id, err := middleware.ParseRecordID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, domain.Invalid("%v", err)
	}
	return id, nil
}

// GET /api/financials?limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	limit, err := middleware.ValidateLimit(req.URL.Query().Get("limit"))
	if err != nil {
		return domain.Invalid("%v", err)
	}
	list, err := r.finSvc.List(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /api/financials/upload (multipart)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	limit := r.finSvc.MaxUploadBytes
	if limit <= 0 {
		limit = appfin.DefaultMaxUploadBytes
	}
	req.Body = http.MaxBytesReader(w, req.Body, limit+formOverhead)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return domain.Invalid("invalid multipart form: %v", err)
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := req.FormFile("file")
	if err != nil {
		return domain.Invalid("file is required")
	}
	defer file.Close()

	rec, err := r.finSvc.Upload(req.Context(), appfin.UploadCommand{
		Filename:     middleware.SanitizeString(header.Filename),
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
		Language:     req.FormValue("language"),
		Metrics:      formJSON(req, "metrics"),
		CashFlowData: formJSON(req, "cashFlowData"),
		CostData:     formJSON(req, "costData"),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rec)
}

func formJSON(req *http.Request, field string) json.RawMessage {
	v := strings.TrimSpace(req.FormValue(field))
	if v == "" {
		return nil
	}
	return json.RawMessage(v)
}

// POST /api/financials/analyze
// Body: {"recordId": 1, "industry": "Retail", "language": "English"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		RecordID json.RawMessage `json:"recordId"`
		Industry string          `json:"industry"`
		Language string          `json:"language"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	// accept 7 as well as "7"
	id, err := middleware.ParseRecordID(strings.Trim(string(body.RecordID), `"`))
	if err != nil {
		return domain.Invalid("%v", err)
	}

	rep, err := r.finSvc.Analyze(req.Context(), appfin.AnalyzeCommand{
		RecordID: id,
		Industry: middleware.SanitizeString(body.Industry),
		Language: body.Language,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rep)
}

// GET /api/financials/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	rec, err := r.finSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// PUT /api/financials/{id}/metrics
func (r *Router) handleUpdateMetrics(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	var body struct {
		Metrics      json.RawMessage `json:"metrics"`
		CashFlowData json.RawMessage `json:"cashFlowData"`
		CostData     json.RawMessage `json:"costData"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	rec, err := r.finSvc.UpdateMetrics(req.Context(), id, appfin.MetricsCommand{
		Metrics:      body.Metrics,
		CashFlowData: body.CashFlowData,
		CostData:     body.CostData,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// POST /api/financials/{id}/advisory
func (r *Router) handleRetryAdvisory(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	rep, err := r.finSvc.RetryAdvisory(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rep)
}

// GET /api/financials/{id}/reports
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	id, err := recordID(req)
	if err != nil {
		return err
	}
	reps, err := r.finSvc.Reports(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, reps)
}

// POST /api/ai/insights
// Body: {"financials": {...}, "industry": "Retail", "language": "Hindi"}
func (r *Router) handleInsights(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Financials any    `json:"financials"`
		Industry   string `json:"industry"`
		Language   string `json:"language"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	out, err := r.advSvc.Insights(req.Context(), appadvisory.InsightsCommand{
		Financials: body.Financials,
		Industry:   middleware.SanitizeString(body.Industry),
		Language:   body.Language,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"insights": out})
}

// POST /api/gst/validate
// Body: {"gstin": "22AAAAA0000A1Z5"}
func (r *Router) handleGSTValidate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		GSTIN string `json:"gstin"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	res := gst.Check(body.GSTIN)
	if !res.Valid {
		return writeJSON(w, http.StatusBadRequest, res)
	}
	return writeJSON(w, http.StatusOK, res)
}
