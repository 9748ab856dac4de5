package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"web-analytics-service/internal/ingest/domain"
	"web-analytics-service/internal/ingest/enrichment"
	"web-analytics-service/internal/ingest/usecase"
	"web-analytics-service/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBeaconBody caps the beacon payload. Real payloads are a few hundred
// bytes; anything bigger is garbage or abuse.
const maxBeaconBody = 64 << 10

// Handler handles HTTP requests for event ingestion and reporting.
type Handler struct {
	service *usecase.AnalyticsService
	logger  *zap.Logger
	db      *sql.DB
}

// NewHandler creates a new Handler.
func NewHandler(service *usecase.AnalyticsService, logger *zap.Logger, db *sql.DB) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		db:      db,
	}
}

// TrackEvent handles POST /api/event, the tracking beacon. Responses follow
// the beacon contract: 400 problem for malformed payloads or internal
// failures, 200 success=false for untracked sites, 200 success=true otherwise.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBeaconBody))
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			"Failed to read request body",
		))
		return
	}

	// Raw payloads are debug-only instrumentation, never logged above Debug.
	h.logger.Debug("beacon received", zap.ByteString("body", body))

	ev, err := domain.ParseTrackingEvent(body)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fields := make([]problemdetails.FieldError, len(verr.Fields))
			for i, f := range verr.Fields {
				fields[i] = problemdetails.FieldError{Field: f.Field, Message: f.Message}
			}
			writeProblem(w, problemdetails.NewValidation(fields))
			return
		}
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Request",
			err.Error(),
		))
		return
	}

	sig := enrichment.Signals{
		UserAgent:      r.Header.Get("User-Agent"),
		IP:             enrichment.ClientIP(r),
		Accept:         r.Header.Get("Accept"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}

	result, err := h.service.Track(r.Context(), ev, sig)
	if err != nil {
		h.logger.Error("event ingestion failed",
			zap.String("domain", ev.Domain),
			zap.String("event", ev.Event),
			zap.Error(err),
		)
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInternalError,
			"Request Failed",
			"The event could not be processed",
		))
		return
	}

	if !result.Tracked {
		writeJSON(w, http.StatusOK, TrackResponse{Success: false, Msg: result.Msg})
		return
	}
	writeJSON(w, http.StatusOK, TrackResponse{Success: true})
}

// CreateSiteRequest is the site registration body.
type CreateSiteRequest struct {
	Domain string `json:"domain"`
}

// CreateSite handles POST /api/sites.
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Domain == "" {
		writeProblem(w, problemdetails.NewValidation([]problemdetails.FieldError{
			{Field: "domain", Message: "domain is required"},
		}))
		return
	}

	site, err := h.service.RegisterSite(r.Context(), req.Domain)
	if err != nil {
		if errors.Is(err, domain.ErrSiteExists) {
			writeProblem(w, problemdetails.New(
				http.StatusConflict,
				problemdetails.TypeConflict,
				"Site Exists",
				"This domain is already registered",
			))
			return
		}
		h.logger.Error("site registration failed", zap.String("domain", req.Domain), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to register site",
		))
		return
	}

	writeJSON(w, http.StatusCreated, SiteResponse{
		ID:        site.ID,
		Domain:    site.Domain,
		CreatedAt: site.CreatedAt.Unix(),
	})
}

// GetSummary handles GET /api/sites/{domain}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	siteDomain := chi.URLParam(r, "domain")

	from, to, err := parseTimeRange(r)
	if err != nil {
		writeProblem(w, problemdetails.New(
			http.StatusBadRequest,
			problemdetails.TypeInvalidRequest,
			"Invalid Query Parameters",
			err.Error(),
		))
		return
	}

	summary, err := h.service.GetSummary(r.Context(), siteDomain, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrSiteNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Site Not Found",
				"This domain is not registered",
			))
			return
		}
		h.logger.Error("summary query failed", zap.String("domain", siteDomain), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to retrieve summary",
		))
		return
	}

	writeJSON(w, http.StatusOK, convertSummary(summary))
}

// Health handles GET /healthz with a storage ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// parseTimeRange parses from and to date query parameters. From defaults to
// the beginning of time, to defaults to now; a to date covers its whole day.
func parseTimeRange(r *http.Request) (from int64, to int64, err error) {
	from = 0
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		fromTime, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return 0, 0, err
		}
		from = fromTime.Unix()
	}

	to = time.Now().Unix()
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		toTime, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return 0, 0, err
		}
		to = toTime.Add(24*time.Hour - time.Second).Unix()
	}

	return from, to, nil
}

func convertSummary(s *usecase.SummaryResult) *SummaryResponse {
	return &SummaryResponse{
		Domain:         s.Domain,
		TotalVisits:    s.TotalVisits,
		UniqueVisitors: s.UniqueVisitors,
		Countries:      convertBreakdown(s.Countries),
		Browsers:       convertBreakdown(s.Browsers),
		Referrers:      convertBreakdown(s.Referrers),
		Pages:          convertBreakdown(s.Pages),
	}
}

func convertBreakdown(items []usecase.GroupCount) []BreakdownResponse {
	resp := make([]BreakdownResponse, len(items))
	for i, item := range items {
		resp[i] = BreakdownResponse{Value: item.Value, Count: item.Count}
	}
	return resp
}
