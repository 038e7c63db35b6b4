// Package schedule exposes schedule generation and history over HTTP.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/logger"
	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/planner"
	coreschedule "github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/pkg/export"
)

// DefaultMaxGridHours bounds the horizon a request may ask for.
const DefaultMaxGridHours = 168

// maxBodyBytes caps the generate request body.
const maxBodyBytes = 1 << 20

// Service is the planner surface used by the handlers.
type Service interface {
	Generate(ctx context.Context, req planner.Request) (*history.Record, error)
	Latest(ctx context.Context) (history.Record, error)
	Get(ctx context.Context, id string) (history.Record, error)
	List(ctx context.Context, page history.Page) ([]history.Summary, int, error)
	ToggleSite(ctx context.Context, id string) (model.Site, error)
}

// Options configures the handler.
type Options struct {
	// Token enables bearer authentication when non-empty.
	Token string
	// Limiter throttles generate requests. Nil disables throttling.
	Limiter      *rate.Limiter
	MaxGridHours int
	Log          logger.Logger
}

type handler struct {
	svc     Service
	token   string
	limiter *rate.Limiter
	maxGrid int
	log     logger.Logger
}

// NewHandler returns the HTTP handler serving /api/schedule routes.
func NewHandler(svc Service, opts Options) http.Handler {
	h := &handler{
		svc:     svc,
		token:   opts.Token,
		limiter: opts.Limiter,
		maxGrid: opts.MaxGridHours,
		log:     logger.OrNop(opts.Log),
	}
	if h.maxGrid <= 0 {
		h.maxGrid = DefaultMaxGridHours
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/schedule/generate", h.generate)
	mux.HandleFunc("GET /api/schedule/latest", h.latest)
	mux.HandleFunc("GET /api/schedule/history", h.history)
	mux.HandleFunc("GET /api/schedule/export/{id}", h.export)
	mux.HandleFunc("GET /api/schedule/{id}", h.get)
	mux.HandleFunc("PUT /api/schedule/sites/{siteId}/toggle", h.toggle)
	return h.auth(mux)
}

// NewRateLimiter returns a limiter allowing perSecond requests with burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (h *handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "error", Message: msg})
}

type generateRequest struct {
	GridHours    *int                `json:"gridHours"`
	DelayedSlots []model.DelayedSlot `json:"delayedSlots"`
	GeneratedBy  string              `json:"generatedBy"`
	Notes        string              `json:"notes"`
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many schedule requests, retry later")
		return
	}
	var body generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := planner.Request{
		GridHours:    coreschedule.DefaultGridHours,
		DelayedSlots: body.DelayedSlots,
		GeneratedBy:  body.GeneratedBy,
		Notes:        body.Notes,
	}
	if body.GridHours != nil {
		req.GridHours = *body.GridHours
	}
	if req.GridHours < 1 || req.GridHours > h.maxGrid {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("gridHours must be between 1 and %d", h.maxGrid))
		return
	}
	if req.GeneratedBy == "" {
		req.GeneratedBy = r.Header.Get("X-User")
	}

	rec, err := h.svc.Generate(r.Context(), req)
	switch {
	case errors.Is(err, coreschedule.ErrNoSites):
		writeError(w, http.StatusBadRequest, "No sites found. Please add sites before generating schedule.")
	case errors.Is(err, coreschedule.ErrNoTasks):
		writeError(w, http.StatusBadRequest, "No tasks found. Please add tasks before generating schedule.")
	case err != nil:
		h.log.Errorf("generate schedule: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate schedule")
	default:
		writeData(w, http.StatusOK, rec)
	}
}

func (h *handler) latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Latest(r.Context())
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No schedule found. Please generate a schedule first.")
		return
	}
	if err != nil {
		h.log.Errorf("latest schedule: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch latest schedule")
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r, r.PathValue("id"))
	if ok {
		writeData(w, http.StatusOK, rec)
	}
}

// lookup resolves id, accepting "latest", and writes the error response
// when it fails.
func (h *handler) lookup(w http.ResponseWriter, r *http.Request, id string) (history.Record, bool) {
	var (
		rec history.Record
		err error
	)
	if id == "latest" {
		rec, err = h.svc.Latest(r.Context())
	} else {
		rec, err = h.svc.Get(r.Context(), id)
	}
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Schedule not found")
		return rec, false
	}
	if err != nil {
		h.log.Errorf("get schedule %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch schedule")
		return rec, false
	}
	return rec, true
}

type pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type historyResponse struct {
	Schedules  []history.Summary `json:"schedules"`
	Pagination pagination        `json:"pagination"`
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	page := history.Page{Limit: queryInt(r, "limit"), Page: queryInt(r, "page")}.Normalize()
	list, total, err := h.svc.List(r.Context(), page)
	if err != nil {
		h.log.Errorf("schedule history: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch schedule history")
		return
	}
	if list == nil {
		list = []history.Summary{}
	}
	writeData(w, http.StatusOK, historyResponse{
		Schedules: list,
		Pagination: pagination{
			Total: total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.Pages(total),
		},
	})
}

type siteStatus struct {
	SiteID   string `json:"siteId"`
	IsActive bool   `json:"isActive"`
}

func (h *handler) toggle(w http.ResponseWriter, r *http.Request) {
	site, err := h.svc.ToggleSite(r.Context(), r.PathValue("siteId"))
	if errors.Is(err, planner.ErrSiteNotFound) {
		writeError(w, http.StatusNotFound, "Site not found")
		return
	}
	if err != nil {
		h.log.Errorf("toggle site: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to toggle site status")
		return
	}
	writeData(w, http.StatusOK, map[string]siteStatus{
		"site": {SiteID: site.SiteID, IsActive: site.IsActive},
	})
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	switch r.URL.Query().Get("format") {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%s.json"`, rec.ID))
		if err := export.WriteJSON(w, rec); err != nil {
			h.log.Errorf("export json: %v", err)
		}
	case "", "csv":
		if rec.Result == nil {
			writeError(w, http.StatusInternalServerError, "Failed to export schedule")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%s.csv"`, rec.ID))
		if err := export.WriteCSV(w, rec); err != nil {
			h.log.Errorf("export csv: %v", err)
		}
	case "html":
		if rec.Result == nil {
			writeError(w, http.StatusInternalServerError, "Failed to export schedule")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := export.WriteHTML(w, rec); err != nil {
			h.log.Errorf("export html: %v", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "Unsupported export format")
	}
}
