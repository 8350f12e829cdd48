package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

// Actions are the operations triggered over HTTP; Poster implements them
type Actions interface {
	Jobs
	PostAlertsForDay(ctx context.Context, day time.Time, caption string, debug bool) error
}

// Handlers serves the HTTP action and read endpoints
type Handlers struct {
	actions   Actions
	alerts    *AlertsService
	maps      *MapService
	scheduler *Scheduler
}

// NewHandlers creates a new Handlers. maps and scheduler may be nil.
func NewHandlers(actions Actions, alertsService *AlertsService, maps *MapService, scheduler *Scheduler) *Handlers {
	return &Handlers{actions: actions, alerts: alertsService, maps: maps, scheduler: scheduler}
}

// Routes returns every endpoint behind a handler that guarantees a logger
// on the request context
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/actions/checkAlerts", h.action("checkAlerts", h.actions.FetchAndSendNewAlerts))
	mux.HandleFunc("POST /api/actions/sendToday", h.action("sendToday", h.actions.SendToday))
	mux.HandleFunc("POST /api/actions/sendTomorrow", h.action("sendTomorrow", h.actions.SendTomorrow))
	mux.HandleFunc("POST /api/actions/updatePostedAlerts", h.action("updatePostedAlerts", h.actions.UpdatePostedAlerts))
	mux.HandleFunc("POST /api/actions/sendDate/{date}", h.sendDate)
	mux.HandleFunc("GET /createCronJobs", h.createCronJobs)
	mux.HandleFunc("GET /api/map/{file}", h.mapKML)
	mux.HandleFunc("GET /api/map/day/{file}", h.dayKML)
	mux.HandleFunc("GET /api/day/{date}", h.dayOverview)
	mux.HandleFunc("GET /api/streets/match", h.matchStreets)
	return withLogger(mux)
}

func withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.EnsureLogger(r.Context())))
	})
}

// action runs fn detached from the request's cancellation, since posting
// is paced and may outlive an impatient caller
func (h *Handlers) action(name string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())
		logging.Infow(ctx, "Action requested", "action", name)
		if err := fn(ctx); err != nil {
			logging.Errorw(ctx, "Action failed", "action", name, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeText(w, name+" done")
	}
}

func (h *Handlers) sendDate(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("date")
	day, ok := dayArg(w, raw)
	if !ok {
		return
	}
	h.action("sendDate", func(ctx context.Context) error {
		return h.actions.PostAlertsForDay(ctx, day, "Alerts for "+raw, false)
	})(w, r)
}

func (h *Handlers) createCronJobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		http.Error(w, "scheduler disabled", http.StatusServiceUnavailable)
		return
	}
	report, err := h.scheduler.Recreate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeText(w, report)
}

func (h *Handlers) mapKML(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		http.Error(w, "street corpus not loaded", http.StatusServiceUnavailable)
		return
	}
	file := r.PathValue("file")
	if !strings.HasSuffix(file, ".kml") {
		http.NotFound(w, r)
		return
	}
	taskID, err := strconv.ParseInt(strings.TrimSuffix(file, ".kml"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	a, ok := h.alerts.Alert(r.Context(), taskID)
	if !ok {
		http.Error(w, fmt.Sprintf("alert %d not found", taskID), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	if err := h.maps.WriteKML(w, a); err != nil {
		logging.Errorw(r.Context(), "Failed to write KML", "task_id", taskID, "error", err)
	}
}

// dayArg parses a YYYY-MM-DD path value, writing the error response on failure
func dayArg(w http.ResponseWriter, raw string) (time.Time, bool) {
	day, err := ParseDay(raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}

func (h *Handlers) dayOverview(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("date")
	day, ok := dayArg(w, raw)
	if !ok {
		return
	}
	writeText(w, alerts.DayOverview("Alerts for "+raw, h.alerts.AlertsForDay(r.Context(), day)))
}

func (h *Handlers) dayKML(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		http.Error(w, "street corpus not loaded", http.StatusServiceUnavailable)
		return
	}
	file := r.PathValue("file")
	if !strings.HasSuffix(file, ".kml") {
		http.NotFound(w, r)
		return
	}
	raw := strings.TrimSuffix(file, ".kml")
	day, ok := dayArg(w, raw)
	if !ok {
		return
	}

	list := h.alerts.AlertsForDay(r.Context(), day)
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	if err := h.maps.WriteDayKML(w, "Alerts "+raw, list); err != nil {
		logging.Errorw(r.Context(), "Failed to write day KML", "day", raw, "error", err)
	}
}

type matchResponse struct {
	Query   string        `json:"query"`
	Matches []matchResult `json:"matches"`
}

type matchResult struct {
	Match  string  `json:"match"`
	City   string  `json:"city"`
	Rating float64 `json:"rating"`
}

func (h *Handlers) matchStreets(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		http.Error(w, "street corpus not loaded", http.StatusServiceUnavailable)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "missing q", http.StatusBadRequest)
		return
	}
	var cities []string
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		cities = []string{city}
	}

	resp := matchResponse{Query: query, Matches: []matchResult{}}
	for _, res := range h.maps.Match(query, cities...) {
		m := matchResult{Match: res.Match, Rating: res.Rating}
		if res.Street != nil {
			m.City = res.Street.City
		}
		resp.Matches = append(resp.Matches, m)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Errorw(r.Context(), "Failed to encode matches", "error", err)
	}
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, text)
}
