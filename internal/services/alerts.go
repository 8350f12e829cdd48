package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/georgia-utilities/alertbot/internal/cache"
	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
	"github.com/georgia-utilities/alertbot/internal/lib/places"
	"github.com/georgia-utilities/alertbot/internal/store"
)

const snapshotKey = "energopro:alerts"

// AlertsService keeps the energo-pro feed in sync with the store and indexes
// the current alerts for the bot commands
type AlertsService struct {
	feed       AlertFeed
	store      AlertStore
	translator alerts.Translator
	cache      *cache.Cache
	config     *config.FeedsConfig
	metrics    *Metrics
	hasher     *alerts.ContentHasher
	now        func() time.Time

	// fetchMu serializes fetch cycles; mu guards the indexes
	fetchMu sync.Mutex
	mu      sync.RWMutex
	byID    map[int64]alerts.Alert
	byDate  map[string][]alerts.Alert
	cities  map[int64][]string
}

// NewAlertsService creates a new AlertsService
func NewAlertsService(feed AlertFeed, alertStore AlertStore, translator alerts.Translator, c *cache.Cache, cfg *config.FeedsConfig, metrics *Metrics) *AlertsService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if c == nil {
		c = cache.NewCache()
	}
	return &AlertsService{
		feed:       feed,
		store:      alertStore,
		translator: translator,
		cache:      c,
		config:     cfg,
		metrics:    metrics,
		hasher:     alerts.NewContentHasher(),
		now:        time.Now,
		byID:       make(map[int64]alerts.Alert),
		byDate:     make(map[string][]alerts.Alert),
		cities:     make(map[int64][]string),
	}
}

// FetchAlerts pulls every configured city, reconciles the merged alerts with
// the store and returns what changed. Within the fetch interval the previous
// snapshot is reused unless force is set. A caller arriving during a running
// cycle waits for it and gets no diffs.
func (s *AlertsService) FetchAlerts(ctx context.Context, force bool) []alerts.AlertDiff {
	if !s.fetchMu.TryLock() {
		s.fetchMu.Lock()
		s.fetchMu.Unlock()
		return nil
	}
	defer s.fetchMu.Unlock()

	if !force {
		var snapshot []alerts.Alert
		if found, _ := s.cache.Get(snapshotKey, &snapshot); found {
			if s.indexEmpty() {
				s.rebuildIndex(ctx, snapshot)
			}
			return nil
		}
	}

	started := s.now()
	defer func() {
		s.metrics.FetchDuration.Observe(time.Since(started).Seconds())
	}()

	var (
		diffs     []alerts.AlertDiff
		fetched   []alerts.Alert
		hasErrors bool
	)
	for _, city := range s.config.Cities {
		if city.NameGe == "" {
			continue
		}
		list, err := s.feed.FetchCity(ctx, city.NameGe)
		if err != nil {
			logging.Errorw(ctx, "Failed to fetch alerts", "city", city.Name, "error", err)
			diffs = append(diffs, alerts.FromError(fmt.Errorf("error fetching alerts for %s: %w", city.Name, err)))
			hasErrors = true
			continue
		}
		fetched = append(fetched, list...)
	}

	merged := alerts.MergeDuplicates(fetched)
	s.metrics.AlertsFetched.WithLabelValues("energopro").Add(float64(len(merged)))

	if len(merged) == 0 && hasErrors {
		var snapshot []alerts.Alert
		if found, _ := s.cache.GetStale(snapshotKey, &snapshot); found {
			logging.Warnw(ctx, "All feeds failed, serving stale alerts", "count", len(snapshot))
			s.rebuildIndex(ctx, snapshot)
		}
		return diffs
	}

	for _, a := range merged {
		diff, report, err := s.reconcile(ctx, a, started)
		if err != nil {
			logging.Errorw(ctx, "Failed to store alert", "task_id", a.TaskID, "error", err)
			diffs = append(diffs, alerts.FromError(err))
			continue
		}
		if report {
			diffs = append(diffs, diff)
		}
	}
	s.rebuildIndex(ctx, merged)

	if !hasErrors {
		diffs = append(diffs, s.detectDeleted(ctx, started)...)
	}

	if err := s.cache.Set(snapshotKey, merged, s.config.FetchInterval, "energopro"); err != nil {
		logging.Warnw(ctx, "Failed to cache alert snapshot", "error", err)
	}

	logging.Infow(ctx, "Fetched alerts", "alerts", len(merged), "diffs", len(diffs), "errors", hasErrors)
	return diffs
}

// reconcile stores one fetched alert and reports whether it is new or changed
func (s *AlertsService) reconcile(ctx context.Context, a alerts.Alert, now time.Time) (alerts.AlertDiff, bool, error) {
	hash := s.hasher.HashAlert(a)
	fresh := a

	rec, err := s.store.FindByTaskID(ctx, a.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		created := now
		if err := s.store.Insert(ctx, alerts.Record{Alert: a, ContentHash: hash, CreatedDate: &created}); err != nil {
			return alerts.AlertDiff{}, false, err
		}
		return alerts.AlertDiff{New: &fresh}, true, nil
	}
	if err != nil {
		return alerts.AlertDiff{}, false, err
	}

	changed := rec.ContentHash != hash || rec.DeletedDate != nil
	if changed {
		if err := s.store.Update(ctx, a, hash); err != nil {
			return alerts.AlertDiff{}, false, err
		}
	}

	// Never published, so it still counts as new
	if len(rec.Posts) == 0 {
		return alerts.AlertDiff{New: &fresh}, true, nil
	}

	if !changed {
		return alerts.AlertDiff{}, false, nil
	}
	fieldDiffs := alerts.Diff(rec.Alert, a)
	if len(fieldDiffs) == 0 {
		return alerts.AlertDiff{}, false, nil
	}
	old := rec.Alert
	return alerts.AlertDiff{New: &fresh, Old: &old, Diffs: fieldDiffs}, true, nil
}

// detectDeleted marks stored alerts inside the lookahead window that the feed
// no longer lists
func (s *AlertsService) detectDeleted(ctx context.Context, now time.Time) []alerts.AlertDiff {
	records, err := s.store.FindActiveFuture(ctx, now)
	if err != nil {
		logging.Errorw(ctx, "Failed to load future alerts", "error", err)
		return []alerts.AlertDiff{alerts.FromError(err)}
	}

	horizon := now.AddDate(0, 0, s.lookaheadDays())

	s.mu.RLock()
	defer s.mu.RUnlock()

	var diffs []alerts.AlertDiff
	for i := range records {
		rec := records[i]
		if _, ok := s.byID[rec.TaskID]; ok {
			continue
		}
		if rec.Start().After(horizon) {
			continue
		}
		if err := s.store.MarkDeleted(ctx, rec.TaskID, now); err != nil {
			logging.Errorw(ctx, "Failed to mark alert deleted", "task_id", rec.TaskID, "error", err)
			diffs = append(diffs, alerts.FromError(err))
			continue
		}
		deletedAt := now
		rec.DeletedDate = &deletedAt
		if len(rec.Posts) > 0 {
			diffs = append(diffs, alerts.AlertDiff{Deleted: &rec})
		}
	}
	return diffs
}

func (s *AlertsService) lookaheadDays() int {
	if s.config.LookaheadDays > 0 {
		return s.config.LookaheadDays
	}
	return 60
}

func (s *AlertsService) indexEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID) == 0
}

// rebuildIndex replaces the id, day and city indexes with list
func (s *AlertsService) rebuildIndex(ctx context.Context, list []alerts.Alert) {
	byID := make(map[int64]alerts.Alert, len(list))
	byDate := make(map[string][]alerts.Alert)
	cities := make(map[int64][]string, len(list))

	for _, a := range list {
		byID[a.TaskID] = a
		day := DayKey(a.Start())
		byDate[day] = append(byDate[day], a)
		cities[a.TaskID] = s.cityNames(ctx, a)
	}

	s.mu.Lock()
	s.byID, s.byDate, s.cities = byID, byDate, cities
	s.mu.Unlock()
}

// cityNames returns the English names of the first-level areas of a
func (s *AlertsService) cityNames(ctx context.Context, a alerts.Alert) []string {
	namesGe := a.CitiesGe()
	out := make([]string, 0, len(namesGe))
	for _, ge := range namesGe {
		out = append(out, CityName(ctx, s.translator, ge))
	}
	return out
}

// CityName resolves a Georgian city name to English through the place table
// and then the translator, keeping the input on failure
func CityName(ctx context.Context, tr alerts.Translator, nameGe string) string {
	if en, ok := places.English(nameGe); ok {
		return en
	}
	if tr == nil {
		return nameGe
	}
	en, err := tr.Translate(ctx, nameGe)
	if err != nil || strings.TrimSpace(en) == "" {
		return nameGe
	}
	return strings.TrimSpace(en)
}

func (s *AlertsService) ensureFetched(ctx context.Context) {
	s.FetchAlerts(ctx, false)
}

// Alert returns the current feed version of an alert
func (s *AlertsService) Alert(ctx context.Context, taskID int64) (alerts.Alert, bool) {
	s.ensureFetched(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[taskID]
	return a, ok
}

// CitiesOf returns the English city names an indexed alert covers
func (s *AlertsService) CitiesOf(ctx context.Context, a alerts.Alert) []string {
	s.mu.RLock()
	names, ok := s.cities[a.TaskID]
	s.mu.RUnlock()
	if ok {
		return names
	}
	return s.cityNames(ctx, a)
}

// AlertsForDay returns the alerts starting on the Tbilisi day of day, ordered
// by start then end
func (s *AlertsService) AlertsForDay(ctx context.Context, day time.Time) []alerts.Alert {
	s.ensureFetched(ctx)

	s.mu.RLock()
	out := append([]alerts.Alert(nil), s.byDate[DayKey(day)]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start().Equal(out[j].Start()) {
			return out[i].Start().Before(out[j].Start())
		}
		return out[i].End().Before(out[j].End())
	})
	return out
}

// AlertsByCity groups the alerts of day by English city name. With a
// non-empty only, just that city is kept.
func (s *AlertsService) AlertsByCity(ctx context.Context, day time.Time, only string) map[string][]alerts.Alert {
	out := make(map[string][]alerts.Alert)
	for _, a := range s.AlertsForDay(ctx, day) {
		for _, city := range s.CitiesOf(ctx, a) {
			if only != "" && city != only {
				continue
			}
			out[city] = append(out[city], a)
		}
	}
	return out
}

// UpcomingDays returns the days from today on that have alerts, optionally
// only those touching city
func (s *AlertsService) UpcomingDays(ctx context.Context, city string) []time.Time {
	s.ensureFetched(ctx)
	today := DayKey(s.now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	var days []time.Time
	for key, list := range s.byDate {
		if key < today {
			continue
		}
		if city != "" && !s.anyInCity(list, city) {
			continue
		}
		day, err := ParseDay(key)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func (s *AlertsService) anyInCity(list []alerts.Alert, city string) bool {
	for _, a := range list {
		for _, name := range s.cities[a.TaskID] {
			if name == city {
				return true
			}
		}
	}
	return false
}

// Cities lists the cities with upcoming alerts, ordered by command
func (s *AlertsService) Cities(ctx context.Context) []CityInfo {
	s.ensureFetched(ctx)
	today := DayKey(s.now())

	s.mu.RLock()
	counts := make(map[string]int)
	for key, list := range s.byDate {
		if key < today {
			continue
		}
		for _, a := range list {
			for _, name := range s.cities[a.TaskID] {
				counts[name]++
			}
		}
	}
	s.mu.RUnlock()

	out := make([]CityInfo, 0, len(counts))
	for name, count := range counts {
		out = append(out, CityInfo{Name: name, Command: alerts.CityCommand(name), Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// CityByCommand finds the city whose command suffix is command
func (s *AlertsService) CityByCommand(ctx context.Context, command string) (string, bool) {
	for _, city := range s.Cities(ctx) {
		if city.Command == command {
			return city.Name, true
		}
	}
	return "", false
}

// AlertCount returns the number of upcoming alerts in city
func (s *AlertsService) AlertCount(ctx context.Context, city string) int {
	for _, c := range s.Cities(ctx) {
		if c.Name == city {
			return c.Count
		}
	}
	return 0
}
