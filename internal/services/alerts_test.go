package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

func TestFetchAlerts_NewAlertsAreStoredAndIndexed(t *testing.T) {
	f := newFixture(t)
	kobuletiPart := batumiAlert()
	kobuletiPart.ScName = "Kobuleti"
	kobuletiPart.DisconnectionArea = "ქობულეთი/ზღვის ქუჩა"
	f.expectFeed([]alerts.Alert{batumiAlert()}, []alerts.Alert{kutaisiAlert(), kobuletiPart})

	diffs := f.alerts.FetchAlerts(testContext(), true)

	require.Len(t, diffs, 2)
	for _, d := range diffs {
		assert.True(t, d.IsNew())
	}
	rec := f.store.get(101)
	require.NotNil(t, rec)
	assert.Equal(t, "Batumi / Kobuleti", rec.ScName)
	assert.NotEmpty(t, rec.ContentHash)
	require.NotNil(t, rec.CreatedDate)

	a, ok := f.alerts.Alert(testContext(), 101)
	require.True(t, ok)
	assert.Equal(t, []string{"Batumi", "Kobuleti"}, f.alerts.CitiesOf(testContext(), a))
	f.feed.AssertNumberOfCalls(t, "FetchCity", 2)
}

func TestFetchAlerts_ReusesSnapshotUnlessForced(t *testing.T) {
	f := newFixture(t)
	f.expectFeed([]alerts.Alert{batumiAlert()}, nil)
	ctx := testContext()

	f.alerts.FetchAlerts(ctx, true)
	assert.Empty(t, f.alerts.FetchAlerts(ctx, false))
	f.feed.AssertNumberOfCalls(t, "FetchCity", 2)

	f.alerts.FetchAlerts(ctx, true)
	f.feed.AssertNumberOfCalls(t, "FetchCity", 4)
}

func TestFetchAlerts_ReportsChangesOfPostedAlerts(t *testing.T) {
	f := newFixture(t)
	stored := batumiAlert()
	stored.TaskName = "Old name"
	f.store.put(alerts.Record{Alert: stored, Posts: []alerts.Post{{Channel: "@main", MessageID: 5}}})
	f.expectFeed([]alerts.Alert{batumiAlert()}, nil)

	diffs := f.alerts.FetchAlerts(testContext(), true)

	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].IsChanged())
	assert.Equal(t, []alerts.FieldDiff{{Field: "taskName", Old: "Old name", New: "Line repair"}}, diffs[0].Diffs)
	assert.Equal(t, "Line repair", f.store.get(101).TaskName)
}

func TestFetchAlerts_UnchangedPostedAlertIsQuiet(t *testing.T) {
	f := newFixture(t)
	a := batumiAlert()
	f.store.put(alerts.Record{
		Alert:       a,
		ContentHash: alerts.NewContentHasher().HashAlert(a),
		Posts:       []alerts.Post{{Channel: "@main", MessageID: 5}},
	})
	f.expectFeed([]alerts.Alert{a}, nil)

	assert.Empty(t, f.alerts.FetchAlerts(testContext(), true))
	assert.Equal(t, 0, f.store.updates)
}

func TestFetchAlerts_UnpostedAlertCountsAsNew(t *testing.T) {
	f := newFixture(t)
	f.store.put(alerts.Record{Alert: batumiAlert()})
	f.expectFeed([]alerts.Alert{batumiAlert()}, nil)

	diffs := f.alerts.FetchAlerts(testContext(), true)

	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].IsNew())
}

func TestFetchAlerts_MarksMissingAlertsDeleted(t *testing.T) {
	f := newFixture(t)
	gone := kutaisiAlert()
	f.store.put(alerts.Record{Alert: gone, Posts: []alerts.Post{{Channel: "@kutaisi", MessageID: 9}}})
	unposted := kutaisiAlert()
	unposted.TaskID = 203
	f.store.put(alerts.Record{Alert: unposted})
	f.expectFeed([]alerts.Alert{batumiAlert()}, nil)

	diffs := f.alerts.FetchAlerts(testContext(), true)

	var deleted []alerts.AlertDiff
	for _, d := range diffs {
		if d.Deleted != nil {
			deleted = append(deleted, d)
		}
	}
	require.Len(t, deleted, 1)
	assert.Equal(t, int64(202), deleted[0].Deleted.TaskID)
	require.NotNil(t, deleted[0].Deleted.DeletedDate)
	assert.NotNil(t, f.store.get(202).DeletedDate)
	assert.NotNil(t, f.store.get(203).DeletedDate)
}

func TestFetchAlerts_SkipsDeletionAfterFetchError(t *testing.T) {
	f := newFixture(t)
	f.store.put(alerts.Record{Alert: kutaisiAlert(), Posts: []alerts.Post{{Channel: "@kutaisi", MessageID: 9}}})
	f.feed.On("FetchCity", mock.Anything, "ბათუმი").Return([]alerts.Alert{batumiAlert()}, nil)
	f.feed.On("FetchCity", mock.Anything, "ქუთაისი").Return(nil, errors.New("timeout"))

	diffs := f.alerts.FetchAlerts(testContext(), true)

	require.Len(t, diffs, 2)
	require.Error(t, diffs[0].Err)
	assert.Contains(t, diffs[0].Err.Error(), "Kutaisi")
	assert.True(t, diffs[1].IsNew())
	assert.Nil(t, f.store.get(202).DeletedDate)
}

func TestFetchAlerts_WaitsForRunningCycle(t *testing.T) {
	f := newFixture(t)
	f.alerts.fetchMu.Lock()

	done := make(chan []alerts.AlertDiff, 1)
	go func() { done <- f.alerts.FetchAlerts(testContext(), true) }()

	require.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	f.alerts.fetchMu.Unlock()

	select {
	case diffs := <-done:
		assert.Empty(t, diffs)
	case <-time.After(time.Second):
		t.Fatal("waiting fetch did not return")
	}
	f.feed.AssertNotCalled(t, "FetchCity", mock.Anything, mock.Anything)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	f.expectFeed([]alerts.Alert{batumiAlert()}, []alerts.Alert{kutaisiAlert()})
	ctx := testContext()
	f.alerts.FetchAlerts(ctx, true)

	today := f.alerts.AlertsForDay(ctx, fixedNow)
	require.Len(t, today, 1)
	assert.Equal(t, int64(101), today[0].TaskID)

	byCity := f.alerts.AlertsByCity(ctx, fixedNow.AddDate(0, 0, 2), "")
	assert.Len(t, byCity["Kutaisi"], 1)
	assert.Empty(t, f.alerts.AlertsByCity(ctx, fixedNow.AddDate(0, 0, 2), "Batumi"))

	days := f.alerts.UpcomingDays(ctx, "")
	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-01", DayKey(days[0]))
	assert.Equal(t, "2024-05-03", DayKey(days[1]))

	kutaisiDays := f.alerts.UpcomingDays(ctx, "Kutaisi")
	require.Len(t, kutaisiDays, 1)
	assert.Equal(t, "2024-05-03", DayKey(kutaisiDays[0]))

	assert.Equal(t, []CityInfo{
		{Name: "Batumi", Command: "batumi", Count: 1},
		{Name: "Kutaisi", Command: "kutaisi", Count: 1},
	}, f.alerts.Cities(ctx))

	city, ok := f.alerts.CityByCommand(ctx, "kutaisi")
	assert.True(t, ok)
	assert.Equal(t, "Kutaisi", city)
	_, ok = f.alerts.CityByCommand(ctx, "poti")
	assert.False(t, ok)

	assert.Equal(t, 1, f.alerts.AlertCount(ctx, "Batumi"))
	assert.Equal(t, 0, f.alerts.AlertCount(ctx, "Poti"))
}

func TestUpcomingDaysSkipsPast(t *testing.T) {
	f := newFixture(t)
	f.expectFeed([]alerts.Alert{batumiAlert()}, []alerts.Alert{kutaisiAlert()})
	f.alerts.now = func() time.Time { return fixedNow.AddDate(0, 0, 1) }
	ctx := testContext()
	f.alerts.FetchAlerts(ctx, true)

	days := f.alerts.UpcomingDays(ctx, "")
	require.Len(t, days, 1)
	assert.Equal(t, "2024-05-03", DayKey(days[0]))
}

func TestDayHelpers(t *testing.T) {
	utc := time.Date(2024, 4, 30, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01", DayKey(utc))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, alerts.Tbilisi), StartOfDay(utc))

	day, err := ParseDay("2024-05-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-03", DayKey(day))
	_, err = ParseDay("03.05.2024")
	assert.Error(t, err)
}

func TestCityName(t *testing.T) {
	ctx := testContext()
	assert.Equal(t, "Batumi", CityName(ctx, nil, "ბათუმი"))
	assert.Equal(t, "სოფელი", CityName(ctx, nil, "სოფელი"))
}
