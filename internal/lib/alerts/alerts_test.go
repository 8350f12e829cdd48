package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dictTranslator map[string]string

func (d dictTranslator) Translate(_ context.Context, text string) (string, error) {
	if en, ok := d[text]; ok {
		return en, nil
	}
	return "", errors.New("unknown")
}

const feedJSON = `{
  "status": 200,
  "data": [
    {"taskId": 101, "taskName": "ხაზის შეკეთება", "taskNote": "", "scEffectedCustomers": 120,
     "disconnectionArea": "ბათუმი/ჭავჭავაძის ქ.", "regionName": "აჭარა", "scName": "ბათუმი",
     "disconnectionDate": "2024-05-01 10:00", "reconnectionDate": "2024-05-01 14:30", "dif": null, "taskType": "1"},
    {"taskId": 101, "taskName": "ხაზის შეკეთება", "taskNote": "შენიშვნა", "scEffectedCustomers": "40",
     "disconnectionArea": "ქობულეთი/რუსთაველის ქ.", "regionName": "აჭარა", "scName": "ქობულეთი",
     "disconnectionDate": "2024-05-01 10:00", "reconnectionDate": "2024-05-01 14:30", "dif": 3, "taskType": 1},
    {"taskId": 102, "taskName": "ავარია", "taskNote": "", "scEffectedCustomers": "5",
     "disconnectionArea": "ქუთაისი", "regionName": "იმერეთი", "scName": "ქუთაისი",
     "disconnectionDate": "", "reconnectionDate": "", "dif": "", "taskType": "2"}
  ]
}`

func decodeFeed(t *testing.T) []Alert {
	t.Helper()
	var root AlertsRoot
	require.NoError(t, json.Unmarshal([]byte(feedJSON), &root))
	return root.Data
}

func TestAlert_Decode(t *testing.T) {
	alerts := decodeFeed(t)
	require.Len(t, alerts, 3)

	assert.Equal(t, FlexString("120"), alerts[0].ScEffectedCustomers)
	assert.Equal(t, FlexString(""), alerts[0].Dif)
	assert.Equal(t, FlexString("1"), alerts[1].TaskType)
	assert.Equal(t, PlanPlanned, alerts[1].Plan())
	assert.Equal(t, PlanEmergency, alerts[2].Plan())

	start := alerts[0].Start()
	assert.Equal(t, time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC), start.UTC())
	assert.True(t, alerts[2].Start().IsZero())
	assert.Equal(t, "101", alerts[0].ID())
	assert.Equal(t, []string{"ბათუმი"}, alerts[0].CitiesGe())
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-05-01 10:00", "2024-05-01T10:00:00", "2024-05-01 10:00:00", "2024-05-01T10:00"} {
		ts, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, 10, ts.Hour())
		assert.Equal(t, Tbilisi, ts.Location())
	}
	_, ok := ParseDate("tomorrow")
	assert.False(t, ok)
}

func TestMergeDuplicates(t *testing.T) {
	merged := MergeDuplicates(decodeFeed(t))
	require.Len(t, merged, 2)

	m := merged[0]
	assert.Equal(t, int64(101), m.TaskID)
	assert.Equal(t, "ბათუმი / ქობულეთი", m.ScName)
	assert.Equal(t, "აჭარა", m.RegionName)
	assert.Equal(t, "\nშენიშვნა", m.TaskNote)
	assert.Equal(t, "ბათუმი/ჭავჭავაძის ქ.,ქობულეთი/რუსთაველის ქ.", m.DisconnectionArea)
	assert.Equal(t, "ხაზის შეკეთება", m.TaskName)
	assert.Equal(t, FlexString("120"), m.ScEffectedCustomers)
	assert.Equal(t, []string{"ბათუმი", "ქობულეთი"}, m.CitiesGe())

	assert.Equal(t, int64(102), merged[1].TaskID)
}

func TestFilterScheduled(t *testing.T) {
	filtered := FilterScheduled(decodeFeed(t))
	require.Len(t, filtered, 2)
	for _, a := range filtered {
		assert.Equal(t, int64(101), a.TaskID)
	}
}

func TestDiff(t *testing.T) {
	alerts := decodeFeed(t)
	old, fresh := alerts[0], alerts[0]
	assert.Empty(t, Diff(old, fresh))

	fresh.ReconnectionDate = "2024-05-01 16:00"
	fresh.Dif = "9"
	diffs := Diff(old, fresh)
	require.Len(t, diffs, 1)
	assert.Equal(t, FieldDiff{Field: "reconnectionDate", Old: "2024-05-01 14:30", New: "2024-05-01 16:00"}, diffs[0])
}

func TestAlertDiff_Kinds(t *testing.T) {
	a := decodeFeed(t)[0]
	assert.True(t, AlertDiff{New: &a}.IsNew())
	assert.False(t, AlertDiff{New: &a, Old: &a}.IsChanged())
	assert.True(t, AlertDiff{New: &a, Old: &a, Diffs: []FieldDiff{{Field: "x"}}}.IsChanged())
	assert.Error(t, FromError(errors.New("x")).Err)
}

func TestContentHasher(t *testing.T) {
	h := NewContentHasher()
	a := decodeFeed(t)[0]
	b := a

	b.Dif = "77"
	b.TaskName = "  ხაზის   შეკეთება. "
	assert.Equal(t, h.HashAlert(a), h.HashAlert(b), "counter and punctuation changes are ignored")

	b.ReconnectionDate = "2024-05-01 18:00"
	assert.NotEqual(t, h.HashAlert(a), h.HashAlert(b))
	assert.Len(t, h.HashAlert(a), 64)
}

func TestPost_Link(t *testing.T) {
	assert.Equal(t, "https://t.me/batumi_alerts/42", Post{Channel: "@batumi_alerts", MessageID: 42}.Link())
}

func TestFormatSingle(t *testing.T) {
	a := MergeDuplicates(decodeFeed(t))[0]
	tr := dictTranslator{"ბათუმი / ქობულეთი": "Batumi / Kobuleti", "ხაზის შეკეთება": "Line repair", "აჭარა": "Adjara", "შენიშვნა": "Note_1"}

	out := FormatSingle(context.Background(), a, tr)
	assert.True(t, strings.HasPrefix(out, "⚙️ *[Batumi / Kobuleti]* Line repair\n\n"), out)
	assert.Contains(t, out, "*Start:* 2024-05-01 10:00\n")
	assert.Contains(t, out, "*End:* 2024-05-01 14:30\n")
	assert.Contains(t, out, "*Region:* Adjara\n")
	assert.Contains(t, out, "\n*Area:*\nBatumi\n    ჭავჭავაძის ქ.\nKobuleti\n    რუსთაველის ქ.\n")
	assert.Contains(t, out, "Note\\_1")
}

func TestFormatSingle_EmergencyAndFallback(t *testing.T) {
	a := decodeFeed(t)[2]
	out := FormatSingle(context.Background(), a, nil)
	assert.True(t, strings.HasPrefix(out, "⚠️ _Emergency_ *[ქუთაისი]* ავარია"), out)
	assert.Contains(t, out, "*Start:* -\n")

	deleted := FormatDeleted(context.Background(), a, nil)
	assert.True(t, strings.HasPrefix(deleted, "❌ *Cancelled*\n\n⚠️"))
}

func TestImageLink(t *testing.T) {
	assert.Empty(t, ImageLink(""))
	assert.Equal(t, "\n[\u200b\u200b\u200b](https://x/map.png)", ImageLink("https://x/map.png"))
}

func TestDigest(t *testing.T) {
	a := decodeFeed(t)[0]
	line := DigestLine(a, "Line [repair]", "https://t.me/c/1")
	assert.Equal(t, "[10:00-14:30 Line (repair)](https://t.me/c/1)\n", line)
	assert.Equal(t, "*Today!*\n\n"+line, Digest("Today!", []string{line}))
}

func TestSummaryForDate(t *testing.T) {
	alerts := FilterScheduled(decodeFeed(t))
	early := alerts[0]
	early.DisconnectionDate = "2024-05-01 08:00"

	out := SummaryForDate("Alerts for 2024-05-01", map[string][]Alert{
		"Kobuleti": {alerts[0]},
		"Batumi":   {alerts[0], early},
		"Poti":     nil,
	}, false)
	assert.Equal(t, "Alerts for 2024-05-01\n"+
		"Batumi\n⚙️ 08:00 - 14:30 /alert_101\n⚙️ 10:00 - 14:30 /alert_101\n\n"+
		"Kobuleti\n⚙️ 10:00 - 14:30 /alert_101\n\n", out)

	filtered := SummaryForDate("Alerts for 2024-05-01", map[string][]Alert{"Batumi": alerts[:1]}, true)
	assert.Equal(t, "Alerts for 2024-05-01\n⚙️ 10:00 - 14:30 /alert_101\n\n", filtered)

	assert.Equal(t, "Today's alerts:\nNo alerts", SummaryForDate("Today's alerts:", nil, false))
}

func TestCityCommand(t *testing.T) {
	assert.Equal(t, "batumi", CityCommand("Batumi"))
	assert.Equal(t, "ozurgeti_municipality", CityCommand("Ozurgeti Municipality"))
	assert.Equal(t, "khulo_keda", CityCommand("Khulo-Keda"))
	assert.Equal(t, "a_b", CityCommand("a/b"))
}

const socarJSON = `{"items":[{"id":"7","objectId":5512,"description":"","title":"გაზის შეწყვეტა",
  "affectedCustomers":15,"start":"2024-05-02T09:00:00","end":"2024-05-02T17:00:00",
  "notifiedCustomers":0,"isNotified":false,"type":1,"docflowCode":null,"dateChanged":false,
  "created":"2024-05-01T12:00:00","isPending":false,"isDeactivated":false,
  "detail":{"notificationTitle":"","notificationDescription":"ბათუმის მუნიციპალიტეტში, ...",
  "notificationTitleEN":"Gas supply interruption","notificationDescriptionEN":""}}],
  "totalCount":1,"pageIndex":1,"totalPages":1}`

func TestSocarAlert(t *testing.T) {
	var page SocarPage
	require.NoError(t, json.Unmarshal([]byte(socarJSON), &page))
	require.Len(t, page.Items, 1)
	s := page.Items[0]

	assert.Equal(t, FlexString("7"), s.ID)
	assert.Equal(t, FlexString("1"), s.Type)
	assert.Equal(t, int64(5512), s.ObjectID)
	assert.Equal(t, 9, s.Start.Hour())

	assert.True(t, s.IsCity("ბათუმი"))
	assert.False(t, s.IsCity("ქუთაისი"))
	assert.False(t, s.IsCity(""))

	assert.True(t, s.IsActual(s.Start.Time))
	assert.False(t, s.IsActual(s.End.Add(time.Minute)))
	assert.Equal(t, "2024-05-02 09:00 - 17:00", s.DateRange())

	out := s.Format(context.Background(), dictTranslator{"გაზის შეწყვეტა": "Gas outage"})
	assert.Equal(t, "*Gas outage*\n\n💨 #Socar Gas shutdown\n\n*Date:*  2024-05-02 09:00 - 17:00\n\nGas supply interruption [5512]", out)

	h := NewContentHasher()
	assert.Len(t, h.HashSocar(s), 64)

	detail, err := s.Detail.Value()
	require.NoError(t, err)
	var back SocarDetail
	require.NoError(t, back.Scan(detail))
	assert.Equal(t, s.Detail, back)
}
