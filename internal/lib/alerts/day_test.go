package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
)

func dayAlerts() []Alert {
	return []Alert{
		{
			TaskID:            1,
			DisconnectionArea: "ბათუმი/რუსთაველის ქუჩა,ბათუმი/ლერმონტოვის ქუჩა",
			DisconnectionDate: "2024-05-01 10:00",
			ReconnectionDate:  "2024-05-01 14:00",
		},
		{
			TaskID:            2,
			DisconnectionArea: "ბათუმი/რუსთაველის ქუჩა",
			DisconnectionDate: "2024-05-01 09:00",
			ReconnectionDate:  "2024-05-01 18:30",
		},
		{
			TaskID:            3,
			DisconnectionArea: "ქუთაისი/ჭავჭავაძის ქუჩა",
			DisconnectionDate: "2024-05-01 11:00",
			ReconnectionDate:  "2024-05-01 12:00",
		},
	}
}

func TestDayAreas_ListsAlertsPerNode(t *testing.T) {
	merged := DayAreas(dayAlerts())

	assert.Equal(t, []int64{1, 2, 3}, merged.Values())
	assert.Equal(t, []string{"ბათუმი", "ქუთაისი"}, merged.Names())

	batumi, ok := merged.Get("ბათუმი")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, areatree.ArrayOf[int64](batumi))

	rustaveli, ok := batumi.Get("რუსთაველის ქუჩა")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, areatree.ArrayOf[int64](rustaveli))

	lermontov, ok := batumi.Get("ლერმონტოვის ქუჩა")
	require.True(t, ok)
	assert.Equal(t, []int64{1}, areatree.ArrayOf[int64](lermontov))

	assert.Equal(t,
		"ბათუმი [1, 2]\n"+
			"    ლერმონტოვის ქუჩა [1]\n"+
			"    რუსთაველის ქუჩა [1, 2]\n"+
			"ქუთაისი [3]\n"+
			"    ჭავჭავაძის ქუჩა [3]\n",
		merged.Format())
}

func TestRestoreTimes_LatestEndWins(t *testing.T) {
	list := dayAlerts()
	// input order must not matter
	list[0], list[1] = list[1], list[0]
	merged := RestoreTimes(list)

	batumi, ok := merged.Get("ბათუმი")
	require.True(t, ok)
	assert.Equal(t, "2024-05-01 18:30", batumi.AdditionalData())

	rustaveli, _ := batumi.Get("რუსთაველის ქუჩა")
	assert.Equal(t, "2024-05-01 18:30", rustaveli.AdditionalData())

	lermontov, _ := batumi.Get("ლერმონტოვის ქუჩა")
	value, ok := areatree.DataOf[string](lermontov)
	require.True(t, ok)
	assert.Equal(t, "2024-05-01 14:00", value)

	kutaisi, _ := merged.Get("ქუთაისი")
	assert.Equal(t, "2024-05-01 12:00", kutaisi.AdditionalData())
}

func TestDayOverview(t *testing.T) {
	text := DayOverview("Alerts for 2024-05-01", dayAlerts())
	assert.Contains(t, text, "Alerts for 2024-05-01\n\nAlerts by area\nბათუმი [1, 2]\n")
	assert.Contains(t, text, "\nRestored by\nბათუმი [2024-05-01 18:30]\n")
	assert.Contains(t, text, "    ჭავჭავაძის ქუჩა [2024-05-01 12:00]\n")

	assert.Equal(t, "Alerts for 2024-05-02\nNo alerts\n", DayOverview("Alerts for 2024-05-02", nil))
}
