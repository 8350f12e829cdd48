package alerts

import (
	"sort"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
)

// DayAreas merges the areas of list into one tree. Every node lists the task
// IDs of the alerts that touch it.
func DayAreas(list []Alert) areatree.AreaTreeWithArray[int64] {
	merged := areatree.NewAreaTreeWithArray[int64](areatree.RootName)
	for _, a := range list {
		merged.Merge(areatree.FromAreaTreeWithArray(a.Areas(), a.TaskID).AreaTree)
	}
	return merged
}

// RestoreTimes merges the areas of list into one tree whose nodes carry the
// latest end time of the alerts touching them
func RestoreTimes(list []Alert) areatree.AreaTreeWithData[string] {
	byEnd := append([]Alert(nil), list...)
	sort.SliceStable(byEnd, func(i, j int) bool {
		return byEnd[i].End().Before(byEnd[j].End())
	})

	// Data keeps the last merged value, so the latest end wins
	merged := areatree.NewAreaTreeWithData(areatree.RootName, "")
	for _, a := range byEnd {
		merged.Merge(areatree.FromAreaTreeWithData(a.Areas(), formatTime(a.End())).AreaTree)
	}
	return merged
}

// DayOverview renders the merged areas of one day as two indented listings:
// alert IDs per area, then when each area is restored
func DayOverview(caption string, list []Alert) string {
	if len(list) == 0 {
		return caption + "\nNo alerts\n"
	}
	return caption + "\n\nAlerts by area\n" + DayAreas(list).Format() +
		"\nRestored by\n" + RestoreTimes(list).Format()
}
