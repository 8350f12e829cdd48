package alerts

import (
	"strings"
)

// MergeDuplicates collapses alerts sharing a taskId into one. The feed
// splits a task per service center; text fields are joined from their
// distinct values and the rest comes from the first record. Output keeps
// first-seen order.
func MergeDuplicates(alerts []Alert) []Alert {
	groups := make(map[int64][]Alert, len(alerts))
	var order []int64
	for _, a := range alerts {
		if _, ok := groups[a.TaskID]; !ok {
			order = append(order, a.TaskID)
		}
		groups[a.TaskID] = append(groups[a.TaskID], a)
	}

	out := make([]Alert, 0, len(order))
	for _, id := range order {
		group := groups[id]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, mergeGroup(group))
	}
	return out
}

func mergeGroup(group []Alert) Alert {
	first := group[0]
	return Alert{
		TaskID:              first.TaskID,
		TaskType:            first.TaskType,
		ScName:              joinUnique(group, func(a Alert) string { return a.ScName }, " / "),
		RegionName:          joinUnique(group, func(a Alert) string { return a.RegionName }, ", "),
		TaskNote:            joinUnique(group, func(a Alert) string { return a.TaskNote }, "\n"),
		DisconnectionDate:   first.DisconnectionDate,
		ReconnectionDate:    first.ReconnectionDate,
		DisconnectionArea:   joinUnique(group, func(a Alert) string { return a.DisconnectionArea }, ","),
		TaskName:            joinUnique(group, func(a Alert) string { return a.TaskName }, ". "),
		ScEffectedCustomers: first.ScEffectedCustomers,
		Dif:                 first.Dif,
	}
}

func joinUnique(group []Alert, field func(Alert) string, sep string) string {
	seen := make(map[string]bool, len(group))
	values := make([]string, 0, len(group))
	for _, a := range group {
		v := field(a)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return strings.Join(values, sep)
}

// FilterScheduled drops alerts the feed has not dated yet
func FilterScheduled(alerts []Alert) []Alert {
	out := alerts[:0:0]
	for _, a := range alerts {
		if strings.TrimSpace(a.DisconnectionDate) == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Diff lists the fields that differ between the stored and fetched versions
func Diff(old, fresh Alert) []FieldDiff {
	fields := []struct {
		name     string
		old, new string
	}{
		{"taskName", old.TaskName, fresh.TaskName},
		{"taskNote", old.TaskNote, fresh.TaskNote},
		{"scEffectedCustomers", string(old.ScEffectedCustomers), string(fresh.ScEffectedCustomers)},
		{"disconnectionArea", old.DisconnectionArea, fresh.DisconnectionArea},
		{"regionName", old.RegionName, fresh.RegionName},
		{"scName", old.ScName, fresh.ScName},
		{"disconnectionDate", old.DisconnectionDate, fresh.DisconnectionDate},
		{"reconnectionDate", old.ReconnectionDate, fresh.ReconnectionDate},
		{"taskType", string(old.TaskType), string(fresh.TaskType)},
	}

	var diffs []FieldDiff
	for _, f := range fields {
		if f.old != f.new {
			diffs = append(diffs, FieldDiff{Field: f.name, Old: f.old, New: f.new})
		}
	}
	return diffs
}
