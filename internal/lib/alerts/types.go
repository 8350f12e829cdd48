package alerts

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
)

// Tbilisi is Georgia's fixed UTC+4 offset; feeds report local wall time
var Tbilisi = time.FixedZone("Asia/Tbilisi", 4*60*60)

// Translator is the Georgian to English translation contract shared with areatree
type Translator = areatree.Translator

// PlanType distinguishes scheduled work from emergency outages
type PlanType int

const (
	PlanPlanned PlanType = iota + 1
	PlanEmergency
)

// PlanTypeFromTask maps the feed's taskType; only "1" is planned
func PlanTypeFromTask(taskType string) PlanType {
	if strings.TrimSpace(taskType) == "1" {
		return PlanPlanned
	}
	return PlanEmergency
}

// Emoji returns the marker used in posts
func (p PlanType) Emoji() string {
	if p == PlanPlanned {
		return "⚙️"
	}
	return "⚠️"
}

// Text returns the human-readable plan name
func (p PlanType) Text() string {
	if p == PlanPlanned {
		return "Planned"
	}
	return "Emergency"
}

// FlexString decodes a JSON string, number or null into a string
type FlexString string

// UnmarshalJSON accepts any scalar
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

// Alert is one energo-pro outage record as published by the feed
type Alert struct {
	TaskID              int64      `json:"taskId" db:"task_id"`
	TaskName            string     `json:"taskName" db:"task_name"`
	TaskNote            string     `json:"taskNote" db:"task_note"`
	ScEffectedCustomers FlexString `json:"scEffectedCustomers" db:"sc_effected_customers"`
	DisconnectionArea   string     `json:"disconnectionArea" db:"disconnection_area"`
	RegionName          string     `json:"regionName" db:"region_name"`
	ScName              string     `json:"scName" db:"sc_name"`
	DisconnectionDate   string     `json:"disconnectionDate" db:"disconnection_date"`
	ReconnectionDate    string     `json:"reconnectionDate" db:"reconnection_date"`
	Dif                 FlexString `json:"dif" db:"dif"`
	TaskType            FlexString `json:"taskType" db:"task_type"`
}

// AlertsRoot is the searchAlerts response envelope
type AlertsRoot struct {
	Status int     `json:"status"`
	Data   []Alert `json:"data"`
}

var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

// ParseDate parses a feed timestamp as Tbilisi wall time
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, Tbilisi); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Start is the disconnection time, zero when unparsable
func (a Alert) Start() time.Time {
	t, _ := ParseDate(a.DisconnectionDate)
	return t
}

// End is the reconnection time, zero when unparsable
func (a Alert) End() time.Time {
	t, _ := ParseDate(a.ReconnectionDate)
	return t
}

// Plan returns the plan type of the alert
func (a Alert) Plan() PlanType {
	return PlanTypeFromTask(string(a.TaskType))
}

// Areas parses the disconnection area into a fresh tree
func (a Alert) Areas() *areatree.AreaTree {
	return areatree.Parse(a.DisconnectionArea)
}

// CitiesGe returns the Georgian city names at the first tree level
func (a Alert) CitiesGe() []string {
	return a.Areas().Names()
}

// ID returns the task id as a string key
func (a Alert) ID() string {
	return strconv.FormatInt(a.TaskID, 10)
}

// Post is a published channel message about an alert
type Post struct {
	Channel   string `json:"channel"`
	MessageID int    `json:"messageId"`
	HasPhoto  bool   `json:"hasPhoto"`
}

// Link returns the public t.me URL of the post
func (p Post) Link() string {
	return "https://t.me/" + strings.TrimPrefix(p.Channel, "@") + "/" + strconv.Itoa(p.MessageID)
}

// Record is a stored alert with its publication history
type Record struct {
	Alert
	ContentHash string     `json:"contentHash" db:"content_hash"`
	Posts       []Post     `json:"posts" db:"-"`
	CreatedDate *time.Time `json:"createdDate,omitempty" db:"created_date"`
	DeletedDate *time.Time `json:"deletedDate,omitempty" db:"deleted_date"`
}

// FieldDiff is one changed field between two versions of an alert
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// AlertDiff is one outcome of a fetch cycle. Exactly one of New (with Old
// for changes), Deleted or Err is meaningful.
type AlertDiff struct {
	New     *Alert      `json:"new,omitempty"`
	Old     *Alert      `json:"old,omitempty"`
	Diffs   []FieldDiff `json:"diffs,omitempty"`
	Deleted *Record     `json:"deleted,omitempty"`
	Err     error       `json:"-"`
}

// IsNew reports a first sighting
func (d AlertDiff) IsNew() bool {
	return d.New != nil && d.Old == nil
}

// IsChanged reports an update of a known alert
func (d AlertDiff) IsChanged() bool {
	return d.New != nil && d.Old != nil && len(d.Diffs) > 0
}

// FromError wraps a fetch failure
func FromError(err error) AlertDiff {
	return AlertDiff{Err: err}
}
