package alerts

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// FeedTime decodes the zone-less timestamps of the feeds as Tbilisi time
type FeedTime struct {
	time.Time
}

// UnmarshalJSON accepts any layout known to ParseDate
func (t *FeedTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("unrecognized time %q", s)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes RFC 3339
func (t FeedTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Scan implements sql.Scanner
func (t *FeedTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v
	default:
		return fmt.Errorf("cannot scan %T into FeedTime", src)
	}
	return nil
}

// Value implements driver.Valuer
func (t FeedTime) Value() (driver.Value, error) {
	return t.Time, nil
}

// SocarDetail carries the notification texts of a gas outage
type SocarDetail struct {
	NotificationTitle         string `json:"notificationTitle"`
	NotificationDescription   string `json:"notificationDescription"`
	NotificationTitleEN       string `json:"notificationTitleEN"`
	NotificationDescriptionEN string `json:"notificationDescriptionEN"`
}

// Scan implements sql.Scanner for the JSONB detail column
func (d *SocarDetail) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = SocarDetail{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return errors.New("unsupported detail column type")
	}
}

// Value implements driver.Valuer
func (d SocarDetail) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// SocarAlert is one gas outage from the Socar feed
type SocarAlert struct {
	ID                FlexString  `json:"id" db:"id"`
	ObjectID          int64       `json:"objectId" db:"object_id"`
	Description       string      `json:"description" db:"description"`
	Title             string      `json:"title" db:"title"`
	AffectedCustomers int         `json:"affectedCustomers" db:"affected_customers"`
	Start             FeedTime    `json:"start" db:"start_time"`
	End               FeedTime    `json:"end" db:"end_time"`
	NotifiedCustomers int         `json:"notifiedCustomers" db:"notified_customers"`
	IsNotified        bool        `json:"isNotified" db:"is_notified"`
	Type              FlexString  `json:"type" db:"type"`
	DocflowCode       FlexString  `json:"docflowCode" db:"docflow_code"`
	DateChanged       bool        `json:"dateChanged" db:"date_changed"`
	Created           FeedTime    `json:"created" db:"created"`
	IsPending         bool        `json:"isPending" db:"is_pending"`
	IsDeactivated     bool        `json:"isDeactivated" db:"is_deactivated"`
	Detail            SocarDetail `json:"detail" db:"detail"`
}

// IsCity reports whether the outage is in the municipality of cityGe
func (s SocarAlert) IsCity(cityGe string) bool {
	if cityGe == "" {
		return false
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(cityGe) + "ს? მუნიციპალიტეტში")
	if err != nil {
		return false
	}
	return re.MatchString(s.Detail.NotificationDescription)
}

// IsActual reports whether the outage has not ended yet
func (s SocarAlert) IsActual(now time.Time) bool {
	return !s.End.Before(now)
}

// DateRange formats the outage window, omitting the second date on the same day
func (s SocarAlert) DateRange() string {
	from, to := s.Start.In(Tbilisi), s.End.In(Tbilisi)
	if from.Format("2006-01-02") == to.Format("2006-01-02") {
		return fmt.Sprintf("%s - %s", from.Format("2006-01-02 15:04"), to.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04"))
}

// Format renders the channel post for a gas outage
func (s SocarAlert) Format(ctx context.Context, tr Translator) string {
	title := translateOrKeep(ctx, tr, s.Title)
	return fmt.Sprintf("*%s*\n\n💨 #Socar Gas shutdown\n\n*Date:*  %s\n\n%s [%d]",
		title, s.DateRange(), s.Detail.NotificationTitleEN, s.ObjectID)
}

// SocarPage is the paged response envelope of the Socar feed
type SocarPage struct {
	Items      []SocarAlert `json:"items"`
	TotalCount int          `json:"totalCount"`
	PageIndex  int          `json:"pageIndex"`
	TotalPages int          `json:"totalPages"`
}
