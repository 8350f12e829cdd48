package services

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/georgia-utilities/alertbot/internal/clients/telegram"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

// AlertFeed fetches energo-pro alerts for one Georgian city name
type AlertFeed interface {
	FetchCity(ctx context.Context, cityGe string) ([]alerts.Alert, error)
}

// SocarFeed fetches gas outages for one Georgian city name
type SocarFeed interface {
	FetchCity(ctx context.Context, cityGe string) ([]alerts.SocarAlert, error)
}

// AlertStore persists alerts and their posts
type AlertStore interface {
	FindByTaskID(ctx context.Context, taskID int64) (*alerts.Record, error)
	Insert(ctx context.Context, rec alerts.Record) error
	Update(ctx context.Context, a alerts.Alert, contentHash string) error
	AddPost(ctx context.Context, taskID int64, post alerts.Post) error
	MarkDeleted(ctx context.Context, taskID int64, at time.Time) error
	FindBetween(ctx context.Context, from, to time.Time) ([]alerts.Record, error)
	FindActiveFuture(ctx context.Context, now time.Time) ([]alerts.Record, error)
	FindPosted(ctx context.Context, now time.Time) ([]alerts.Record, error)
}

// SocarStore remembers which gas outages were already published
type SocarStore interface {
	InsertSocar(ctx context.Context, a alerts.SocarAlert) (bool, error)
}

// Messenger is the Telegram surface used by the services
type Messenger interface {
	SendMessage(ctx context.Context, chat, text string, opts telegram.SendOptions) (tgbotapi.Message, error)
	Post(ctx context.Context, channel, text string, opts telegram.SendOptions) (tgbotapi.Message, error)
	PostPhoto(ctx context.Context, channel, photoURL, caption string, opts telegram.SendOptions) (tgbotapi.Message, error)
	EditMessageText(ctx context.Context, chat string, messageID int, text string, markdown bool) error
	EditMessageCaption(ctx context.Context, chat string, messageID int, caption string, markdown bool) error
	SendToOwner(ctx context.Context, text string) error
	OwnerID() int64
}

// CityInfo is one city with upcoming alerts
type CityInfo struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Count   int    `json:"count"`
}

const dayLayout = "2006-01-02"

// DayKey formats t as a Tbilisi calendar day
func DayKey(t time.Time) string {
	return t.In(alerts.Tbilisi).Format(dayLayout)
}

// StartOfDay returns Tbilisi midnight of the day containing t
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(alerts.Tbilisi).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, alerts.Tbilisi)
}

// ParseDay parses a YYYY-MM-DD day in Tbilisi time
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, value, alerts.Tbilisi)
}

// NewAlertsService is implemented in alerts.go
// NewMapService is implemented in maps.go
// NewPoster is implemented in poster.go
// NewBot is implemented in bot.go
// NewScheduler is implemented in scheduler.go
// NewHandlers is implemented in handlers.go
