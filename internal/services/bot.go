package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/georgia-utilities/alertbot/internal/clients/telegram"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

// Commands is the menu published with SetCommands
var Commands = []tgbotapi.BotCommand{
	{Command: "today", Description: "All today warnings"},
	{Command: "tomorrow", Description: "All tomorrow warnings"},
	{Command: "upcoming", Description: "All upcoming alerts grouped by day"},
	{Command: "cities", Description: "All cities with upcoming alerts"},
}

const startText = "Let's start!\nMy commands:\n/today\n/tomorrow\n/upcoming\n/cities\n"

// Bot answers chat commands
type Bot struct {
	alerts     *AlertsService
	poster     *Poster
	tg         Messenger
	translator alerts.Translator
	pause      time.Duration
	now        func() time.Time
}

// NewBot creates a new Bot
func NewBot(alertsService *AlertsService, poster *Poster, tg Messenger, translator alerts.Translator) *Bot {
	return &Bot{
		alerts:     alertsService,
		poster:     poster,
		tg:         tg,
		translator: translator,
		pause:      300 * time.Millisecond,
		now:        time.Now,
	}
}

// Run handles updates until ctx is done or the channel closes
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.safeHandle(ctx, update)
		}
	}
}

func (b *Bot) safeHandle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			err, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "Bot: recovered from panic",
				"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
		}
	}()
	b.HandleUpdate(ctx, update)
}

// HandleUpdate dispatches one incoming message
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	command := strings.SplitN(text, "@", 2)[0]

	logging.Infow(ctx, "Command", "command", command, "chat_id", msg.Chat.ID)
	chat := strconv.FormatInt(msg.Chat.ID, 10)

	switch command {
	case "/start":
		b.reply(ctx, chat, startText, false)
		return
	case "/today":
		b.reply(ctx, chat, b.summary(ctx, b.now(), "Today's alerts:", ""), false)
		return
	case "/tomorrow":
		b.reply(ctx, chat, b.summary(ctx, b.now().AddDate(0, 0, 1), "Tomorrow's alerts:", ""), false)
		return
	case "/check_today", "/check_today_debug":
		now := b.now()
		b.runAction(ctx, chat, b.poster.PostAlertsForDay(ctx, now, TodayCaption(now), command == "/check_today_debug"))
		return
	case "/check_tomorrow", "/check_tomorrow_debug":
		tomorrow := b.now().AddDate(0, 0, 1)
		b.runAction(ctx, chat, b.poster.PostAlertsForDay(ctx, tomorrow, TomorrowCaption(tomorrow), command == "/check_tomorrow_debug"))
		return
	case "/upcoming":
		b.sendUpcoming(ctx, chat, "")
		return
	case "/cities":
		b.reply(ctx, chat, b.citiesText(ctx), false)
		return
	}

	switch {
	case strings.HasPrefix(command, "/alert_"):
		b.sendAlert(ctx, chat, strings.TrimPrefix(command, "/alert_"))
	case strings.HasPrefix(command, "/upcoming_"):
		cityCommand := strings.TrimPrefix(command, "/upcoming_")
		city, ok := b.alerts.CityByCommand(ctx, cityCommand)
		if !ok {
			b.reply(ctx, chat, "No alerts for "+cityCommand, false)
			return
		}
		b.sendUpcoming(ctx, chat, city)
	}
}

func (b *Bot) reply(ctx context.Context, chat, text string, markdown bool) {
	if _, err := b.tg.SendMessage(ctx, chat, text, telegram.SendOptions{Markdown: markdown}); err != nil {
		logging.Errorw(ctx, "Failed to reply", "chat", chat, "error", err)
	}
}

func (b *Bot) runAction(ctx context.Context, chat string, err error) {
	if err != nil {
		b.reply(ctx, chat, err.Error(), false)
	}
}

func (b *Bot) summary(ctx context.Context, day time.Time, caption, city string) string {
	return alerts.SummaryForDate(caption, b.alerts.AlertsByCity(ctx, day, city), city != "")
}

func (b *Bot) sendUpcoming(ctx context.Context, chat, city string) {
	days := b.alerts.UpcomingDays(ctx, city)
	if len(days) == 0 {
		if city == "" {
			b.reply(ctx, chat, "No upcoming alerts", false)
		} else {
			b.reply(ctx, chat, "No upcoming alerts for "+alerts.CityCommand(city), false)
		}
		return
	}

	for i, day := range days {
		if i > 0 && b.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.pause):
			}
		}
		b.reply(ctx, chat, b.summary(ctx, day, "Alerts for "+DayKey(day), city), false)
	}
}

func (b *Bot) citiesText(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString("Cities with upcoming alerts:\n")
	for _, city := range b.alerts.Cities(ctx) {
		fmt.Fprintf(&sb, "%s:  %d    /upcoming_%s \n", city.Name, city.Count, city.Command)
	}
	return sb.String()
}

func (b *Bot) sendAlert(ctx context.Context, chat, rawID string) {
	taskID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.reply(ctx, chat, "Cannot find alert with id "+rawID, false)
		return
	}
	a, ok := b.alerts.Alert(ctx, taskID)
	if !ok {
		b.reply(ctx, chat, fmt.Sprintf("Cannot find alert with id %d", taskID), false)
		return
	}
	b.reply(ctx, chat, alerts.FormatSingle(ctx, a, b.translator), true)
}
