package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/georgia-utilities/alertbot/internal/clients/telegram"
	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
	"github.com/georgia-utilities/alertbot/internal/lib/mapimage"
)

// Poster publishes alerts to the Telegram channels and keeps the posts current
type Poster struct {
	alerts     *AlertsService
	store      AlertStore
	socarFeed  SocarFeed
	socarStore SocarStore
	maps       *MapService
	tg         Messenger
	translator alerts.Translator
	bot        *config.BotConfig
	feeds      *config.FeedsConfig
	metrics    *Metrics
	now        func() time.Time
}

// PosterDeps bundles the collaborators of a Poster. Maps and the Socar
// fields are optional.
type PosterDeps struct {
	Alerts     *AlertsService
	Store      AlertStore
	SocarFeed  SocarFeed
	SocarStore SocarStore
	Maps       *MapService
	Messenger  Messenger
	Translator alerts.Translator
	Metrics    *Metrics
}

// NewPoster creates a new Poster
func NewPoster(deps PosterDeps, bot *config.BotConfig, feeds *config.FeedsConfig) *Poster {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Poster{
		alerts:     deps.Alerts,
		store:      deps.Store,
		socarFeed:  deps.SocarFeed,
		socarStore: deps.SocarStore,
		maps:       deps.Maps,
		tg:         deps.Messenger,
		translator: deps.Translator,
		bot:        bot,
		feeds:      feeds,
		metrics:    metrics,
		now:        time.Now,
	}
}

// ChannelsFor returns the main channel followed by the channels of the given
// English city names, without duplicates
func (p *Poster) ChannelsFor(cities []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(ch string) {
		if ch == "" || seen[ch] {
			return
		}
		seen[ch] = true
		out = append(out, ch)
	}

	add(p.bot.MainChannel)
	for _, name := range cities {
		for _, city := range p.feeds.Cities {
			if city.Name == name {
				add(city.Channel)
			}
		}
	}
	return out
}

// shouldNotify reports whether t falls on today or tomorrow
func (p *Poster) shouldNotify(t time.Time) bool {
	today := StartOfDay(p.now())
	day := StartOfDay(t)
	return day.Equal(today) || day.Equal(today.AddDate(0, 0, 1))
}

func (p *Poster) translate(ctx context.Context, text string) string {
	if p.translator == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := p.translator.Translate(ctx, text)
	if err != nil || out == "" {
		return text
	}
	return out
}

func (p *Poster) owner(ctx context.Context, text string) {
	if err := p.tg.SendToOwner(ctx, text); err != nil {
		logging.Errorw(ctx, "Failed to message owner", "error", err)
	}
}

// FetchAndSendNewAlerts runs a forced fetch and publishes its outcome: new
// alerts go to the channels, withdrawn ones get their posts edited and
// changes are reported to the owner
func (p *Poster) FetchAndSendNewAlerts(ctx context.Context) error {
	diffs := p.alerts.FetchAlerts(ctx, true)
	if len(diffs) == 0 {
		p.owner(ctx, "No new alerts "+p.now().In(alerts.Tbilisi).Format("2006-01-02 15:04"))
	}

	for _, d := range diffs {
		switch {
		case d.Err != nil:
			p.owner(ctx, d.Err.Error())
		case d.Deleted != nil:
			p.UpdatePosts(ctx, *d.Deleted)
		case d.IsNew():
			if err := p.SendAlertToChannels(ctx, *d.New); err != nil {
				logging.Errorw(ctx, "Failed to publish alert", "task_id", d.New.TaskID, "error", err)
			}
		case d.IsChanged():
			diffJSON, _ := json.Marshal(d.Diffs)
			p.owner(ctx, fmt.Sprintf("Changed alert %s /alert_%d\n%s", d.New.ScName, d.New.TaskID, diffJSON))
		case d.New != nil:
			p.owner(ctx, fmt.Sprintf("¯\\_(ツ)_/¯ /alert_%d", d.New.TaskID))
		}
	}

	if p.feeds.SocarEnabled && p.socarFeed != nil && p.socarStore != nil {
		if err := p.SendSocarAlerts(ctx); err != nil {
			logging.Errorw(ctx, "Failed to publish gas outages", "error", err)
		}
	}
	return nil
}

// SendAlertToChannels posts a new alert to the main channel and the channels
// of its cities and records every post. Posts are silent unless the outage
// starts today or tomorrow.
func (p *Poster) SendAlertToChannels(ctx context.Context, a alerts.Alert) error {
	if p.bot.DisableChannels {
		return nil
	}

	channels := p.ChannelsFor(p.alerts.CitiesOf(ctx, a))
	text := alerts.FormatSingle(ctx, a, p.translator)
	opts := telegram.SendOptions{Markdown: true, Silent: !p.shouldNotify(a.Start())}

	var imageURL string
	if p.bot.SendPhotos && p.maps != nil {
		imageURL = p.maps.ImageURL(a)
	}
	asPhoto := imageURL != "" && imageURL != mapimage.PlaceholderURL &&
		len([]rune(text)) <= telegram.CaptionLimit
	if imageURL != "" && !asPhoto {
		text += alerts.ImageLink(imageURL)
	}

	var failed int
	for _, channel := range channels {
		var (
			messageID int
			err       error
		)
		if asPhoto {
			msg, sendErr := p.tg.PostPhoto(ctx, channel, imageURL, text, opts)
			messageID, err = msg.MessageID, sendErr
		} else {
			msg, sendErr := p.tg.Post(ctx, channel, text, opts)
			messageID, err = msg.MessageID, sendErr
		}
		if err != nil {
			logging.Errorw(ctx, "Failed to send alert to channel",
				"task_id", a.TaskID, "channel", channel, "error", err)
			failed++
			continue
		}
		p.metrics.PostsSent.WithLabelValues("alert").Inc()

		post := alerts.Post{Channel: channel, MessageID: messageID, HasPhoto: asPhoto}
		if err := p.store.AddPost(ctx, a.TaskID, post); err != nil {
			logging.Errorw(ctx, "Failed to record post", "task_id", a.TaskID, "error", err)
		}
	}
	if failed > 0 && failed == len(channels) {
		return fmt.Errorf("alert %d was not delivered to any of %d channels", a.TaskID, failed)
	}
	return nil
}

// UpdatePosts rewrites every post of rec with its current text, marking it
// cancelled when the alert was withdrawn
func (p *Poster) UpdatePosts(ctx context.Context, rec alerts.Record) int {
	if len(rec.Posts) == 0 {
		logging.Warnw(ctx, "Cannot update posts of alert without posts", "task_id", rec.TaskID)
		return 0
	}

	var text string
	if rec.DeletedDate != nil {
		text = alerts.FormatDeleted(ctx, rec.Alert, p.translator)
	} else {
		text = alerts.FormatSingle(ctx, rec.Alert, p.translator)
	}

	var edited int
	for _, post := range rec.Posts {
		var err error
		if post.HasPhoto {
			err = p.tg.EditMessageCaption(ctx, post.Channel, post.MessageID, text, true)
		} else {
			err = p.tg.EditMessageText(ctx, post.Channel, post.MessageID, text, true)
		}

		report := "Changing post " + post.Link()
		switch {
		case err == nil:
			edited++
			p.metrics.PostsSent.WithLabelValues("edit").Inc()
		case telegram.IsNotModified(err):
			report = "Already edited " + post.Link()
		default:
			logging.Errorw(ctx, "Failed to edit post", "link", post.Link(), "error", err)
			report = err.Error()
		}
		p.owner(ctx, report)
	}
	return edited
}

// EditAllPostedAlerts refreshes the text of every live posted alert, picking
// up improved translations
func (p *Poster) EditAllPostedAlerts(ctx context.Context) (int, error) {
	records, err := p.store.FindPosted(ctx, p.now())
	if err != nil {
		return 0, fmt.Errorf("failed to load posted alerts: %w", err)
	}

	var edited int
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return edited, err
		}
		edited += p.UpdatePosts(ctx, rec)
	}
	return edited, nil
}

// PostAlertsForDay sends each channel a digest linking its posts about
// alerts starting on day. The main channel is only included in debug mode,
// where every digest goes to the owner instead.
func (p *Poster) PostAlertsForDay(ctx context.Context, day time.Time, caption string, debug bool) error {
	from := StartOfDay(day)
	records, err := p.store.FindBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to load alerts for %s: %w", DayKey(day), err)
	}
	logging.Infow(ctx, "Posting daily digest", "day", DayKey(day), "alerts", len(records))

	var order []string
	lines := make(map[string][]string)
	for _, rec := range records {
		if rec.DeletedDate != nil {
			continue
		}
		if len(rec.Posts) == 0 {
			logging.Debugw(ctx, "Alert has no posts", "task_id", rec.TaskID)
			continue
		}
		name := p.translate(ctx, rec.TaskName)
		for _, post := range rec.Posts {
			if post.Channel == p.bot.MainChannel && !debug {
				continue
			}
			if _, ok := lines[post.Channel]; !ok {
				order = append(order, post.Channel)
			}
			lines[post.Channel] = append(lines[post.Channel], alerts.DigestLine(rec.Alert, name, post.Link()))
		}
	}

	if len(order) == 0 {
		p.owner(ctx, "No alerts for "+DayKey(day))
		return nil
	}

	for _, channel := range order {
		text := alerts.Digest(caption, lines[channel])
		var err error
		if debug {
			_, err = p.tg.SendMessage(ctx, strconv.FormatInt(p.tg.OwnerID(), 10), text, telegram.SendOptions{Markdown: true})
		} else {
			_, err = p.tg.Post(ctx, channel, text, telegram.SendOptions{Markdown: true})
		}
		if err != nil {
			logging.Errorw(ctx, "Failed to send digest", "channel", channel, "error", err)
			continue
		}
		p.metrics.PostsSent.WithLabelValues("digest").Inc()
	}
	return nil
}

// TodayCaption titles the morning digest
func TodayCaption(day time.Time) string { return "Today! " + DayKey(day) }

// TomorrowCaption titles the evening digest
func TomorrowCaption(day time.Time) string { return "Tomorrow " + DayKey(day) }

// SendToday posts today's digests after notifying the owner
func (p *Poster) SendToday(ctx context.Context) error {
	now := p.now()
	p.owner(ctx, "Daily morning report "+now.In(alerts.Tbilisi).Format("2006-01-02 15:04"))
	return p.PostAlertsForDay(ctx, now, TodayCaption(now), false)
}

// SendTomorrow posts tomorrow's digests after notifying the owner
func (p *Poster) SendTomorrow(ctx context.Context) error {
	now := p.now()
	p.owner(ctx, "Daily evening report "+now.In(alerts.Tbilisi).Format("2006-01-02 15:04"))
	tomorrow := now.AddDate(0, 0, 1)
	return p.PostAlertsForDay(ctx, tomorrow, TomorrowCaption(tomorrow), false)
}

// UpdatePostedAlerts runs the nightly re-edit of all live posts
func (p *Poster) UpdatePostedAlerts(ctx context.Context) error {
	day := DayKey(p.now())
	p.owner(ctx, "Daily midnight renaming "+day)
	edited, err := p.EditAllPostedAlerts(ctx)
	if err != nil {
		return err
	}
	p.owner(ctx, fmt.Sprintf("Daily midnight renaming ended, %d posts edited", edited))
	return nil
}

// SendSocarAlerts publishes gas outages that were not seen before to the
// main channel and the channel of their city
func (p *Poster) SendSocarAlerts(ctx context.Context) error {
	now := p.now()
	var errs []string

	for _, city := range p.feeds.Cities {
		if city.NameGe == "" {
			continue
		}
		list, err := p.socarFeed.FetchCity(ctx, city.NameGe)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", city.Name, err))
			continue
		}
		p.metrics.AlertsFetched.WithLabelValues("socar").Add(float64(len(list)))

		for _, outage := range list {
			if !outage.IsActual(now) || !outage.IsCity(city.NameGe) {
				continue
			}
			inserted, err := p.socarStore.InsertSocar(ctx, outage)
			if err != nil {
				errs = append(errs, fmt.Sprintf("store %d: %v", outage.ObjectID, err))
				continue
			}
			if !inserted || p.bot.DisableChannels {
				continue
			}

			text := outage.Format(ctx, p.translator)
			opts := telegram.SendOptions{Markdown: true, Silent: !p.shouldNotify(outage.Start.Time)}
			for _, channel := range p.ChannelsFor([]string{city.Name}) {
				if _, err := p.tg.Post(ctx, channel, text, opts); err != nil {
					logging.Errorw(ctx, "Failed to send gas outage", "object_id", outage.ObjectID, "channel", channel, "error", err)
					continue
				}
				p.metrics.PostsSent.WithLabelValues("socar").Inc()
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("gas outages: %s", strings.Join(errs, "; "))
	}
	return nil
}
