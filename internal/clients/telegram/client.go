package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	// DefaultPostInterval paces channel posts below Telegram's flood limits
	DefaultPostInterval = 1500 * time.Millisecond
	// DefaultMaxTries bounds retries of a single API call
	DefaultMaxTries = 3
	// CaptionLimit is the longest photo caption Telegram accepts
	CaptionLimit = 1024
)

// API is the subset of *tgbotapi.BotAPI used by the client
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Options tunes retries and pacing
type Options struct {
	PostInterval time.Duration
	MaxTries     int
	OnError      func(err error)
}

// Client wraps the Bot API with retries, pacing and owner notifications
type Client struct {
	api     API
	ownerID int64
	limiter *rate.Limiter
	tries   int
	onError func(err error)
	sleep   func(ctx context.Context, d time.Duration) error
}

// New connects to the Bot API with token
func New(token string, ownerID int64, opts Options) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return nil, err
	}
	return NewWithAPI(api, ownerID, opts), nil
}

// NewWithAPI creates a client over an existing API implementation
func NewWithAPI(api API, ownerID int64, opts Options) *Client {
	if opts.PostInterval <= 0 {
		opts.PostInterval = DefaultPostInterval
	}
	if opts.MaxTries <= 0 {
		opts.MaxTries = DefaultMaxTries
	}
	return &Client{
		api:     api,
		ownerID: ownerID,
		limiter: rate.NewLimiter(rate.Every(opts.PostInterval), 1),
		tries:   opts.MaxTries,
		onError: opts.OnError,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OwnerID returns the chat id of the bot owner
func (c *Client) OwnerID() int64 {
	return c.ownerID
}

// withRetry runs fn until it succeeds, retrying only on flood control.
// Every failure is reported to onError.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	for try := 1; ; try++ {
		err := fn()
		if err == nil {
			return nil
		}
		if c.onError != nil {
			c.onError(err)
		}

		var tgErr *tgbotapi.Error
		if !errors.As(err, &tgErr) || tgErr.Code != http.StatusTooManyRequests || try >= c.tries {
			return err
		}

		wait := time.Duration(tgErr.RetryAfter+1) * time.Second
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// IsNotModified reports the error Telegram returns for an edit that changes
// nothing
func IsNotModified(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && tgErr.Code == http.StatusBadRequest &&
		strings.Contains(tgErr.Message, "message is not modified")
}

// baseChat addresses a numeric chat id or an @channel name
func baseChat(chat string) tgbotapi.BaseChat {
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return tgbotapi.BaseChat{ChatID: id}
	}
	return tgbotapi.BaseChat{ChannelUsername: chat}
}

func baseEdit(chat string, messageID int) tgbotapi.BaseEdit {
	b := baseChat(chat)
	return tgbotapi.BaseEdit{ChatID: b.ChatID, ChannelUsername: b.ChannelUsername, MessageID: messageID}
}

// SendOptions controls how a message is rendered
type SendOptions struct {
	Markdown       bool
	Silent         bool
	DisablePreview bool
}

func parseMode(markdown bool) string {
	if markdown {
		return tgbotapi.ModeMarkdown
	}
	return ""
}

// SendMessage sends text to a chat id or @channel
func (c *Client) SendMessage(ctx context.Context, chat, text string, opts SendOptions) (tgbotapi.Message, error) {
	msg := tgbotapi.MessageConfig{
		BaseChat:              baseChat(chat),
		Text:                  text,
		ParseMode:             parseMode(opts.Markdown),
		DisableWebPagePreview: opts.DisablePreview,
	}
	msg.DisableNotification = opts.Silent

	var sent tgbotapi.Message
	err := c.withRetry(ctx, func() error {
		var err error
		sent, err = c.api.Send(msg)
		return err
	})
	return sent, err
}

// SendPhoto sends an image by URL with a caption
func (c *Client) SendPhoto(ctx context.Context, chat, photoURL, caption string, opts SendOptions) (tgbotapi.Message, error) {
	photo := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: baseChat(chat),
			File:     tgbotapi.FileURL(photoURL),
		},
		Caption:   caption,
		ParseMode: parseMode(opts.Markdown),
	}
	photo.DisableNotification = opts.Silent

	var sent tgbotapi.Message
	err := c.withRetry(ctx, func() error {
		var err error
		sent, err = c.api.Send(photo)
		return err
	})
	return sent, err
}

// Post sends to a channel, waiting for the pacing limiter first
func (c *Client) Post(ctx context.Context, channel, text string, opts SendOptions) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return c.SendMessage(ctx, channel, text, opts)
}

// PostPhoto sends a photo to a channel, waiting for the pacing limiter first
func (c *Client) PostPhoto(ctx context.Context, channel, photoURL, caption string, opts SendOptions) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return c.SendPhoto(ctx, channel, photoURL, caption, opts)
}

// EditMessageText replaces the text of a sent message
func (c *Client) EditMessageText(ctx context.Context, chat string, messageID int, text string, markdown bool) error {
	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit:  baseEdit(chat, messageID),
		Text:      text,
		ParseMode: parseMode(markdown),
	}
	return c.withRetry(ctx, func() error {
		_, err := c.api.Request(edit)
		return err
	})
}

// EditMessageCaption replaces the caption of a sent photo
func (c *Client) EditMessageCaption(ctx context.Context, chat string, messageID int, caption string, markdown bool) error {
	edit := tgbotapi.EditMessageCaptionConfig{
		BaseEdit:  baseEdit(chat, messageID),
		Caption:   caption,
		ParseMode: parseMode(markdown),
	}
	return c.withRetry(ctx, func() error {
		_, err := c.api.Request(edit)
		return err
	})
}

// SendToOwner sends a plain message to the bot owner. It is a no-op when no
// owner is configured.
func (c *Client) SendToOwner(ctx context.Context, text string) error {
	if c.ownerID == 0 {
		return nil
	}
	_, err := c.SendMessage(ctx, strconv.FormatInt(c.ownerID, 10), text, SendOptions{DisablePreview: true})
	return err
}

// SetCommands publishes the command menu
func (c *Client) SetCommands(ctx context.Context, commands ...tgbotapi.BotCommand) error {
	cfg := tgbotapi.NewSetMyCommands(commands...)
	return c.withRetry(ctx, func() error {
		_, err := c.api.Request(cfg)
		return err
	})
}

// Updates starts long polling
func (c *Client) Updates(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return c.api.GetUpdatesChan(u)
}

// Stop ends long polling
func (c *Client) Stop() {
	c.api.StopReceivingUpdates()
}
