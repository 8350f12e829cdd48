package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dpup/prefab/logging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/georgia-utilities/alertbot/internal/cache"
	"github.com/georgia-utilities/alertbot/internal/clients/telegram"
	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
	"github.com/georgia-utilities/alertbot/internal/store"
)

// fixedNow is 2024-05-01 08:00 in Tbilisi
var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, alerts.Tbilisi)

func clock() time.Time { return fixedNow }

// testContext carries the logger prefab logging expects
func testContext() context.Context {
	return logging.With(context.Background(), logging.NewDevLogger())
}

// MockFeed is a mock AlertFeed
type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) FetchCity(ctx context.Context, cityGe string) ([]alerts.Alert, error) {
	args := m.Called(ctx, cityGe)
	list, _ := args.Get(0).([]alerts.Alert)
	return list, args.Error(1)
}

// MockSocarFeed is a mock SocarFeed
type MockSocarFeed struct {
	mock.Mock
}

func (m *MockSocarFeed) FetchCity(ctx context.Context, cityGe string) ([]alerts.SocarAlert, error) {
	args := m.Called(ctx, cityGe)
	list, _ := args.Get(0).([]alerts.SocarAlert)
	return list, args.Error(1)
}

// memStore is an in-memory AlertStore and SocarStore
type memStore struct {
	mu      sync.Mutex
	records map[int64]*alerts.Record
	socar   map[int64]alerts.SocarAlert
	updates int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]*alerts.Record), socar: make(map[int64]alerts.SocarAlert)}
}

func (s *memStore) put(rec alerts.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.TaskID] = &rec
}

func (s *memStore) get(id int64) *alerts.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *memStore) FindByTaskID(_ context.Context, id int64) (*alerts.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *rec
	copied.Posts = append([]alerts.Post(nil), rec.Posts...)
	return &copied, nil
}

func (s *memStore) Insert(_ context.Context, rec alerts.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.TaskID] = &rec
	return nil
}

func (s *memStore) Update(_ context.Context, a alerts.Alert, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[a.TaskID]
	if !ok {
		return store.ErrNotFound
	}
	rec.Alert = a
	rec.ContentHash = hash
	rec.DeletedDate = nil
	s.updates++
	return nil
}

func (s *memStore) AddPost(_ context.Context, id int64, post alerts.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Posts = append(rec.Posts, post)
	return nil
}

func (s *memStore) MarkDeleted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.DeletedDate = &at
	return nil
}

func (s *memStore) filter(keep func(alerts.Record) bool) []alerts.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []alerts.Record
	for _, rec := range s.records {
		if keep(*rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start().Equal(out[j].Start()) {
			return out[i].Start().Before(out[j].Start())
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

func (s *memStore) FindBetween(_ context.Context, from, to time.Time) ([]alerts.Record, error) {
	return s.filter(func(r alerts.Record) bool {
		return !r.Start().Before(from) && r.Start().Before(to)
	}), nil
}

func (s *memStore) FindActiveFuture(_ context.Context, now time.Time) ([]alerts.Record, error) {
	return s.filter(func(r alerts.Record) bool {
		return r.DeletedDate == nil && !r.End().Before(now)
	}), nil
}

func (s *memStore) FindPosted(ctx context.Context, now time.Time) ([]alerts.Record, error) {
	active, _ := s.FindActiveFuture(ctx, now)
	var out []alerts.Record
	for _, r := range active {
		if len(r.Posts) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) InsertSocar(_ context.Context, a alerts.SocarAlert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.socar[a.ObjectID]; ok {
		return false, nil
	}
	s.socar[a.ObjectID] = a
	return true, nil
}

type sentMessage struct {
	Chat  string
	Text  string
	Photo string
	Opts  telegram.SendOptions
}

type editedMessage struct {
	Chat      string
	MessageID int
	Text      string
	Caption   bool
}

// fakeMessenger records everything sent through it
type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editedMessage
	owner   []string
	failFor map[string]error
	editErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, failFor: make(map[string]error)}
}

func (f *fakeMessenger) send(chat, text, photo string, opts telegram.SendOptions) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[chat]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{Chat: chat, Text: text, Photo: photo, Opts: opts})
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeMessenger) SendMessage(_ context.Context, chat, text string, opts telegram.SendOptions) (tgbotapi.Message, error) {
	return f.send(chat, text, "", opts)
}

func (f *fakeMessenger) Post(_ context.Context, channel, text string, opts telegram.SendOptions) (tgbotapi.Message, error) {
	return f.send(channel, text, "", opts)
}

func (f *fakeMessenger) PostPhoto(_ context.Context, channel, photoURL, caption string, opts telegram.SendOptions) (tgbotapi.Message, error) {
	return f.send(channel, caption, photoURL, opts)
}

func (f *fakeMessenger) edit(chat string, id int, text string, caption bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editedMessage{Chat: chat, MessageID: id, Text: text, Caption: caption})
	return nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chat string, id int, text string, _ bool) error {
	return f.edit(chat, id, text, false)
}

func (f *fakeMessenger) EditMessageCaption(_ context.Context, chat string, id int, caption string, _ bool) error {
	return f.edit(chat, id, caption, true)
}

func (f *fakeMessenger) SendToOwner(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = append(f.owner, text)
	return nil
}

func (f *fakeMessenger) OwnerID() int64 { return 42 }

func (f *fakeMessenger) sentTo(chat string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.Chat == chat {
			out = append(out, m)
		}
	}
	return out
}

func testFeedsConfig() *config.FeedsConfig {
	return &config.FeedsConfig{
		FetchInterval: 15 * time.Minute,
		LookaheadDays: 60,
		SocarEnabled:  true,
		Cities: []config.CityChannel{
			{Name: "Batumi", NameGe: "ბათუმი", Channel: "@batumi"},
			{Name: "Kutaisi", NameGe: "ქუთაისი", Channel: "@kutaisi"},
		},
	}
}

func batumiAlert() alerts.Alert {
	return alerts.Alert{
		TaskID:            101,
		TaskName:          "Line repair",
		DisconnectionArea: "ბათუმი/რუსთაველის ქუჩა",
		RegionName:        "Adjara",
		ScName:            "Batumi",
		DisconnectionDate: "2024-05-01 10:00",
		ReconnectionDate:  "2024-05-01 14:30",
		TaskType:          "1",
	}
}

func kutaisiAlert() alerts.Alert {
	return alerts.Alert{
		TaskID:            202,
		TaskName:          "Emergency works",
		DisconnectionArea: "ქუთაისი/ჭავჭავაძის ქუჩა",
		RegionName:        "Imereti",
		ScName:            "Kutaisi",
		DisconnectionDate: "2024-05-03 09:00",
		ReconnectionDate:  "2024-05-03 12:00",
		TaskType:          "2",
	}
}

type fixture struct {
	feed   *MockFeed
	store  *memStore
	tg     *fakeMessenger
	alerts *AlertsService
	poster *Poster
	bot    *config.BotConfig
	feeds  *config.FeedsConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		feed:  &MockFeed{},
		store: newMemStore(),
		tg:    newFakeMessenger(),
		bot:   &config.BotConfig{MainChannel: "@main"},
		feeds: testFeedsConfig(),
	}
	f.alerts = NewAlertsService(f.feed, f.store, nil, cache.NewCache(), f.feeds, nil)
	f.alerts.now = clock
	f.poster = NewPoster(PosterDeps{
		Alerts:     f.alerts,
		Store:      f.store,
		SocarStore: f.store,
		Messenger:  f.tg,
	}, f.bot, f.feeds)
	f.poster.now = clock
	require.NotNil(t, f.poster)
	return f
}

// expectFeed makes the mock return list for Batumi and Kutaisi
func (f *fixture) expectFeed(batumi, kutaisi []alerts.Alert) {
	f.feed.On("FetchCity", mock.Anything, "ბათუმი").Return(batumi, nil)
	f.feed.On("FetchCity", mock.Anything, "ქუთაისი").Return(kutaisi, nil)
}
