package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadYAML reads a yaml file the way prefab reads prefab.yaml
func loadYAML(t *testing.T, path string) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(file.Provider(path), yaml.Parser()))
	return k
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_CHANNEL_MAIN", "TELEGRAM_CHANNEL_BATUMI", "TELEGRAM_CHANNEL_KUTAISI",
		"TELEGRAM_CHANNEL_KOBULETI", "TELEGRAM_CHANNEL_POTI", "TELEGRAM_DISABLE_CHANNELS",
	} {
		t.Setenv(key, "")
	}
}

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 15*time.Minute, cfg.Feeds.FetchInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Bot.PostInterval)
	assert.Equal(t, "*/10 * * * *", cfg.Schedule.FetchCron)
	assert.Len(t, cfg.Feeds.Cities, 3)
	assert.Equal(t, "ბათუმი", cfg.Feeds.Cities[0].NameGe)
	assert.Equal(t, 0.25, cfg.Map.AcceptanceThreshold)
	assert.Equal(t, 4.0, cfg.Map.Weights.Exact)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envOf(map[string]string{
		"TELEGRAM_BOT_TOKEN":        "123:abc",
		"TELEGRAM_OWNER_ID":         " 42 ",
		"TELEGRAM_CHANNEL_MAIN":     "@ge_alerts",
		"TELEGRAM_CHANNEL_BATUMI":   "@batumi_alerts",
		"TELEGRAM_DISABLE_CHANNELS": "true",
		"DATABASE_URL":              "postgres://localhost/alerts",
		"REDIS_ADDR":                "localhost:6379",
		"OPENAI_API_KEY":            "sk-test",
		"GOOGLE_MAPS_API_KEY":       "maps-key",
	}))

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(42), cfg.Bot.OwnerID)
	assert.Equal(t, "@ge_alerts", cfg.Bot.MainChannel)
	assert.True(t, cfg.Bot.DisableChannels)
	assert.Equal(t, "@batumi_alerts", cfg.Feeds.Cities[0].Channel)
	assert.Equal(t, "", cfg.Feeds.Cities[1].Channel)
	assert.Equal(t, "postgres://localhost/alerts", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "sk-test", cfg.Translator.OpenAIAPIKey)
	assert.Equal(t, "maps-key", cfg.Map.APIKey)
	assert.Equal(t, map[string]string{"Batumi": "@batumi_alerts"}, cfg.Channels())
}

func TestApplyEnvIgnoresBadOwnerID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.OwnerID = 7
	cfg.ApplyEnv(envOf(map[string]string{"TELEGRAM_OWNER_ID": "not-a-number"}))
	assert.Equal(t, int64(7), cfg.Bot.OwnerID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no cities", func(c *Config) { c.Feeds.Cities = nil }},
		{"missing georgian name", func(c *Config) { c.Feeds.Cities[0].NameGe = "" }},
		{"threshold too high", func(c *Config) { c.Map.AcceptanceThreshold = 1 }},
		{"zero normalization", func(c *Config) { c.Map.NormalizationWeight = 0 }},
		{"zero prefix divisor", func(c *Config) { c.Map.Weights.PrefixDivisor = 0 }},
		{"zero exact weight", func(c *Config) { c.Map.Weights.Exact = 0 }},
		{"jaro-winkler share above one", func(c *Config) { c.Map.Weights.JaroWinklerShare = 1.5 }},
		{"negative fuzzy floor", func(c *Config) { c.Map.Weights.FuzzyFloor = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	var seen []string
	cfg, err := Load(func(path string, out interface{}) error {
		seen = append(seen, path)
		if path == "bot" {
			out.(*BotConfig).MainChannel = "@from_yaml"
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, sections, seen)
	assert.Equal(t, "@from_yaml", cfg.Bot.MainChannel)
	assert.Equal(t, 15*time.Minute, cfg.Feeds.FetchInterval)
}

func TestLoadUnmarshalError(t *testing.T) {
	_, err := Load(func(path string, out interface{}) error {
		if path == "map" {
			return errors.New("bad yaml")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map section")
}

func TestResolverAndImageOptions(t *testing.T) {
	m := DefaultConfig().Map
	m.APIKey = "k"

	assert.Equal(t, 0.25, m.ResolverOptions().AcceptanceThreshold)
	img := m.ImageOptions()
	assert.Equal(t, "k", img.APIKey)
	assert.Equal(t, 8192, img.MaxURLLength)
}

func TestLoadShippedPrefabYAML(t *testing.T) {
	clearEnv(t)
	k := loadYAML(t, filepath.Join("..", "..", "prefab.yaml"))
	require.Equal(t, "@georgia_outages", k.String("bot.mainChannel"))

	cfg, err := Load(k.Unmarshal)
	require.NoError(t, err)

	assert.Equal(t, "@georgia_outages", cfg.Bot.MainChannel)
	assert.True(t, cfg.Bot.SendPhotos)
	assert.Equal(t, 1500*time.Millisecond, cfg.Bot.PostInterval)
	assert.Equal(t, 15*time.Minute, cfg.Feeds.FetchInterval)
	assert.Equal(t, map[string]string{"Batumi": "@batumi_outages", "Kutaisi": "@kutaisi_outages"}, cfg.Channels())
	assert.Equal(t, 720*time.Hour, cfg.Translator.RedisTTL)
	assert.Equal(t, 0.5, cfg.Map.Weights.FuzzyFloor)
	assert.Equal(t, "5 0 * * *", cfg.Schedule.RenameCron)
}

const overrideYAML = `
bot:
  mainChannel: "@test_main"
  sendPhotos: false
  postInterval: 2s
feeds:
  lookaheadDays: 14
  cities:
    - name: Poti
      nameGe: ფოთი
      channel: "@poti"
translator:
  memoryTtl: 1h
map:
  maxUrlLength: 4096
  acceptanceThreshold: 0.4
  normalizationWeight: 3
  weights:
    exact: 5
    prefixDivisor: 2
    fuzzy: 1
    jaroWinklerShare: 0.5
    fuzzyFloor: 0.6
schedule:
  fetchCron: "*/5 * * * *"
corpus:
  dir: /srv/streets
`

func TestLoadYAMLOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "prefab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))

	cfg, err := Load(loadYAML(t, path).Unmarshal)
	require.NoError(t, err)

	assert.Equal(t, "@test_main", cfg.Bot.MainChannel)
	assert.False(t, cfg.Bot.SendPhotos)
	assert.Equal(t, 2*time.Second, cfg.Bot.PostInterval)
	assert.Equal(t, 60, cfg.Bot.PollTimeout, "unset keys keep their defaults")
	assert.Equal(t, 14, cfg.Feeds.LookaheadDays)
	assert.Equal(t, []CityChannel{{Name: "Poti", NameGe: "ფოთი", Channel: "@poti"}}, cfg.Feeds.Cities)
	assert.Equal(t, time.Hour, cfg.Translator.MemoryTTL)
	assert.Equal(t, 4096, cfg.Map.MaxURLLength)

	opts := cfg.Map.ResolverOptions()
	assert.Equal(t, 0.4, opts.AcceptanceThreshold)
	assert.Equal(t, 3.0, opts.NormalizationWeight)
	assert.Equal(t, 2.0, cfg.Map.Weights.PrefixDivisor)
	assert.Equal(t, 0.6, cfg.Map.Weights.FuzzyFloor)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule.FetchCron)
	assert.Equal(t, "0 9 * * *", cfg.Schedule.TodayCron)
	assert.Equal(t, "/srv/streets", cfg.Corpus.Dir)
}
