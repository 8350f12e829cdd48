package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/georgia-utilities/alertbot/internal/lib/mapimage"
	"github.com/georgia-utilities/alertbot/internal/lib/streets"
)

// Config is the complete bot configuration
type Config struct {
	Bot        BotConfig        `yaml:"bot" koanf:"bot"`
	Feeds      FeedsConfig      `yaml:"feeds" koanf:"feeds"`
	Translator TranslatorConfig `yaml:"translator" koanf:"translator"`
	Database   DatabaseConfig   `yaml:"database" koanf:"database"`
	Redis      RedisConfig      `yaml:"redis" koanf:"redis"`
	Map        MapConfig        `yaml:"map" koanf:"map"`
	Schedule   ScheduleConfig   `yaml:"schedule" koanf:"schedule"`
	Corpus     CorpusConfig     `yaml:"corpus" koanf:"corpus"`
}

// BotConfig holds Telegram settings
type BotConfig struct {
	Token           string        `yaml:"token" koanf:"token"`
	OwnerID         int64         `yaml:"ownerId" koanf:"ownerId"`
	MainChannel     string        `yaml:"mainChannel" koanf:"mainChannel"`
	DisableChannels bool          `yaml:"disableChannels" koanf:"disableChannels"`
	PostInterval    time.Duration `yaml:"postInterval" koanf:"postInterval"`
	PollTimeout     int           `yaml:"pollTimeout" koanf:"pollTimeout"`
	SendPhotos      bool          `yaml:"sendPhotos" koanf:"sendPhotos"`
	PublicBaseURL   string        `yaml:"publicBaseUrl" koanf:"publicBaseUrl"`
}

// CityChannel ties a monitored city to its Telegram channel
type CityChannel struct {
	Name    string `yaml:"name" koanf:"name"`
	NameGe  string `yaml:"nameGe" koanf:"nameGe"`
	Channel string `yaml:"channel" koanf:"channel"`
}

// FeedsConfig holds the outage feed settings
type FeedsConfig struct {
	EnergoProURL  string        `yaml:"energoproUrl" koanf:"energoproUrl"`
	SocarURL      string        `yaml:"socarUrl" koanf:"socarUrl"`
	SocarEnabled  bool          `yaml:"socarEnabled" koanf:"socarEnabled"`
	FetchInterval time.Duration `yaml:"fetchInterval" koanf:"fetchInterval"`
	LookaheadDays int           `yaml:"lookaheadDays" koanf:"lookaheadDays"`
	Cities        []CityChannel `yaml:"cities" koanf:"cities"`
}

// TranslatorConfig holds translation backend and cache settings
type TranslatorConfig struct {
	OpenAIAPIKey string        `yaml:"openaiApiKey" koanf:"openaiApiKey"`
	Model        string        `yaml:"model" koanf:"model"`
	BaseURL      string        `yaml:"baseUrl" koanf:"baseUrl"`
	MemoryTTL    time.Duration `yaml:"memoryTtl" koanf:"memoryTtl"`
	RedisTTL     time.Duration `yaml:"redisTtl" koanf:"redisTtl"`
}

// DatabaseConfig holds the Postgres connection
type DatabaseConfig struct {
	URL string `yaml:"url" koanf:"url"`
}

// RedisConfig holds the optional Redis connection
type RedisConfig struct {
	Addr     string `yaml:"addr" koanf:"addr"`
	Password string `yaml:"password" koanf:"password"`
	DB       int    `yaml:"db" koanf:"db"`
	Prefix   string `yaml:"prefix" koanf:"prefix"`
}

// MapConfig holds map rendering and street resolution settings
type MapConfig struct {
	StaticURL           string               `yaml:"staticUrl" koanf:"staticUrl"`
	APIKey              string               `yaml:"apiKey" koanf:"apiKey"`
	Size                string               `yaml:"size" koanf:"size"`
	MaxURLLength        int                  `yaml:"maxUrlLength" koanf:"maxUrlLength"`
	PathWeight          int                  `yaml:"pathWeight" koanf:"pathWeight"`
	AcceptanceThreshold float64              `yaml:"acceptanceThreshold" koanf:"acceptanceThreshold"`
	NormalizationWeight float64              `yaml:"normalizationWeight" koanf:"normalizationWeight"`
	Weights             streets.ScoreWeights `yaml:"weights" koanf:"weights"`
}

// ScheduleConfig holds cron specs, evaluated in Tbilisi time
type ScheduleConfig struct {
	Enabled      bool   `yaml:"enabled" koanf:"enabled"`
	FetchCron    string `yaml:"fetchCron" koanf:"fetchCron"`
	TodayCron    string `yaml:"todayCron" koanf:"todayCron"`
	TomorrowCron string `yaml:"tomorrowCron" koanf:"tomorrowCron"`
	RenameCron   string `yaml:"renameCron" koanf:"renameCron"`
}

// CorpusConfig points at the per-city GeoJSON street files
type CorpusConfig struct {
	Dir string `yaml:"dir" koanf:"dir"`
}

// Unmarshaler decodes one configuration section; prefab.Config.Unmarshal
// satisfies it
type Unmarshaler func(path string, out interface{}) error

var sections = []string{"bot", "feeds", "translator", "database", "redis", "map", "schedule", "corpus"}

// Load starts from DefaultConfig, overlays every section found by unmarshal
// and then the environment
func Load(unmarshal Unmarshaler) (*Config, error) {
	cfg := DefaultConfig()
	targets := map[string]interface{}{
		"bot":        &cfg.Bot,
		"feeds":      &cfg.Feeds,
		"translator": &cfg.Translator,
		"database":   &cfg.Database,
		"redis":      &cfg.Redis,
		"map":        &cfg.Map,
		"schedule":   &cfg.Schedule,
		"corpus":     &cfg.Corpus,
	}
	// A configured city list replaces the defaults rather than merging into them
	defaultCities := cfg.Feeds.Cities
	cfg.Feeds.Cities = nil

	for _, section := range sections {
		if err := unmarshal(section, targets[section]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s section: %w", section, err)
		}
	}
	if len(cfg.Feeds.Cities) == 0 {
		cfg.Feeds.Cities = defaultCities
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// ApplyEnv overlays secrets and deployment values from the environment
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Bot.Token, "TELEGRAM_BOT_TOKEN")
	setString(&c.Bot.MainChannel, "TELEGRAM_CHANNEL_MAIN")
	if v := getenv("TELEGRAM_OWNER_ID"); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			c.Bot.OwnerID = id
		}
	}
	if v := getenv("TELEGRAM_DISABLE_CHANNELS"); v != "" {
		c.Bot.DisableChannels = v == "true" || v == "1"
	}
	for i := range c.Feeds.Cities {
		key := "TELEGRAM_CHANNEL_" + strings.ToUpper(c.Feeds.Cities[i].Name)
		setString(&c.Feeds.Cities[i].Channel, key)
	}

	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Translator.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Map.APIKey, "GOOGLE_MAPS_API_KEY")
}

// Validate reports settings the bot cannot run without
func (c *Config) Validate() error {
	if len(c.Feeds.Cities) == 0 {
		return fmt.Errorf("feeds.cities must list at least one city")
	}
	for _, city := range c.Feeds.Cities {
		if city.Name == "" || city.NameGe == "" {
			return fmt.Errorf("city %q needs both name and nameGe", city.Name)
		}
	}
	if c.Map.AcceptanceThreshold < 0 || c.Map.AcceptanceThreshold >= 1 {
		return fmt.Errorf("map.acceptanceThreshold must be in [0, 1)")
	}
	if c.Map.NormalizationWeight <= 0 {
		return fmt.Errorf("map.normalizationWeight must be positive")
	}
	w := c.Map.Weights
	if w.Exact <= 0 || w.Fuzzy < 0 {
		return fmt.Errorf("map.weights.exact must be positive and map.weights.fuzzy not negative")
	}
	if w.PrefixDivisor <= 0 {
		return fmt.Errorf("map.weights.prefixDivisor must be positive")
	}
	if w.JaroWinklerShare < 0 || w.JaroWinklerShare > 1 {
		return fmt.Errorf("map.weights.jaroWinklerShare must be in [0, 1]")
	}
	if w.FuzzyFloor < 0 || w.FuzzyFloor > 1 {
		return fmt.Errorf("map.weights.fuzzyFloor must be in [0, 1]")
	}
	return nil
}

// Channels returns the city channels keyed by English city name
func (c *Config) Channels() map[string]string {
	out := make(map[string]string, len(c.Feeds.Cities))
	for _, city := range c.Feeds.Cities {
		if city.Channel != "" {
			out[city.Name] = city.Channel
		}
	}
	return out
}

// ResolverOptions builds the street resolver settings
func (m MapConfig) ResolverOptions() streets.ResolverOptions {
	return streets.ResolverOptions{
		AcceptanceThreshold: m.AcceptanceThreshold,
		NormalizationWeight: m.NormalizationWeight,
	}
}

// ImageOptions builds the static map settings
func (m MapConfig) ImageOptions() mapimage.Options {
	return mapimage.Options{
		BaseURL:      m.StaticURL,
		APIKey:       m.APIKey,
		Size:         m.Size,
		MaxURLLength: m.MaxURLLength,
		PathWeight:   m.PathWeight,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	image := mapimage.DefaultOptions()
	resolver := streets.DefaultResolverOptions()

	return &Config{
		Bot: BotConfig{
			PostInterval: 1500 * time.Millisecond,
			PollTimeout:  60,
		},
		Feeds: FeedsConfig{
			EnergoProURL:  "https://my.energo-pro.ge/owback",
			SocarURL:      "https://utilixwebapi.azurewebsites.net/api/Outage/GetOutagesWithPaging",
			SocarEnabled:  true,
			FetchInterval: 15 * time.Minute,
			LookaheadDays: 60,
			Cities: []CityChannel{
				{Name: "Batumi", NameGe: "ბათუმი"},
				{Name: "Kutaisi", NameGe: "ქუთაისი"},
				{Name: "Kobuleti", NameGe: "ქობულეთი"},
			},
		},
		Translator: TranslatorConfig{
			Model:     "gpt-4o-mini",
			MemoryTTL: 24 * time.Hour,
			RedisTTL:  30 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Prefix: "alertbot:tr:",
		},
		Map: MapConfig{
			StaticURL:           image.BaseURL,
			Size:                image.Size,
			MaxURLLength:        image.MaxURLLength,
			PathWeight:          image.PathWeight,
			AcceptanceThreshold: resolver.AcceptanceThreshold,
			NormalizationWeight: resolver.NormalizationWeight,
			Weights:             streets.DefaultScoreWeights(),
		},
		Schedule: ScheduleConfig{
			Enabled:      true,
			FetchCron:    "*/10 * * * *",
			TodayCron:    "0 9 * * *",
			TomorrowCron: "0 21 * * *",
			RenameCron:   "5 0 * * *",
		},
		Corpus: CorpusConfig{
			Dir: "data/streets",
		},
	}
}
