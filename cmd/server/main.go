package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/georgia-utilities/alertbot/internal/cache"
	"github.com/georgia-utilities/alertbot/internal/clients/energopro"
	"github.com/georgia-utilities/alertbot/internal/clients/socar"
	"github.com/georgia-utilities/alertbot/internal/clients/telegram"
	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/services"
	"github.com/georgia-utilities/alertbot/internal/store"
	"github.com/georgia-utilities/alertbot/internal/translator"
)

func main() {
	// Secrets may live in .env during development
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Configuration comes from prefab.yaml, PF__ variables and the plain env
	appConfig, err := config.Load(prefab.Config.Unmarshal)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if appConfig.Bot.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if appConfig.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// Services log through prefab, which expects a logger on the context
	ctx, cancel := context.WithCancel(logging.With(context.Background(), logging.NewProdLogger()))
	defer cancel()

	metrics := services.NewMetrics(prometheus.DefaultRegisterer)

	// Storage
	db, err := store.Open(ctx, appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	alertStore := store.New(db)
	if err := alertStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, time.Hour)

	// Translation chain: memory, then Redis when configured, then Postgres
	tiers := []translator.Tier{cache.NewTranslationCache(cacheInstance, appConfig.Translator.MemoryTTL)}
	if appConfig.Redis.Addr != "" {
		redisClient, err := cache.DialRedis(ctx, appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
		if err != nil {
			log.Printf("Redis unavailable, continuing without it: %v", err)
		} else {
			defer redisClient.Close()
			tiers = append(tiers, cache.NewRedisCache(redisClient, appConfig.Redis.Prefix, appConfig.Translator.RedisTTL))
		}
	}
	tiers = append(tiers, alertStore.Translations())

	var backend translator.Backend
	if appConfig.Translator.OpenAIAPIKey != "" {
		backend = translator.NewOpenAITranslator(appConfig.Translator.OpenAIAPIKey, appConfig.Translator.Model, appConfig.Translator.BaseURL)
		log.Printf("OpenAI translation enabled (model: %s)", appConfig.Translator.Model)
	} else {
		log.Printf("No OpenAI API key, untranslated text is posted as is")
	}
	tr := translator.NewChain(backend, tiers...).WithObserver(metrics.ObserveTranslation)

	// Street corpus for maps
	var maps *services.MapService
	corpus := newCorpus(appConfig)
	if corpus != nil {
		maps = services.NewMapService(corpus, appConfig.Map.ResolverOptions(), appConfig.Map.ImageOptions(), metrics)
	}

	// Telegram
	tg, err := telegram.New(appConfig.Bot.Token, appConfig.Bot.OwnerID, telegram.Options{
		PostInterval: appConfig.Bot.PostInterval,
		OnError: func(err error) {
			slog.Warn("Telegram API error", "error", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	defer tg.Stop()

	// Services
	alertsService := services.NewAlertsService(
		energopro.NewClient(appConfig.Feeds.EnergoProURL), alertStore, tr, cacheInstance, &appConfig.Feeds, metrics)
	poster := services.NewPoster(services.PosterDeps{
		Alerts:     alertsService,
		Store:      alertStore,
		SocarFeed:  socar.NewClient(appConfig.Feeds.SocarURL),
		SocarStore: alertStore,
		Maps:       maps,
		Messenger:  tg,
		Translator: tr,
		Metrics:    metrics,
	}, &appConfig.Bot, &appConfig.Feeds)
	bot := services.NewBot(alertsService, poster, tg, tr)
	scheduler := services.NewScheduler(ctx, poster, &appConfig.Schedule)
	defer scheduler.Stop()
	handlers := services.NewHandlers(poster, alertsService, maps, scheduler)

	log.Printf("Georgia utilities alert bot starting")
	log.Printf("Cities monitored: %d", len(appConfig.Feeds.Cities))

	if err := tg.SetCommands(ctx, services.Commands...); err != nil {
		log.Printf("Failed to set bot commands: %v", err)
	}

	if appConfig.Schedule.Enabled {
		report, err := scheduler.Recreate()
		if err != nil {
			log.Fatalf("Failed to schedule jobs: %v", err)
		}
		log.Printf("Scheduler: %s", report)
	}

	go func() {
		if err := poster.FetchAndSendNewAlerts(ctx); err != nil {
			log.Printf("Initial fetch failed: %v", err)
		}
		bot.Run(ctx, tg.Updates(appConfig.Bot.PollTimeout))
	}()

	// Create Prefab server with GRPC reflection enabled
	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	routes := handlers.Routes()
	server := prefab.New(
		prefab.WithGRPCReflection(),
		prefab.WithHTTPHandlerFunc("/api/", routes.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/createCronJobs", routes.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/metrics", promhttp.Handler().ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server.ServiceRegistrar(), healthServer)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Georgia Utilities Alert</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">Georgia Utilities Alert</span>

Telegram bot publishing planned and emergency power and gas outages
from energo-pro.ge and mygas.ge, translated to English.

<span class="header">Actions (POST):</span>
  /api/actions/checkAlerts           - Fetch feeds and publish new alerts
  /api/actions/sendToday             - Post today's digest to the channels
  /api/actions/sendTomorrow          - Post tomorrow's digest to the channels
  /api/actions/sendDate/{YYYY-MM-DD} - Post the digest of one day
  /api/actions/updatePostedAlerts    - Re-edit all live posts

<span class="header">Reads (GET):</span>
  <a href="/createCronJobs">/createCronJobs</a>                    - (Re)install the schedule
  /api/map/{taskId}.kml              - Matched streets of an alert as KML
  /api/map/day/{date}.kml            - Matched streets of a whole day as KML
  /api/day/{date}                    - Areas of a day with their alerts and restore times
  /api/streets/match?q=&amp;city=        - Score a street name against the corpus
  <a href="/metrics">/metrics</a>                           - Prometheus metrics
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
