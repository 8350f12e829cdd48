package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the bot's Prometheus collectors
type Metrics struct {
	AlertsFetched *prometheus.CounterVec
	PostsSent     *prometheus.CounterVec
	StreetMatches *prometheus.CounterVec
	Translations  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AlertsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_alerts_fetched_total",
			Help: "Alerts received from the outage feeds.",
		}, []string{"source"}),
		PostsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_posts_sent_total",
			Help: "Telegram messages published or edited.",
		}, []string{"kind"}),
		StreetMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_street_matches_total",
			Help: "Area names resolved against the street corpus.",
		}, []string{"outcome"}),
		Translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_translations_total",
			Help: "Translations served, by source.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertbot_fetch_duration_seconds",
			Help:    "Duration of a full energo-pro fetch cycle.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.AlertsFetched, m.PostsSent, m.StreetMatches, m.Translations, m.FetchDuration)
	}
	return m
}

// ObserveTranslation counts a translation by source; it fits translator.Observer
func (m *Metrics) ObserveTranslation(source string) {
	m.Translations.WithLabelValues(source).Inc()
}
