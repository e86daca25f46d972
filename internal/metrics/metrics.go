package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics exposes counters/histograms for the chat pipeline.
type ChatMetrics struct {
	repliesTotal       *prometheus.CounterVec
	replyLatency       *prometheus.HistogramVec
	providerFailures   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by pipeline route",
		}, []string{"route"}),
		replyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vetchat",
			Subsystem: "chat",
			Name:      "reply_latency_seconds",
			Help:      "Time spent producing a chat reply",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "Completion provider failures by pipeline stage",
		}, []string{"stage"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Admin notifications by channel and status",
		}, []string{"channel", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.replyLatency, m.providerFailures, m.notificationsTotal, m.cacheLookups)
	return m
}

func (m *ChatMetrics) ObserveReply(route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(route).Inc()
	m.replyLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) ObserveProviderFailure(stage string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(stage).Inc()
}

func (m *ChatMetrics) ObserveNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	status := "failed"
	if ok {
		status = "sent"
	}
	m.notificationsTotal.WithLabelValues(channel, status).Inc()
}

func (m *ChatMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
