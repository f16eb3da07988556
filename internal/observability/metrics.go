package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	SessionEvents   *prometheus.CounterVec
	WSMessages      *prometheus.CounterVec
	ToolInvocations *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
	CalendarCalls   *prometheus.CounterVec
	EmailsSent      *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active realtime call sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool dispatcher invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream realtime connection errors by stage.",
		}, []string{"stage"}),
		CalendarCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_calls_total",
			Help:      "Calendar collaborator calls by operation and source.",
		}, []string{"op", "source"}),
		EmailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails sent by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
