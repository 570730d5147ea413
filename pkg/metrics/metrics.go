// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 业务指标
	CheckoutSessionsTotal  prometheus.Counter
	WebhookEventsTotal     *prometheus.CounterVec
	WebhookDuplicatesTotal prometheus.Counter
	PurchasesTotal         prometheus.Counter
	NotificationsTotal     prometheus.Counter
	NotificationFailures   prometheus.Counter
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CheckoutSessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "checkout_sessions_total",
			Help:      "Total checkout sessions created",
		}),
		WebhookEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "webhook_events_total",
			Help:      "Total webhook events received",
		}, []string{"status"}),
		WebhookDuplicatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "webhook_duplicates_total",
			Help:      "Webhook events short-circuited by the idempotency guard",
		}),
		PurchasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "purchases_total",
			Help:      "Total purchase records written to the ledger",
		}),
		NotificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "notifications_total",
			Help:      "Total notification sends attempted",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: serviceName,
			Name:      "notification_failures_total",
			Help:      "Notification sends that failed",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CheckoutSessionsTotal,
		m.WebhookEventsTotal,
		m.WebhookDuplicatesTotal,
		m.PurchasesTotal,
		m.NotificationsTotal,
		m.NotificationFailures,
	)

	return m
}

// Handler 返回 Prometheus 指标 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
