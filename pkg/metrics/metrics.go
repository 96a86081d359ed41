package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics storefront 的 prometheus 指标，使用独立 registry 方便测试
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal HTTP 请求数
	RequestsTotal *prometheus.CounterVec
	// RequestDuration HTTP 请求耗时
	RequestDuration *prometheus.HistogramVec
	// Recalculations 批量重算的商品数，result=updated|skipped|failed
	Recalculations *prometheus.CounterVec
	// MailQueued 投递到邮件队列的结果，result=ok|error
	MailQueued *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time spent processing HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Recalculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_recalculations_total",
				Help: "Products processed by bulk price recalculation",
			},
			[]string{"result"},
		),
		MailQueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mail_messages_total",
				Help: "Outbound mail messages handed to the queue",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.Recalculations,
		m.MailQueued,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 接口
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
