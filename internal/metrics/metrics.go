// Package metrics Prometheus 指标：HTTP 请求与注册表中各生成器的计数
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"katydid-common-idgen/pkg/idgen/core"
)

const namespace = "idgen"

// HTTP 请求指标，标签为 method/route/status
type HTTP struct {
	RequestsTotal     *prometheus.CounterVec
	DurationSeconds   *prometheus.HistogramVec
	ResponseSizeBytes *prometheus.HistogramVec
}

// NewHTTP 创建 HTTP 指标（未注册）
func NewHTTP() *HTTP {
	labels := []string{"method", "route", "status"}
	return &HTTP{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			labels,
		),
		DurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			labels,
		),
		ResponseSizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Response size in bytes",
				Buckets: []float64{100, 500, 1_000, 5_000, 10_000, 50_000, 100_000, 500_000, 1_000_000},
			},
			labels,
		),
	}
}

// Register 注册到 reg
func (h *HTTP) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{h.RequestsTotal, h.DurationSeconds, h.ResponseSizeBytes} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe 记录一次请求
func (h *HTTP) Observe(method, route string, status int, d time.Duration, size int) {
	statusStr := strconv.Itoa(status)
	h.RequestsTotal.WithLabelValues(method, route, statusStr).Inc()
	h.DurationSeconds.WithLabelValues(method, route, statusStr).Observe(d.Seconds())
	if size < 0 {
		size = 0
	}
	h.ResponseSizeBytes.WithLabelValues(method, route, statusStr).Observe(float64(size))
}

// GeneratorCollector 采集时读取生成器快照，key 作为 generator 标签
// 只导出实现了 core.IMonitorableGenerator 且启用了监控的生成器
type GeneratorCollector struct {
	snapshot func() map[string]core.IGenerator

	ids           *prometheus.Desc
	overflow      *prometheus.Desc
	clockBackward *prometheus.Desc
	waits         *prometheus.Desc
	waitSeconds   *prometheus.Desc
}

// NewGeneratorCollector snapshot 通常为 registry.Registry.Snapshot
func NewGeneratorCollector(snapshot func() map[string]core.IGenerator) *GeneratorCollector {
	labels := []string{"generator", "datacenter_id", "worker_id"}
	return &GeneratorCollector{
		snapshot: snapshot,
		ids: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "generator", "ids_total"),
			"Total number of IDs generated", labels, nil),
		overflow: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "generator", "sequence_overflow_total"),
			"Times the sequence was exhausted within one millisecond", labels, nil),
		clockBackward: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "generator", "clock_backward_total"),
			"Clock regressions observed", labels, nil),
		waits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "generator", "waits_total"),
			"Times generation waited for the next millisecond", labels, nil),
		waitSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "generator", "wait_seconds_total"),
			"Total time spent waiting for the next millisecond", labels, nil),
	}
}

// Describe 实现 prometheus.Collector
func (c *GeneratorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ids
	ch <- c.overflow
	ch <- c.clockBackward
	ch <- c.waits
	ch <- c.waitSeconds
}

// Collect 实现 prometheus.Collector
func (c *GeneratorCollector) Collect(ch chan<- prometheus.Metric) {
	for key, gen := range c.snapshot() {
		monitorable, ok := gen.(core.IMonitorableGenerator)
		if !ok {
			continue
		}
		m := monitorable.GetMetrics()
		if m["metrics_enabled"] == 0 {
			continue
		}

		labels := []string{key, "", ""}
		if cg, ok := gen.(core.IConfigurableGenerator); ok {
			labels[1] = strconv.FormatInt(cg.GetDatacenterID(), 10)
			labels[2] = strconv.FormatInt(cg.GetWorkerID(), 10)
		}

		counter := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, labels...)
		}
		counter(c.ids, float64(m["id_count"]))
		counter(c.overflow, float64(m["sequence_overflow"]))
		counter(c.clockBackward, float64(m["clock_backward"]))
		counter(c.waits, float64(m["wait_count"]))
		counter(c.waitSeconds, time.Duration(m["total_wait_time_ns"]).Seconds())
	}
}
