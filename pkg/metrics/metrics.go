package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue", "status"},
	)

	// 第三方 API 调用延迟（毫秒）
	VendorCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_call_latency_ms",
			Help:    "Third-party API call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(25, 2, 10), // 25ms to ~12s
		},
		[]string{"vendor", "operation", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"table"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 房产数据源调用结果
	PropertySourceCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_source_count",
			Help: "Property aggregator source outcomes",
		},
		[]string{"source", "status"}, // status: ok, failed, skipped
	)

	// 跟进邮件计数
	FollowupEmailCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_email_count",
			Help: "Follow-up emails by outcome",
		},
		[]string{"offset_days", "status"}, // status: sent, failed, duplicate
	)

	// 风险评估计数
	RiskAssessmentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_assessment_count",
			Help: "Total number of risk assessments by level",
		},
		[]string{"level"},
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue, status string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue, status).Observe(float64(duration.Milliseconds()))
}

// RecordVendorCallLatency 记录第三方调用延迟
func RecordVendorCallLatency(vendor, operation, status string, duration time.Duration) {
	VendorCallLatency.WithLabelValues(vendor, operation, status).Observe(float64(duration.Milliseconds()))
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(table string) {
	SlowQueryCount.WithLabelValues(table).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementPropertySource 记录数据源结果
func IncrementPropertySource(source, status string) {
	PropertySourceCount.WithLabelValues(source, status).Inc()
}

// IncrementFollowupEmail 记录跟进邮件结果
func IncrementFollowupEmail(offsetDays, status string) {
	FollowupEmailCount.WithLabelValues(offsetDays, status).Inc()
}

// IncrementRiskAssessment 记录风险等级
func IncrementRiskAssessment(level string) {
	RiskAssessmentCount.WithLabelValues(level).Inc()
}
