package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics Prometheus metrics của dịch vụ chuẩn hóa. Mọi method an toàn với receiver nil.
type Metrics struct {
	// Số lần gọi từng bộ chuẩn hóa, theo kết quả nhận dạng được hay không
	FieldNormalized *prometheus.CounterVec

	// Số bản ghi chủ sử dụng theo trạng thái
	RecordsNormalized *prometheus.CounterVec

	// Cache hit/miss của kết quả bản ghi
	CacheLookups *prometheus.CounterVec

	// Thời gian chuẩn hóa một bản ghi (kể cả tra cache)
	RecordLatency prometheus.Histogram

	// Số job batch đang chạy
	JobsRunning prometheus.Gauge
}

// New tạo và đăng ký metrics. Chỉ gọi một lần cho mỗi process.
func New() *Metrics {
	return &Metrics{
		FieldNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vbdlis_field_normalizations_total",
			Help: "Total field normalizations by field and outcome",
		}, []string{"field", "outcome"}), // outcome: "ok", "unrecognized"

		RecordsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vbdlis_records_normalized_total",
			Help: "Total owner records normalized by status",
		}, []string{"status"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vbdlis_record_cache_lookups_total",
			Help: "Record cache lookups by result",
		}, []string{"result"}),

		RecordLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vbdlis_record_normalize_duration_seconds",
			Help:    "Duration of normalizing one owner record including cache lookups",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		JobsRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vbdlis_batch_jobs_running",
			Help: "Number of batch normalization jobs currently running",
		}),
	}
}

// ObserveField ghi nhận một lần chuẩn hóa trường
func (m *Metrics) ObserveField(field string, recognized bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !recognized {
		outcome = "unrecognized"
	}
	m.FieldNormalized.WithLabelValues(field, outcome).Inc()
}

// ObserveRecord ghi nhận một bản ghi đã chuẩn hóa
func (m *Metrics) ObserveRecord(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RecordsNormalized.WithLabelValues(status).Inc()
	m.RecordLatency.Observe(d.Seconds())
}

// ObserveCache ghi nhận cache hit/miss
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// JobStarted tăng số job đang chạy
func (m *Metrics) JobStarted() {
	if m != nil {
		m.JobsRunning.Inc()
	}
}

// JobFinished giảm số job đang chạy
func (m *Metrics) JobFinished() {
	if m != nil {
		m.JobsRunning.Dec()
	}
}
