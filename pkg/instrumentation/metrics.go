package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameSpace                = "file_drop"
	HttpStatusHistogram      = "http_status_histogram"
	ChunksSubmittedTotal     = "chunks_submitted_total"
	UploadsCompletedTotal    = "uploads_completed_total"
	UploadsFailedTotal       = "uploads_failed_total"
	SessionsSweptTotal       = "sessions_swept_total"
	ActiveUploadSessions     = "active_upload_sessions"
	ArtifactBytesStoredTotal = "artifact_bytes_stored_total"
)

type Metrics struct {
	HttpStatusHistogram prometheus.HistogramVec

	// Custom metrics
	ChunksSubmittedTotal     prometheus.Counter
	UploadsCompletedTotal    prometheus.Counter
	UploadsFailedTotal       prometheus.CounterVec
	SessionsSweptTotal       prometheus.Counter
	ActiveUploadSessions     prometheus.Gauge
	ArtifactBytesStoredTotal prometheus.Counter

	reg *prometheus.Registry
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		panic("reg cannot be nil")
	}
	metrics := &Metrics{
		reg: reg,
		HttpStatusHistogram: *promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: NameSpace,
			Name:      HttpStatusHistogram,
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status", "method", "path"}),

		ChunksSubmittedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      ChunksSubmittedTotal,
			Help:      "Number of accepted chunk submissions",
		}),
		UploadsCompletedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      UploadsCompletedTotal,
			Help:      "Number of chunked uploads reassembled into file records",
		}),
		UploadsFailedTotal: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      UploadsFailedTotal,
			Help:      "Number of failed upload operations",
		}, []string{"reason"}),
		SessionsSweptTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      SessionsSweptTotal,
			Help:      "Number of abandoned upload sessions reclaimed by the sweeper",
		}),
		ActiveUploadSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: NameSpace,
			Name:      ActiveUploadSessions,
			Help:      "Number of upload sessions currently registered",
		}),
		ArtifactBytesStoredTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: NameSpace,
			Name:      ArtifactBytesStoredTotal,
			Help:      "Bytes written to artifact storage",
		}),
	}

	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector())

	return metrics
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
