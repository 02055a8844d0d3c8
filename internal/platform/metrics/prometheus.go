package metrics

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry               *prometheus.Registry
	ImagesUploadedTotal    prometheus.Counter
	DocumentsUploadedTotal prometheus.Counter
	QuotaRejectionsTotal   prometheus.Counter
	AssetsReapedTotal      prometheus.Counter
	ReviewsRecordedTotal   *prometheus.CounterVec
	APIErrorsTotal         *prometheus.CounterVec
	APILatency             *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	imagesUploadedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "images_uploaded_total",
		Help:      "Total number of images stored (session and listing scoped).",
	})
	documentsUploadedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "documents_uploaded_total",
		Help:      "Total number of verification documents stored.",
	})
	quotaRejectionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "quota_rejections_total",
		Help:      "Total number of uploads rejected by the per-scope image cap.",
	})
	assetsReapedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "assets_reaped_total",
		Help:      "Total number of expired pending assets removed by the reaper.",
	})
	reviewsRecordedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reviews_recorded_total",
		Help:      "Total number of verification review decisions by outcome.",
	}, []string{"decision"})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route.",
	}, []string{"route", "error_type"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		imagesUploadedTotal,
		documentsUploadedTotal,
		quotaRejectionsTotal,
		assetsReapedTotal,
		reviewsRecordedTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:               registry,
		ImagesUploadedTotal:    imagesUploadedTotal,
		DocumentsUploadedTotal: documentsUploadedTotal,
		QuotaRejectionsTotal:   quotaRejectionsTotal,
		AssetsReapedTotal:      assetsReapedTotal,
		ReviewsRecordedTotal:   reviewsRecordedTotal,
		APIErrorsTotal:         apiErrorsTotal,
		APILatency:             apiLatency,
	}
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
