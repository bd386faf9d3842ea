package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/asset-storage-adapter/storage"
)

// PrometheusObserver exports storage adapter metrics to Prometheus.
type PrometheusObserver struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	uploadBytes       prometheus.Counter
	readFallbacks     prometheus.Counter
}

// NewPrometheusObserver registers the adapter metrics on reg. Metrics already present
// on reg are reused, so several adapters may share one registry.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "asset_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var err error
	o := &PrometheusObserver{}

	o.operationDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of storage adapter operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"}))
	if err != nil {
		return nil, fmt.Errorf("register operation histogram: %w", err)
	}

	o.operationErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Count of failed storage adapter operations.",
	}, []string{"operation"}))
	if err != nil {
		return nil, fmt.Errorf("register operation errors counter: %w", err)
	}

	o.uploadBytes, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Cumulative payload size successfully uploaded to the remote service.",
	}))
	if err != nil {
		return nil, fmt.Errorf("register uploaded bytes counter: %w", err)
	}

	o.readFallbacks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_fallbacks_total",
		Help:      "Reads that missed the local store and went to the remote service.",
	}))
	if err != nil {
		return nil, fmt.Errorf("register read fallbacks counter: %w", err)
	}

	return o, nil
}

func (o *PrometheusObserver) RecordOperation(op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(op).Inc()
	}
}

func (o *PrometheusObserver) RecordUpload(sizeBytes int64) {
	if o == nil || sizeBytes <= 0 {
		return
	}
	o.uploadBytes.Add(float64(sizeBytes))
}

func (o *PrometheusObserver) RecordFallback() {
	if o == nil {
		return
	}
	o.readFallbacks.Inc()
}

// register registers c, returning the collector already registered under the same
// descriptor when there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

var _ storage.Observer = (*PrometheusObserver)(nil)
