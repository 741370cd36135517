package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Metrics — счётчики передачи для Prometheus; все метрики помечены стандартом.
type Metrics struct {
	reg          *prometheus.Registry
	minutes      prometheus.Counter
	seconds      prometheus.Counter
	lateness     prometheus.Histogram
	carrierHz    prometheus.Gauge
	transmitTime prometheus.Gauge
}

// NewMetrics регистрирует метрики в собственном реестре.
func NewMetrics(standard string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"standard": standard}
	return &Metrics{
		reg: reg,
		minutes: f.NewCounter(prometheus.CounterOpts{
			Name:        "tc_tempus_minutes_total",
			Help:        "Transmitted minutes",
			ConstLabels: labels,
		}),
		seconds: f.NewCounter(prometheus.CounterOpts{
			Name:        "tc_tempus_seconds_total",
			Help:        "Transmitted seconds",
			ConstLabels: labels,
		}),
		lateness: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "tc_tempus_second_lateness_seconds",
			Help:        "Delay between the second boundary and its first power change",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(10e-6, 4, 8),
		}),
		carrierHz: f.NewGauge(prometheus.GaugeOpts{
			Name:        "tc_tempus_carrier_frequency_hz",
			Help:        "Achieved carrier frequency, 0 when synthesis failed",
			ConstLabels: labels,
		}),
		transmitTime: f.NewGauge(prometheus.GaugeOpts{
			Name:        "tc_tempus_transmit_time_seconds",
			Help:        "Unix time of the minute being transmitted",
			ConstLabels: labels,
		}),
	}
}

// Registry возвращает реестр для экспорта.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) CarrierStarted(_, achieved float64, err error) {
	if err != nil {
		achieved = 0
	}
	m.carrierHz.Set(achieved)
}

func (m *Metrics) MinuteStarted(_, transmitTime time.Time) {
	m.minutes.Inc()
	m.transmitTime.Set(float64(transmitTime.Unix()))
}

func (m *Metrics) SecondSent(_ int, _ timecode.Modulation, lateness time.Duration) {
	m.seconds.Inc()
	m.lateness.Observe(lateness.Seconds())
}

// Serve отдаёт /metrics на addr до отмены ctx.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics: %v", err)
		}
	}()
}
