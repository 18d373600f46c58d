// internal/monitor/metrics.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

var (
	// ---- polling ----
	Polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_polls_total",
			Help: "Device poll calls by poller",
		},
		[]string{"poller"},
	)

	PollErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_poll_errors_total",
			Help: "Failed device poll calls by poller and device code",
		},
		[]string{"poller", "code"},
	)

	PollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "acquirer_poll_duration_seconds",
			Help:    "Device poll call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"poller"},
	)

	// ---- data ----
	RowsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_rows_decoded_total",
			Help: "Decoded measurement rows by technique",
		},
		[]string{"technique"},
	)

	RowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_rows_dropped_total",
			Help: "Rows dropped on conversion failure by technique",
		},
		[]string{"technique"},
	)

	DeviceMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquirer_device_messages_total",
		Help: "Instrument log messages received",
	})

	// ---- run ----
	ChannelState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acquirer_channel_state",
		Help: "Channel state (0 stopped, 1 running, 2 paused)",
	})

	RunErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_run_errors_total",
			Help: "Runs aborted by a device error, by code",
		},
		[]string{"code"},
	)

	// ---- runtime ----
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acquirer_goroutines",
		Help: "Current goroutine count",
	})

	MemoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acquirer_memory_usage_bytes",
		Help: "Allocated heap bytes",
	})
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			Polls,
			PollErrors,
			PollDuration,
			RowsDecoded,
			RowsDropped,
			DeviceMessages,
			ChannelState,
			RunErrors,
			GoroutineCount,
			MemoryUsage,
		)
	})
}

// Monitor records acquisition metrics and serves them.
type Monitor struct {
	log logrus.FieldLogger
	srv *http.Server
}

func NewMonitor(log logrus.FieldLogger) *Monitor {
	Register()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Monitor{log: log}
}

// ---- recording ----

// ObservePoll implements poller.Observer.
func (m *Monitor) ObservePoll(poller string, d time.Duration, err error) {
	Polls.WithLabelValues(poller).Inc()
	PollDuration.WithLabelValues(poller).Observe(d.Seconds())
	if err != nil {
		PollErrors.WithLabelValues(poller, codeLabel(err)).Inc()
	}
}

// ObserveBatch accounts one decoded batch.
func (m *Monitor) ObserveBatch(b *technique.Batch) {
	if b == nil {
		return
	}
	name := b.Infos.TechniqueID.String()
	RowsDecoded.WithLabelValues(name).Add(float64(len(b.Rows)))
	if n := len(b.Dropped); n > 0 {
		RowsDropped.WithLabelValues(name).Add(float64(n))
	}
}

func (m *Monitor) ObserveMessage() { DeviceMessages.Inc() }

func (m *Monitor) SetChannelState(s eclib.ChannelState) { ChannelState.Set(float64(s)) }

// ObserveRunError accounts an error surfaced by the coordinator.
func (m *Monitor) ObserveRunError(err error) {
	if err == nil {
		return
	}
	RunErrors.WithLabelValues(codeLabel(err)).Inc()
}

func codeLabel(err error) string {
	return strconv.Itoa(int(eclib.Code(err)))
}

// ---- serving ----

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// StartMetricsServer serves Handler on port in the background.
func (m *Monitor) StartMetricsServer(port int) {
	addr := fmt.Sprintf(":%d", port)
	m.srv = &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.log.Infof("metrics server listening on %s", addr)

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Errorf("metrics server: %v", err)
		}
	}(m.srv)
}

// StartRuntimeMonitor samples goroutines and heap every interval until ctx ends.
func (m *Monitor) StartRuntimeMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var ms runtime.MemStats
				runtime.ReadMemStats(&ms)
				GoroutineCount.Set(float64(runtime.NumGoroutine()))
				MemoryUsage.Set(float64(ms.Alloc))
				m.log.Debugf("goroutines: %d, heap: %.2f MB", runtime.NumGoroutine(), float64(ms.Alloc)/1024/1024)
			}
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
