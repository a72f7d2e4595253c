package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

type Metrics struct {
	ActiveConnections prometheus.Gauge
	RoomsActive       prometheus.Gauge
	RoomQueueLen      *prometheus.GaugeVec
	CommandLatency    *prometheus.HistogramVec
	ScoringLatency    prometheus.Observer
	BroadcastLatency  prometheus.Observer
	SendFailures      prometheus.Counter
	CommandReject     *prometheus.CounterVec
	HotWrites         prometheus.Counter
	DurableWrites     prometheus.Counter
	PersistFailures   *prometheus.CounterVec
	DisconnectTotal   prometheus.Counter
	HandoffTotal      prometheus.Counter
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}
	return &Metrics{
		ActiveConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active websocket connections",
		}),
		RoomsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Number of rooms currently held in the registry",
		}),
		RoomQueueLen: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "room_actor_queue_len",
			Help: "Buffered commands waiting per room actor",
		}, []string{"room_id"}),
		CommandLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "command_latency_ms",
			Help:    "Latency for processing commands",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"command_type"}),
		ScoringLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_finalize_latency_ms",
			Help:    "Latency of answer finalize/scoring",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		BroadcastLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "broadcast_latency_ms",
			Help:    "Broadcast latency",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SendFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "socket_send_failures_total",
			Help: "Non-fatal socket send failures during broadcast",
		}),
		CommandReject: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "command_reject_total",
			Help: "Rejected or no-op commands",
		}, []string{"reason"}),
		HotWrites: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "snapshot_hot_writes_total",
			Help: "Writes to the hot cache tier",
		}),
		DurableWrites: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "snapshot_durable_writes_total",
			Help: "Writes to the durable store tier",
		}),
		PersistFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_persist_failures_total",
			Help: "Persistence failures by tier",
		}, []string{"tier"}),
		DisconnectTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "connection_disconnect_total",
			Help: "Connection cleanup events handled",
		}),
		HandoffTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "connection_handoff_total",
			Help: "Duplicate-identity handoffs performed",
		}),
	}
}

func SetupTracerProvider(ctx context.Context, serviceName string, stdout bool, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	var exporter *stdouttrace.Exporter
	var err error
	if stdout {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	}

	rs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(rs),
	)
	if exporter != nil {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}
	otel.SetTracerProvider(tp)
	logger.Info("tracer initialized")
	return tp, nil
}

func SetupLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	return cfg.Build()
}

// ZapToSlog wraps a zap.Logger as slog.Logger.
func ZapToSlog(logger *zap.Logger) *slog.Logger {
	return slog.New(slogHandler{logger.Sugar()})
}

type slogHandler struct {
	sugar *zap.SugaredLogger
}

func (h slogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h slogHandler) Handle(ctx context.Context, r slog.Record) error {
	args := make([]interface{}, 0, r.NumAttrs()*2)
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, a.Key, a.Value.Any())
		return true
	})
	switch r.Level {
	case slog.LevelDebug:
		h.sugar.Debugw(r.Message, args...)
	case slog.LevelInfo:
		h.sugar.Infow(r.Message, args...)
	case slog.LevelWarn:
		h.sugar.Warnw(r.Message, args...)
	case slog.LevelError:
		h.sugar.Errorw(r.Message, args...)
	}
	return nil
}

func (h slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := make([]interface{}, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, a.Key, a.Value.Any())
	}
	return slogHandler{h.sugar.With(args...)}
}

func (h slogHandler) WithGroup(name string) slog.Handler {
	return h
}
