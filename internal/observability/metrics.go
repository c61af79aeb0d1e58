package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests processed by the relay.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	relayMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Messages appended to a window, by message and window type.",
		},
		[]string{"type", "window"},
	)
	relayDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dropped_total",
			Help: "Inbound events dropped before reaching a window.",
		},
		[]string{"reason"},
	)
	relayWindowsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_windows_created_total",
			Help: "Query windows opened by inbound messages.",
		},
	)
	relayHighlightsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_highlights_total",
			Help: "Highlight decisions, by rule and outcome.",
		},
		[]string{"rule", "outcome"},
	)
	relayNotificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_notifications_total",
			Help: "Push notifications handed to the transport.",
		},
	)
	relayHandleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_handle_duration_seconds",
			Help:    "Time spent relaying one inbound event.",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		relayMessagesTotal,
		relayDroppedTotal,
		relayWindowsCreatedTotal,
		relayHighlightsTotal,
		relayNotificationsTotal,
		relayHandleDuration,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := splitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncRelayMessage(msgType, windowType string) {
	relayMessagesTotal.WithLabelValues(msgType, windowType).Inc()
}

func IncRelayDropped(reason string) {
	relayDroppedTotal.WithLabelValues(reason).Inc()
}

func IncWindowCreated() {
	relayWindowsCreatedTotal.Inc()
}

// IncHighlight records a highlight decision. outcome is "hit" or "vetoed".
func IncHighlight(rule, outcome string) {
	relayHighlightsTotal.WithLabelValues(rule, outcome).Inc()
}

func IncNotification() {
	relayNotificationsTotal.Inc()
}

func ObserveRelayDuration(d time.Duration) {
	relayHandleDuration.Observe(d.Seconds())
}
