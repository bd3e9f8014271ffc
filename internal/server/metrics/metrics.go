// Package metrics exposes Prometheus instrumentation for the gRPC API.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec
	FileOperations     *prometheus.CounterVec
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projecthub_rpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		),
		RPCRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "projecthub_rpc_request_duration_seconds",
				Help:    "gRPC request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		FileOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projecthub_file_operations_total",
				Help: "Object storage operations by kind and outcome",
			},
			[]string{"operation", "result"},
		),
	}
	registry.MustRegister(m.RPCRequestsTotal, m.RPCRequestDuration, m.FileOperations)
	return m
}

// UnaryServerInterceptor records count and latency of every unary call.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RPCRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.RPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// RecordFileOperation counts one storage operation.
func (m *Metrics) RecordFileOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FileOperations.WithLabelValues(operation, result).Inc()
}
