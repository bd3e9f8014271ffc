package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryServerInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	icpt := m.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/projecthub.ProjectHub/GetProject"}

	resp, err := icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "nope")
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues(info.FullMethod, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues(info.FullMethod, "NotFound")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RPCRequestDuration))
}

func TestRecordFileOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordFileOperation("presign_put", nil)
	m.RecordFileOperation("remove", assert.AnError)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileOperations.WithLabelValues("presign_put", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileOperations.WithLabelValues("remove", "error")))
}
