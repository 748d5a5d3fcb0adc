package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/interfaces/grpc/services"
	"github.com/turtacn/ListSense/internal/testutil"
	"github.com/turtacn/ListSense/internal/testutil/servicetest"
	"github.com/turtacn/ListSense/pkg/errors"
)

// ---------------------------------------------------------------------------
// Mock: Metrics
// ---------------------------------------------------------------------------

type grpcCall struct{ method, code string }

type mockGRPCMetrics struct {
	mu    sync.Mutex
	calls []grpcCall
}

func (m *mockGRPCMetrics) RecordGRPCRequest(method, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, grpcCall{method, code})
}

func (m *mockGRPCMetrics) snapshot() []grpcCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]grpcCall(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func startBufServer(t *testing.T, opts ...Option) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer(config.GRPCServerConfig{Enabled: true}, append(opts, WithListener(lis))...)
	require.NoError(t, err)
	srv.RegisterService(&services.ServiceDesc, services.NewExtractionServer(servicetest.New(t), nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Start()
	}()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = srv.Stop(context.Background())
		<-done
	})
	return srv, conn
}

func unaryInfo(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

// ---------------------------------------------------------------------------
// Server lifecycle
// ---------------------------------------------------------------------------

func TestServer_ServesExtractionAndHealth(t *testing.T) {
	metrics := &mockGRPCMetrics{}
	logger := testutil.NewMockLogger()
	_, conn := startBufServer(t, WithLogger(logger), WithMetrics(metrics))
	ctx := context.Background()

	hc := healthpb.NewHealthClient(conn)
	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: services.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	client := services.NewExtractionClient(conn)
	var out struct {
		Entities []struct {
			Value string `json:"value"`
		} `json:"entities"`
	}
	require.NoError(t, client.Call(ctx, services.MethodExtractText,
		map[string]interface{}{"text": "red apple", "entities": []string{"fruit"}}, &out))
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "Apple", out.Entities[0].Value)

	calls := metrics.snapshot()
	require.Len(t, calls, 1, "health checks are not recorded")
	assert.Equal(t, grpcCall{services.MethodExtractText, "OK"}, calls[0])
	assert.True(t, logger.HasMessage("info", "grpc request"))
	assert.True(t, logger.HasMessage("info", "grpc service registered"))
}

func TestServer_DoubleStart(t *testing.T) {
	srv, _ := startBufServer(t)
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.started
	}, time.Second, 5*time.Millisecond)

	err := srv.Start()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestServer_StopMarksNotServing(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer(config.GRPCServerConfig{}, WithListener(lis), WithGracefulTimeout(time.Second))
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.started
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, srv.Stop(context.Background()))
	resp, err := srv.healthServer.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestServer_StopBeforeStart(t *testing.T) {
	lis := bufconn.Listen(1024)
	srv, err := NewServer(config.GRPCServerConfig{}, WithListener(lis))
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
	_, err = lis.Dial()
	assert.Error(t, err, "listener is closed")
}

func TestNewServer_BindsConfiguredAddress(t *testing.T) {
	srv, err := NewServer(config.GRPCServerConfig{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	assert.Contains(t, srv.Addr(), "127.0.0.1:")
	require.NoError(t, srv.Stop(context.Background()))
}

func TestNewServer_InvalidAddress(t *testing.T) {
	_, err := NewServer(config.GRPCServerConfig{Host: "127.0.0.1", Port: -1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

// ---------------------------------------------------------------------------
// Interceptors
// ---------------------------------------------------------------------------

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	ic := recoveryUnaryInterceptor(logger)

	resp, err := ic(context.Background(), nil, unaryInfo("/x.Y/Boom"), func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, logger.HasMessage("error", "grpc panic recovered"))

	resp, err = ic(context.Background(), nil, unaryInfo("/x.Y/Ok"), func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestLoggingUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	ic := loggingUnaryInterceptor(logger)
	ok := func(context.Context, interface{}) (interface{}, error) { return nil, nil }

	_, _ = ic(context.Background(), nil, unaryInfo("/grpc.health.v1.Health/Check"), ok)
	assert.Empty(t, logger.GetMessages())

	_, _ = ic(context.Background(), nil, unaryInfo("/listsense.v1.Extraction/ExtractText"), ok)
	require.Equal(t, 1, logger.Count("info"))
	code, _ := logger.GetMessages()[0].Field("code")
	assert.Equal(t, "OK", code)

	_, _ = ic(context.Background(), nil, unaryInfo("/listsense.v1.Extraction/ExtractText"),
		func(context.Context, interface{}) (interface{}, error) {
			return nil, status.Error(codes.Internal, "broken")
		})
	assert.True(t, logger.HasMessage("error", "grpc request failed"))

	_, _ = ic(context.Background(), nil, unaryInfo("/listsense.v1.Extraction/GetEntity"),
		func(context.Context, interface{}) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "missing")
		})
	assert.Equal(t, 2, logger.Count("info"))
}

func TestMetricsUnaryInterceptor(t *testing.T) {
	ok := func(context.Context, interface{}) (interface{}, error) { return nil, nil }

	_, err := metricsUnaryInterceptor(nil)(context.Background(), nil, unaryInfo("/a.B/C"), ok)
	assert.NoError(t, err)

	m := &mockGRPCMetrics{}
	ic := metricsUnaryInterceptor(m)
	_, _ = ic(context.Background(), nil, unaryInfo("/a.B/C"), ok)
	_, _ = ic(context.Background(), nil, unaryInfo("/a.B/D"), func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	_, _ = ic(context.Background(), nil, unaryInfo("/grpc.health.v1.Health/Check"), ok)
	assert.Equal(t, []grpcCall{{"C", "OK"}, {"D", "InvalidArgument"}}, m.snapshot())
}

func TestSplitMethodName(t *testing.T) {
	tests := []struct {
		in, svc, method string
	}{
		{"/listsense.v1.Extraction/ExtractText", "listsense.v1.Extraction", "ExtractText"},
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"NoSlash", "unknown", "NoSlash"},
		{"", "unknown", ""},
	}
	for _, tt := range tests {
		svc, method := splitMethodName(tt.in)
		assert.Equal(t, tt.svc, svc, tt.in)
		assert.Equal(t, tt.method, method, tt.in)
	}
}

func TestIsHealthCheck(t *testing.T) {
	assert.True(t, isHealthCheck("/grpc.health.v1.Health/Check"))
	assert.True(t, isHealthCheck("/grpc.health.v1.Health/Watch"))
	assert.False(t, isHealthCheck("/listsense.v1.Extraction/ExtractText"))
}

//Personal.AI order the ending
