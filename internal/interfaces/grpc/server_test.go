package grpc

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/testutil"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// echo is a one-method service used to drive the interceptor chain.

type echoRequest struct {
	Text string `json:"text"`
}

func (r *echoRequest) Validate() error {
	if r.Text == "" {
		return errors.InvalidParam("text is required").WithDetail("field=text")
	}
	return nil
}

type echoResponse struct {
	Text string `json:"text"`
}

type echoServer interface {
	Echo(context.Context, *echoRequest) (*echoResponse, error)
}

type echoImpl struct{}

func (echoImpl) Echo(_ context.Context, req *echoRequest) (*echoResponse, error) {
	switch req.Text {
	case "panic":
		panic("boom")
	case "db":
		return nil, errors.New(errors.ErrCodeDatabaseError, "connection refused by 10.0.0.7")
	case "missing":
		return nil, errors.New(errors.ErrCodeJobNotFound, "annotation job not found").WithDetail("job_id=x")
	}
	return &echoResponse{Text: req.Text}, nil
}

var echoDesc = grpc.ServiceDesc{
	ServiceName: "test.Echo",
	HandlerType: (*echoServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Echo",
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(echoRequest)
			if err := dec(in); err != nil {
				return nil, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/test.Echo/Echo"}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return srv.(echoServer).Echo(ctx, req.(*echoRequest))
			})
		},
	}},
}

type harness struct {
	server *Server
	conn   *grpc.ClientConn
	logger *testutil.MockLogger
	scrape func() string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	logger := testutil.NewMockLogger()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	srv, err := NewServer(ServerConfig{GracefulTimeout: time.Second},
		WithListener(lis), WithLogger(logger), WithMetrics(metrics))
	require.NoError(t, err)
	srv.RegisterService(&echoDesc, echoImpl{})
	go func() { _ = srv.Start() }()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(JSONCodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		_ = srv.Stop(context.Background())
	})

	return &harness{
		server: srv,
		conn:   conn,
		logger: logger,
		scrape: func() string {
			rec := httptest.NewRecorder()
			collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)
			return string(body)
		},
	}
}

func (h *harness) echo(text string) (*echoResponse, error) {
	out := new(echoResponse)
	err := h.conn.Invoke(context.Background(), "/test.Echo/Echo", &echoRequest{Text: text}, out)
	return out, err
}

func TestServer_EchoRoundTrip(t *testing.T) {
	h := newHarness(t)

	out, err := h.echo("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Text)
	assert.True(t, h.logger.HasMessage("info", "gRPC request"))
	assert.Contains(t, h.scrape(), `test_grpc_requests_total{code="OK",method="Echo",service="test.Echo"} 1`)
}

func TestServer_ValidationFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.echo("")
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "text is required", st.Message())

	appErr := FromError(err)
	assert.True(t, errors.IsCode(appErr, errors.ErrCodeBadRequest))
	var ae *errors.AppError
	require.ErrorAs(t, appErr, &ae)
	assert.Equal(t, "field=text", ae.Detail)
}

func TestServer_ApplicationErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.echo("missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.True(t, errors.IsCode(FromError(err), errors.ErrCodeJobNotFound))

	_, err = h.echo("db")
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "database error", st.Message(), "server-side causes are masked")
	assert.True(t, errors.IsCode(FromError(err), errors.ErrCodeDatabaseError))
	assert.True(t, h.logger.HasMessage("error", "gRPC request failed"))
}

func TestServer_PanicRecovery(t *testing.T) {
	h := newHarness(t)

	_, err := h.echo("panic")
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, h.logger.HasMessage("error", "gRPC panic recovered"))

	out, err := h.echo("still alive")
	require.NoError(t, err)
	assert.Equal(t, "still alive", out.Text)
}

func TestServer_Health(t *testing.T) {
	h := newHarness(t)
	client := healthpb.NewHealthClient(h.conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "test.Echo"},
		grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err, "health messages also travel over the json codec")
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	h.logger.Clear()
	_, _ = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	assert.False(t, h.logger.HasMessage("info", "gRPC request"), "health checks are not logged")
}

func TestServer_Lifecycle(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	srv, err := NewServer(ServerConfig{}, WithListener(lis))
	require.NoError(t, err)
	assert.Equal(t, "bufconn", srv.Addr())
	assert.NoError(t, srv.Stop(context.Background()), "stop before start")

	lis = bufconn.Listen(1 << 10)
	srv, err = NewServer(ServerConfig{}, WithListener(lis))
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.started
	}, time.Second, 10*time.Millisecond)
	assert.Error(t, srv.Start(), "double start")
	require.NoError(t, srv.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_TLSRejectsPlaintext(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	srv, err := NewServer(ServerConfig{}, WithListener(lis),
		WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		WithKeepaliveParams(keepalive.ServerParameters{Time: time.Minute, Timeout: 5 * time.Second}))
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.Error(t, err)
	assert.Contains(t, []codes.Code{codes.Unavailable, codes.DeadlineExceeded}, status.Code(err))
}

func TestNewServer_BindFailure(t *testing.T) {
	_, err := NewServer(ServerConfig{Host: "256.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestCodeFor(t *testing.T) {
	cases := map[errors.ErrorCode]codes.Code{
		errors.ErrCodeInvalidGraph:       codes.InvalidArgument,
		errors.ErrCodeInvalidOption:      codes.InvalidArgument,
		errors.ErrCodeGraphTooLarge:      codes.ResourceExhausted,
		errors.ErrCodeJobNotFound:        codes.NotFound,
		errors.ErrCodeJobTransition:      codes.FailedPrecondition,
		errors.ErrCodeServiceUnavailable: codes.Unavailable,
		errors.ErrCodeTimeout:            codes.DeadlineExceeded,
		errors.ErrCodeNotImplemented:     codes.Unimplemented,
		errors.ErrCodeAnnotationFailed:   codes.Internal,
		errors.ErrorCode("NOPE_001"):     codes.Internal,
	}
	for in, want := range cases {
		assert.Equal(t, want, CodeFor(in), in.String())
	}
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.OK, ToStatus(nil).Code())
	assert.Equal(t, codes.Canceled, ToStatus(context.Canceled).Code())
	assert.Equal(t, codes.DeadlineExceeded, ToStatus(context.DeadlineExceeded).Code())

	passthrough := status.Error(codes.Aborted, "aborted")
	assert.Equal(t, codes.Aborted, ToStatus(passthrough).Code())

	st := ToStatus(io.EOF)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal server error", st.Message())
}

func TestFromError_PlainStatus(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Equal(t, io.EOF, FromError(io.EOF))

	err := FromError(status.Error(codes.Unavailable, "connection refused"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
	err = FromError(status.Error(codes.PermissionDenied, "no"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

func TestSplitMethodName(t *testing.T) {
	svc, m := splitMethodName("/depict.v1.DepictService/Annotate")
	assert.Equal(t, "depict.v1.DepictService", svc)
	assert.Equal(t, "Annotate", m)

	svc, m = splitMethodName("Annotate")
	assert.Equal(t, "unknown", svc)
	assert.Equal(t, "Annotate", m)
}

//Personal.AI order the ending
