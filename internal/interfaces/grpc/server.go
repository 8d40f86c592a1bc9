// Package grpc serves the annotation API over gRPC.  Messages are the same
// JSON documents the HTTP API speaks, carried by the "json" codec.
package grpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
)

const (
	defaultMaxRecvMsgSize  = 16 * 1024 * 1024
	defaultMaxSendMsgSize  = 16 * 1024 * 1024
	defaultGracefulTimeout = 10 * time.Second
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle:     15 * time.Minute,
	MaxConnectionAge:      30 * time.Minute,
	MaxConnectionAgeGrace: 5 * time.Second,
	Time:                  5 * time.Minute,
	Timeout:               1 * time.Second,
}

var defaultKeepalivePolicy = keepalive.EnforcementPolicy{
	MinTime:             5 * time.Second,
	PermitWithoutStream: true,
}

// Validator is implemented by requests that can check themselves.
type Validator interface {
	Validate() error
}

// ServerConfig is the listener configuration.
type ServerConfig struct {
	Host            string
	Port            int
	MaxRecvMsgSize  int
	GracefulTimeout time.Duration
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	tlsConfig       *tls.Config
	listener        net.Listener
	maxRecvMsgSize  int
	maxSendMsgSize  int
	keepaliveParams keepalive.ServerParameters
	gracefulTimeout time.Duration
}

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithMetrics records per-method request counts and latencies.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *serverOptions) {
		o.metrics = m
	}
}

// WithTLSConfig serves TLS.
func WithTLSConfig(tc *tls.Config) Option {
	return func(o *serverOptions) {
		o.tlsConfig = tc
	}
}

// WithListener serves on lis instead of binding Host:Port.
func WithListener(lis net.Listener) Option {
	return func(o *serverOptions) {
		o.listener = lis
	}
}

// WithKeepaliveParams overrides the keepalive parameters.
func WithKeepaliveParams(params keepalive.ServerParameters) Option {
	return func(o *serverOptions) {
		o.keepaliveParams = params
	}
}

// Server wraps a grpc.Server with health reporting and graceful shutdown.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	opts         *serverOptions
	healthServer *health.Server
	mu           sync.Mutex
	started      bool
}

// NewServer binds the listener and assembles the interceptor chain.
func NewServer(cfg ServerConfig, opts ...Option) (*Server, error) {
	sopts := &serverOptions{
		maxRecvMsgSize:  defaultMaxRecvMsgSize,
		maxSendMsgSize:  defaultMaxSendMsgSize,
		keepaliveParams: defaultKeepaliveParams,
		gracefulTimeout: defaultGracefulTimeout,
	}
	if cfg.MaxRecvMsgSize > 0 {
		sopts.maxRecvMsgSize = cfg.MaxRecvMsgSize
	}
	if cfg.GracefulTimeout > 0 {
		sopts.gracefulTimeout = cfg.GracefulTimeout
	}
	for _, o := range opts {
		o(sopts)
	}
	if sopts.logger == nil {
		sopts.logger = logging.NewNopLogger()
	}
	sopts.logger = sopts.logger.Named("grpc")

	lis := sopts.listener
	if lis == nil {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		var err error
		if lis, err = net.Listen("tcp", addr); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	grpcOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(sopts.maxRecvMsgSize),
		grpc.MaxSendMsgSize(sopts.maxSendMsgSize),
		grpc.KeepaliveParams(sopts.keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(defaultKeepalivePolicy),
		// recovery → logging → metrics → status mapping → validation
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(sopts.logger),
			loggingUnaryInterceptor(sopts.logger),
			metricsUnaryInterceptor(sopts.metrics),
			statusUnaryInterceptor(),
			validationUnaryInterceptor(),
		),
	}
	if sopts.tlsConfig != nil {
		grpcOpts = append(grpcOpts, grpc.Creds(credentials.NewTLS(sopts.tlsConfig)))
	}

	gs := grpc.NewServer(grpcOpts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		grpcServer:   gs,
		listener:     lis,
		opts:         sopts,
		healthServer: hs,
	}, nil
}

// RegisterService registers impl and marks it serving.  Must be called
// before Start.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
	s.healthServer.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.opts.logger.Info("gRPC service registered", logging.String("service", desc.ServiceName))
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.opts.logger.Info("gRPC server starting", logging.String("address", s.Addr()))
	err := s.grpcServer.Serve(s.listener)
	if err == grpc.ErrServerStopped {
		return nil
	}
	return err
}

// Stop drains in-flight calls and forces a stop once the graceful period or
// ctx runs out.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		_ = s.listener.Close()
		return nil
	}
	s.mu.Unlock()

	s.opts.logger.Info("gRPC server stopping")
	s.healthServer.Shutdown()

	gracefulCtx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.opts.logger.Info("gRPC server stopped gracefully")
	case <-gracefulCtx.Done():
		s.opts.logger.Warn("gRPC graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr is the listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Interceptors
// ─────────────────────────────────────────────────────────────────────────────

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("gRPC panic recovered",
					logging.String("method", info.FullMethod),
					logging.String("panic", fmt.Sprintf("%v", r)),
					logging.String("stack", string(debug.Stack())),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if isHealthCheck(info.FullMethod) {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []logging.Field{
			logging.String("method", info.FullMethod),
			logging.Int64("duration_ms", time.Since(start).Milliseconds()),
			logging.String("code", code.String()),
		}
		switch code {
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			logger.Error("gRPC request failed", append(fields, logging.Err(err))...)
		default:
			logger.Info("gRPC request", fields...)
		}
		return resp, err
	}
}

func metricsUnaryInterceptor(m *prometheus.AppMetrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if m == nil {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		service, method := splitMethodName(info.FullMethod)
		prometheus.RecordGRPCRequest(m, service, method, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// statusUnaryInterceptor turns application errors into gRPC statuses.
func statusUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, ToStatus(err).Err()
		}
		return resp, nil
	}
}

func validationUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if v, ok := req.(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// splitMethodName splits "/package.Service/Method" into ("package.Service", "Method").
func splitMethodName(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	idx := strings.LastIndex(fullMethod, "/")
	if idx < 0 {
		return "unknown", fullMethod
	}
	return fullMethod[:idx], fullMethod[idx+1:]
}

//Personal.AI order the ending
