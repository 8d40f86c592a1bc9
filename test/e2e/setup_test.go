// End-to-end tests for KeyIP-Depict.  The complete HTTP stack runs
// in-process against miniredis and in-memory doubles of the object store,
// the message queue and the job ledger, and every call goes through the
// public SDK.
package e2e_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/config"
	ledger "github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/KeyIP-Depict/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Depict/pkg/client"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

// testEnv holds the running stack of one test.
type testEnv struct {
	cfg       *config.Config
	service   depict.Service
	redis     *miniredis.Miniredis
	store     *memStore
	publisher *memPublisher
	ledger    *memLedger
	sdk       *client.Client
	logger    logging.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.NewDefaultConfig()
	logger := logging.NewNopLogger()

	mr := miniredis.RunT(t)
	rc, err := redis.NewClient(&redis.RedisConfig{Mode: "standalone", Addr: mr.Addr()}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	cache := redis.NewRedisCache(rc, logger, redis.WithPrefix(cfg.Redis.KeyPrefix), redis.WithJitter(0))

	env := &testEnv{
		cfg:       cfg,
		redis:     mr,
		store:     newMemStore(),
		publisher: &memPublisher{},
		ledger:    newMemLedger(),
		logger:    logger,
	}
	env.service = depict.NewService(cfg.ServiceConfig(), cache, prometheus.NewNoopAppMetrics(), logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		AnnotateHandler: handlers.NewAnnotateHandler(env.service, logger, cfg.Server.MaxBodySize),
		HealthHandler:   handlers.NewHealthHandler(config.Version, handlers.NewCheck("redis", rc.Ping)),
		JobHandler:      handlers.NewJobHandler(depict.NewJobQueryService(env.ledger), logger),
		RequestTimeout:  cfg.Server.RequestTimeout,
		SlowThreshold:   cfg.Server.SlowThreshold,
		Logger:          logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	env.sdk, err = client.NewClient(srv.URL, client.WithTimeout(5*time.Second), client.WithRetryMax(0))
	require.NoError(t, err)
	return env
}

// worker builds the job processor the worker binary runs.
func (e *testEnv) worker() *depict.JobProcessor {
	return depict.NewJobProcessor(e.service, e.store, e.publisher, e.logger,
		depict.WithJobLedger(e.ledger, "e2e@localhost"))
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory backends
// ─────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) PutJSON(_ context.Context, key string, v interface{}, _ map[string]string) (*minio.UploadResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return &minio.UploadResult{ObjectKey: key, Size: int64(len(data)), UploadedAt: time.Now()}, nil
}

func (s *memStore) GetJSON(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	data, ok := s.objects[key]
	s.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "object not found").WithDetail(key)
	}
	return json.Unmarshal(data, dest)
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memStore) InputKey(jobID string) string  { return "inputs/" + jobID + ".json" }
func (s *memStore) ResultKey(jobID string) string { return "results/" + jobID + ".json" }

type memPublisher struct {
	mu       sync.Mutex
	messages []*common.ProducerMessage
}

func (p *memPublisher) Publish(_ context.Context, msg *common.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

type memLedger struct {
	mu      sync.Mutex
	records map[string]ledger.Record
}

func newMemLedger() *memLedger { return &memLedger{records: map[string]ledger.Record{}} }

func (l *memLedger) Save(_ context.Context, r *ledger.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[r.JobID] = *r
	return nil
}

func (l *memLedger) FindByID(_ context.Context, id string) (*ledger.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "annotation job not found")
	}
	return &r, nil
}

func (l *memLedger) List(_ context.Context, f ledger.ListFilter) ([]*ledger.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*ledger.Record
	for _, r := range l.records {
		if f.Status == "" || r.Status == f.Status {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

//Personal.AI order the ending
