package depict

import (
	"context"
	"time"

	ledger "github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// JobProcessor runs annotation jobs delivered by the message queue.  Results
// go to the object store and each job ends with a completion event.
//
// Errors with a client code (invalid graph, missing input) complete the job
// as failed and are acknowledged.  Any other error is returned so the
// consumer retries and eventually dead-letters the message.
type JobProcessor struct {
	service   Service
	store     minio.ObjectStorageRepository
	publisher kafka.Publisher
	locks     redis.LockFactory
	ledger    ledger.Repository
	worker    string
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	source    string
	lockTTL   time.Duration
	now       func() time.Time
}

// JobOption configures a JobProcessor.
type JobOption func(*JobProcessor)

// WithJobLocks serializes jobs with the same id across workers.
func WithJobLocks(locks redis.LockFactory, ttl time.Duration) JobOption {
	return func(p *JobProcessor) {
		p.locks = locks
		if ttl > 0 {
			p.lockTTL = ttl
		}
	}
}

// WithJobLedger records every attempt in repo under the worker name.
// Ledger failures are logged and never fail the job.
func WithJobLedger(repo ledger.Repository, worker string) JobOption {
	return func(p *JobProcessor) {
		p.ledger = repo
		if worker != "" {
			p.worker = worker
		}
	}
}

// WithJobMetrics records job outcomes.
func WithJobMetrics(m *prometheus.AppMetrics) JobOption {
	return func(p *JobProcessor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithSource sets the source stamped on completion events.
func WithSource(source string) JobOption {
	return func(p *JobProcessor) { p.source = source }
}

func NewJobProcessor(service Service, store minio.ObjectStorageRepository, publisher kafka.Publisher, logger logging.Logger, opts ...JobOption) *JobProcessor {
	p := &JobProcessor{
		service:   service,
		store:     store,
		publisher: publisher,
		metrics:   prometheus.NewNoopAppMetrics(),
		logger:    logger.Named("job"),
		source:    "depict-worker",
		worker:    "depict-worker",
		lockTTL:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle is the consumer callback for the annotation request topic.
func (p *JobProcessor) Handle(ctx context.Context, msg *common.Message) error {
	start := time.Now()
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeJobInvalid, "undecodable job envelope").
			WithDetail(msg.Topic)
	}
	if env.EventType != kafka.EventAnnotateRequested {
		p.logger.Warn("Skipping unexpected event", logging.String("event_type", env.EventType), logging.String("event_id", env.EventID))
		return nil
	}
	var job dto.AnnotateJob
	if err := env.DecodePayload(&job); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobInvalid, "undecodable job payload").WithDetail("event_id=" + env.EventID)
	}
	if err := job.Validate(); err != nil {
		return err
	}
	log := p.logger.With(logging.String("job_id", job.JobID))

	if p.locks != nil {
		mu := p.locks.NewMutex(job.JobID,
			redis.WithLockTTL(p.lockTTL),
			redis.WithWatchdog(true),
			redis.WithWatchdogInterval(p.lockTTL/3))
		ok, err := mu.TryLock(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to lock job")
		}
		if !ok {
			log.Info("Job is being processed elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := mu.Unlock(context.Background()); err != nil {
				log.Warn("Failed to release job lock", logging.Err(err))
			}
		}()
	}

	rec := p.startRecord(ctx, &job, log)
	done, size, err := p.process(ctx, &job, log)
	if err != nil {
		if !errors.IsClientError(errors.GetCode(err)) {
			p.finishRecord(ctx, rec, nil, err, log)
			prometheus.RecordJob(p.metrics, "error", time.Since(start), 0)
			return err
		}
		log.Warn("Annotation job failed", logging.Err(err))
		done = &dto.AnnotateCompleted{JobID: job.JobID, Status: dto.JobFailed, Error: err.Error()}
	}
	if err := p.complete(ctx, done); err != nil {
		p.finishRecord(ctx, rec, nil, err, log)
		prometheus.RecordJob(p.metrics, "error", time.Since(start), 0)
		return err
	}
	p.finishRecord(ctx, rec, done, nil, log)
	prometheus.RecordJob(p.metrics, string(done.Status), time.Since(start), size)
	log.Info("Annotation job completed",
		logging.String("status", string(done.Status)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *JobProcessor) process(ctx context.Context, job *dto.AnnotateJob, log logging.Logger) (*dto.AnnotateCompleted, int, error) {
	resultKey := p.store.ResultKey(job.JobID)
	exists, err := p.store.Exists(ctx, resultKey)
	if err != nil {
		return nil, 0, err
	}
	if exists {
		log.Info("Result already stored", logging.String("key", resultKey))
		return &dto.AnnotateCompleted{JobID: job.JobID, ResultKey: resultKey, Status: dto.JobSucceeded}, 0, nil
	}

	req := job.Request
	if req == nil {
		req = &dto.AnnotateRequest{}
		storeStart := time.Now()
		err := p.store.GetJSON(ctx, job.InputKey, req)
		p.metrics.StorageDuration.WithLabelValues("get").Observe(time.Since(storeStart).Seconds())
		if err != nil {
			return nil, 0, err
		}
	}
	if req.RequestID == "" {
		req.RequestID = job.JobID
	}

	resp, err := p.service.Annotate(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	storeStart := time.Now()
	upload, err := p.store.PutJSON(ctx, resultKey, resp, map[string]string{"job_id": job.JobID})
	p.metrics.StorageDuration.WithLabelValues("put").Observe(time.Since(storeStart).Seconds())
	if err != nil {
		return nil, 0, err
	}
	return &dto.AnnotateCompleted{JobID: job.JobID, ResultKey: resultKey, Status: dto.JobSucceeded}, int(upload.Size), nil
}

// startRecord marks the job running in the ledger.  It returns nil when no
// ledger is configured or the record could not be written.
func (p *JobProcessor) startRecord(ctx context.Context, job *dto.AnnotateJob, log logging.Logger) *ledger.Record {
	if p.ledger == nil {
		return nil
	}
	rec, err := p.ledger.FindByID(ctx, job.JobID)
	if errors.IsCode(err, errors.ErrCodeJobNotFound) {
		rec, err = ledger.NewRecord(job.JobID, job.InputKey, p.now())
	}
	if err != nil {
		log.Warn("Job ledger unavailable", logging.Err(err))
		return nil
	}
	if rec.Status.Terminal() {
		return nil
	}
	if err := rec.Start(p.worker, p.now()); err != nil {
		log.Warn("Job ledger rejected start", logging.Err(err))
		return nil
	}
	if err := p.ledger.Save(ctx, rec); err != nil {
		log.Warn("Failed to record job start", logging.Err(err))
		return nil
	}
	return rec
}

// finishRecord stores the outcome of the attempt.  A retryable error
// records the attempt as failed; the next delivery starts it again.
func (p *JobProcessor) finishRecord(ctx context.Context, rec *ledger.Record, done *dto.AnnotateCompleted, cause error, log logging.Logger) {
	if rec == nil {
		return
	}
	var err error
	switch {
	case cause != nil:
		err = rec.Fail(cause.Error(), p.now())
	case done.Status == dto.JobSucceeded:
		err = rec.Succeed(done.ResultKey, p.now())
	default:
		err = rec.Fail(done.Error, p.now())
	}
	if err == nil {
		err = p.ledger.Save(ctx, rec)
	}
	if err != nil {
		log.Warn("Failed to record job outcome", logging.Err(err))
	}
}

func (p *JobProcessor) complete(ctx context.Context, done *dto.AnnotateCompleted) error {
	env, err := kafka.NewAnnotateCompleted(p.source, done)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(kafka.TopicAnnotateCompleted)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodePublishFailed, "failed to publish completion").WithDetail("job_id=" + done.JobID)
	}
	return nil
}

//Personal.AI order the ending
