package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Depict/internal/config"
	ledger "github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/storage/minio"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

const submitSource = "depict-cli"

// BatchPublisher publishes the job events of one submit invocation.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, msgs []*common.ProducerMessage) (*common.BatchPublishResult, error)
}

// SubmitBackends are the queue and object store used by submit.  Store may
// be nil for --inline submissions and Ledger is nil unless postgres is
// enabled.
type SubmitBackends struct {
	Store     minio.ObjectStorageRepository
	Publisher BatchPublisher
	Ledger    ledger.Repository
	Close     func() error
}

// openSubmitBackends connects to Kafka, to MinIO unless inline, and to the
// job ledger when postgres is enabled.
func openSubmitBackends(ctx context.Context, cfg *config.Config, inline bool, logger logging.Logger) (*SubmitBackends, error) {
	if !inline && !cfg.MinIO.Enabled {
		return nil, errors.InvalidParam("minio is disabled; enable minio or submit with --inline")
	}

	producer, err := kafka.NewProducer(cfg.ProducerConfig(), logger)
	if err != nil {
		return nil, err
	}
	closers := []func() error{producer.Close}
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	b := &SubmitBackends{Publisher: producer, Close: closeAll}

	if !inline {
		mc, err := minio.NewMinIOClient(cfg.MinIOClientConfig(), logger)
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		closers = append(closers, mc.Close)
		b.Store = minio.NewMinIORepository(mc, logger)
	}

	if cfg.Postgres.Enabled {
		conn, err := postgres.NewConnection(ctx, cfg.PostgresClientConfig(), logger)
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		closers = append(closers, conn.Close)
		b.Ledger = repositories.NewPostgresJobRepo(conn, nil, logger)
	}
	return b, nil
}

// NewSubmitCmd creates the submit command.
func NewSubmitCmd(deps CommandDependencies) *cobra.Command {
	var (
		files  []string
		inline bool
	)
	cmd := &cobra.Command{
		Use:   "submit [file...]",
		Short: "Queue annotation requests for the worker",
		Long: "Upload each request to the object store and publish one job per file to\n" +
			kafka.TopicAnnotateRequested + ". With --inline the request travels inside the\n" +
			"job event instead.  All jobs of one invocation are published as a batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, append(files, args...), inline, deps)
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "request file (repeatable)")
	cmd.Flags().BoolVar(&inline, "inline", false, "embed the request in the job event")
	return cmd
}

// submitted is one queued job.
type submitted struct {
	File     string `json:"file"`
	JobID    string `json:"job_id"`
	InputKey string `json:"input_key,omitempty"`
}

type submitResult struct {
	Jobs []submitted `json:"jobs"`
}

func (s submitResult) String() string {
	out := ""
	for _, j := range s.Jobs {
		out += j.JobID + "  " + j.File + "\n"
	}
	return out
}

func (s submitResult) TableHeaders() []string { return []string{"JOB", "FILE", "INPUT"} }

func (s submitResult) TableRows() [][]string {
	rows := make([][]string, len(s.Jobs))
	for i, j := range s.Jobs {
		rows[i] = []string{j.JobID, j.File, j.InputKey}
	}
	return rows
}

func runSubmit(cmd *cobra.Command, files []string, inline bool, deps CommandDependencies) error {
	if len(files) == 0 {
		return errors.InvalidParam("at least one request file is required")
	}
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	// Parse everything before touching the backends.
	reqs := make([]*dto.AnnotateRequest, len(files))
	for i, f := range files {
		if reqs[i], err = readRequest(cmd.InOrStdin(), f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	backends := deps.Submit
	if backends == nil {
		if backends, err = openSubmitBackends(ctx, cliCtx.Config, inline, cliCtx.Logger); err != nil {
			return err
		}
		defer func() {
			if err := backends.Close(); err != nil {
				cliCtx.Logger.Warn("Failed to close submit backends", logging.Err(err))
			}
		}()
	}
	if !inline && backends.Store == nil {
		return errors.InvalidParam("no object store configured; submit with --inline")
	}

	result := submitResult{Jobs: make([]submitted, len(files))}
	msgs := make([]*common.ProducerMessage, len(files))
	for i, req := range reqs {
		job := &dto.AnnotateJob{JobID: uuid.NewString()}
		if inline {
			job.Request = req
		} else {
			job.InputKey = backends.Store.InputKey(job.JobID)
			if _, err := backends.Store.PutJSON(ctx, job.InputKey, req, map[string]string{"job_id": job.JobID}); err != nil {
				return fmt.Errorf("%s: %w", files[i], err)
			}
		}
		env, err := kafka.NewAnnotateRequested(submitSource, job)
		if err != nil {
			return err
		}
		if msgs[i], err = env.ToMessage(kafka.TopicAnnotateRequested); err != nil {
			return err
		}
		result.Jobs[i] = submitted{File: files[i], JobID: job.JobID, InputKey: job.InputKey}
		recordQueued(ctx, backends.Ledger, job, cliCtx.Logger)
	}

	batch, err := backends.Publisher.PublishBatch(ctx, msgs)
	if err != nil {
		return err
	}
	cliCtx.Logger.Info("Submitted annotation jobs",
		logging.Int("succeeded", batch.Succeeded), logging.Int("failed", batch.Failed))
	if batch.Failed > 0 {
		detail := ""
		if len(batch.Errors) > 0 {
			first := batch.Errors[0]
			detail = "index " + strconv.Itoa(first.Index)
			if first.Error != nil {
				detail += ": " + first.Error.Error()
			}
		}
		return errors.New(errors.ErrCodePublishFailed,
			fmt.Sprintf("%d of %d jobs were not published", batch.Failed, len(msgs))).WithDetail(detail)
	}
	return PrintResult(cmd, result)
}

// recordQueued enters job into the ledger before its event is published so
// the worker finds it.  The ledger is advisory; failures only warn.
func recordQueued(ctx context.Context, repo ledger.Repository, job *dto.AnnotateJob, logger logging.Logger) {
	if repo == nil {
		return
	}
	rec, err := ledger.NewRecord(job.JobID, job.InputKey, time.Now().UTC())
	if err == nil {
		err = repo.Save(ctx, rec)
	}
	if err != nil {
		logger.Warn("Failed to record queued job", logging.String("job_id", job.JobID), logging.Err(err))
	}
}

//Personal.AI order the ending
