package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// resolveJobs prefers injected deps, then --server, then a direct ledger
// connection.  The returned closer is never nil.
func resolveJobs(ctx context.Context, cliCtx *CLIContext, deps CommandDependencies) (depict.JobQueryService, func() error, error) {
	noop := func() error { return nil }
	if deps.Jobs != nil {
		return deps.Jobs, noop, nil
	}
	if cliCtx.Client != nil {
		return cliCtx.Client, noop, nil
	}
	if !cliCtx.Config.Postgres.Enabled {
		return nil, noop, errors.InvalidParam("job ledger unavailable").
			WithDetail("pass --server or enable postgres in the configuration")
	}
	conn, err := postgres.NewConnection(ctx, cliCtx.Config.PostgresClientConfig(), cliCtx.Logger)
	if err != nil {
		return nil, noop, err
	}
	repo := repositories.NewPostgresJobRepo(conn, nil, cliCtx.Logger)
	return depict.NewJobQueryService(repo), conn.Close, nil
}

// NewJobCmd creates the job command group.
func NewJobCmd(deps CommandDependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect the annotation job ledger",
	}
	cmd.AddCommand(newJobGetCmd(deps), newJobListCmd(deps))
	return cmd
}

func newJobGetCmd(deps CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobs(cmd, deps, func(ctx context.Context, jobs depict.JobQueryService) error {
				info, err := jobs.GetJob(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, jobListResult{Jobs: []*dto.JobInfo{info}, single: true})
			})
		},
	}
}

func newJobListCmd(deps CommandDependencies) *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobs(cmd, deps, func(ctx context.Context, jobs depict.JobQueryService) error {
				list, err := jobs.ListJobs(ctx, status, limit)
				if err != nil {
					return err
				}
				return PrintResult(cmd, jobListResult{Jobs: list.Jobs})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "queued, running, succeeded or failed")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of jobs (server default when 0)")
	return cmd
}

func withJobs(cmd *cobra.Command, deps CommandDependencies, fn func(context.Context, depict.JobQueryService) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	jobs, closeJobs, err := resolveJobs(ctx, cliCtx, deps)
	if err != nil {
		return err
	}
	defer closeJobs()
	return fn(ctx, jobs)
}

type jobListResult struct {
	Jobs   []*dto.JobInfo
	single bool
}

func (r jobListResult) JSONValue() interface{} {
	if r.single && len(r.Jobs) == 1 {
		return r.Jobs[0]
	}
	return dto.JobList{Jobs: r.Jobs}
}

func (r jobListResult) String() string {
	var sb strings.Builder
	if r.single && len(r.Jobs) == 1 {
		j := r.Jobs[0]
		fmt.Fprintf(&sb, "job:       %s\n", j.JobID)
		fmt.Fprintf(&sb, "status:    %s\n", j.Status)
		fmt.Fprintf(&sb, "attempts:  %d\n", j.Attempts)
		if j.Worker != "" {
			fmt.Fprintf(&sb, "worker:    %s\n", j.Worker)
		}
		if j.InputKey != "" {
			fmt.Fprintf(&sb, "input:     %s\n", j.InputKey)
		}
		if j.ResultKey != "" {
			fmt.Fprintf(&sb, "result:    %s\n", j.ResultKey)
		}
		if j.Error != "" {
			fmt.Fprintf(&sb, "error:     %s\n", j.Error)
		}
		fmt.Fprintf(&sb, "updated:   %s\n", j.UpdatedAt.Format(time.RFC3339))
		return sb.String()
	}
	for _, j := range r.Jobs {
		fmt.Fprintf(&sb, "%s  %-9s  %s\n", j.JobID, j.Status, j.UpdatedAt.Format(time.RFC3339))
	}
	return sb.String()
}

func (r jobListResult) TableHeaders() []string {
	return []string{"JOB", "STATUS", "ATTEMPTS", "UPDATED", "ERROR"}
}

func (r jobListResult) TableRows() [][]string {
	rows := make([][]string, len(r.Jobs))
	for i, j := range r.Jobs {
		rows[i] = []string{j.JobID, string(j.Status), strconv.Itoa(j.Attempts), j.UpdatedAt.Format(time.RFC3339), j.Error}
	}
	return rows
}

//Personal.AI order the ending
