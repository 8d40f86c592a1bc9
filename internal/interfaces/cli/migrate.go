package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Depict/internal/config"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
)

// Migrator applies the job ledger schema.
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
}

type dsnMigrator struct {
	dsn string
}

func (m dsnMigrator) Up() error            { return postgres.RunMigrations(m.dsn) }
func (m dsnMigrator) Down(steps int) error { return postgres.RollbackMigration(m.dsn, steps) }
func (m dsnMigrator) Status() (uint, bool, error) {
	return postgres.MigrationStatus(m.dsn)
}

func resolveMigrator(cfg *config.Config, deps CommandDependencies) Migrator {
	if deps.Migrator != nil {
		return deps.Migrator
	}
	return dsnMigrator{dsn: postgres.BuildDSN(cfg.PostgresClientConfig())}
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(deps CommandDependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the job ledger schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, deps, func(m Migrator) error { return m.Up() })
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, deps, func(m Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, deps, func(Migrator) error { return nil })
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("schema version %d (dirty)\n", s.Version)
	}
	return fmt.Sprintf("schema version %d\n", s.Version)
}

// runMigrate runs op and then reports the resulting schema version.
func runMigrate(cmd *cobra.Command, deps CommandDependencies, op func(Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	m := resolveMigrator(cliCtx.Config, deps)
	if err := op(m); err != nil {
		return err
	}
	version, dirty, err := m.Status()
	if err != nil {
		return err
	}
	return PrintResult(cmd, migrationStatus{Version: version, Dirty: dirty})
}

//Personal.AI order the ending
