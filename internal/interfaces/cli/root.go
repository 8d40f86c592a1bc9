package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/config"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/client"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Client       *client.Client // nil unless --server is set
	OutputFormat string
	Timeout      time.Duration
}

// CommandDependencies lets callers replace the backends the subcommands
// would otherwise build from configuration.  Zero fields mean "build".
type CommandDependencies struct {
	Annotator Annotator
	Submit    *SubmitBackends
	Jobs      depict.JobQueryService
	Migrator  Migrator
}

// NewRootCommand creates the root cobra command with all global flags.
// Subcommands are attached by RegisterCommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "depict",
		Short: "depict annotates molecular graphs for display",
		Long: "depict perceives valence and dative bonds, chooses which hydrogens to\n" +
			"draw and keeps abbreviations consistent across mapped reactions.\n" +
			"Graphs are read as JSON annotation requests.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./depict.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "annotate through this API server instead of in-process")

	return cmd
}

// RegisterCommands attaches every subcommand to rootCmd.
func RegisterCommands(rootCmd *cobra.Command, deps CommandDependencies) {
	rootCmd.AddCommand(
		NewAnnotateCmd(deps),
		NewOptionsCmd(deps),
		NewSubmitCmd(deps),
		NewJobCmd(deps),
		NewMigrateCmd(deps),
		NewVersionCmd(),
	)
}

// persistentPreRun initializes config, logger and client, then stores the
// CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.InvalidParam("unsupported output format").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	var apiClient *client.Client
	if opts.ServerAddr != "" {
		apiClient, err = client.NewClient(opts.ServerAddr,
			client.WithTimeout(opts.Timeout),
			client.WithUserAgent("depict-cli/"+Version))
		if err != nil {
			return fmt.Errorf("client initialization failed: %w", err)
		}
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./depict.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".depict", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/depict/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger creates a console logger on stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           logging.FormatConsole,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext bounds a command by the global timeout.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	RegisterCommands(rootCmd, CommandDependencies{})

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results with a tabular rendering.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	if r, ok := data.(interface{ JSONValue() interface{} }); ok {
		data = r.JSONValue()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprint(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
