package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/govern/internal/exitcode"
	"github.com/felixgeelhaar/govern/internal/log"
	"github.com/felixgeelhaar/govern/internal/ux"
	"github.com/felixgeelhaar/govern/internal/version"
)

var (
	configPath string
	rootDir    string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "govern",
	Short: "Claim enforcement, drift review and waiver validation",
	Long: `govern runs the compliance claims declared in .govern/governance.yaml and
decides whether the calling process should block. It also keeps the drift
log, an append-only record of detected deviations that operators review,
and validates the waivers that may suppress a failing claim.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a cancellable context.
// Uncoded errors gain a recovery suggestion where one is known.
func ExecuteContext(ctx context.Context) error {
	return ux.EnhanceError(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.Long += "\n\n" + exitCodeHelp()
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "governance config file (default <root>/.govern/governance.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (default: nearest directory containing .govern)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// setupLogging installs the process logger. Logs go to stderr so that
// command output on stdout stays machine-readable. Under CI the defaults
// switch to INFO JSON; explicit flags always win.
func setupLogging(cmd *cobra.Command, _ []string) error {
	ci := os.Getenv("CI") != ""
	cfg := log.DefaultConfig()
	if ci {
		cfg = log.CIConfig()
	}
	flags := cmd.Flags()
	if !ci || flags.Changed("log-level") {
		cfg.Level = log.ParseLevel(logLevel)
	}
	if !ci || flags.Changed("log-format") {
		cfg.Format = log.ParseFormat(logFormat)
	}
	cfg.AddSource = cfg.Level == log.LevelDebug
	cfg.Output = cmd.ErrOrStderr()
	cfg.ServiceVersion = version.Version
	log.SetDefaultLogger(log.New(cfg))
	return nil
}

// exitCodeHelp lists every exit code the CLI can return
func exitCodeHelp() string {
	codes := []int{
		exitcode.Success,
		exitcode.GeneralError,
		exitcode.UsageError,
		exitcode.BlockingFailure,
		exitcode.NotFound,
		exitcode.InvalidTransition,
		exitcode.WaiverViolation,
		exitcode.IOError,
		exitcode.Interrupted,
	}
	var b strings.Builder
	b.WriteString("Exit codes:")
	for _, code := range codes {
		fmt.Fprintf(&b, "\n  %3d - %s", code, exitcode.GetExitCodeDescription(code))
	}
	return b.String()
}
