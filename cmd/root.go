package cmd

import (
	"os"

	"baton/pkg/conduct"
	"baton/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can tell a stalled
// choreography apart from a misused conductor.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeUsage indicates a conductor was driven against its single-use contract.
	ExitCodeUsage = 2
	// ExitCodeTimeout indicates a conduct hit its deadlock budget with threads still running.
	ExitCodeTimeout = 3
)

// rootVerbose and rootDebug raise logging verbosity for every subcommand.
var (
	rootVerbose bool
	rootDebug   bool
)

// rootCmd represents the base command for the baton application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "baton",
	Short: "Choreograph multi-threaded scenarios on a shared beat clock",
	Long: `baton runs small concurrency scenarios in which every thread follows a
shared logical clock. Threads park until a chosen beat, the clock only
advances once everything still running is parked, and a conduct either
completes cleanly or names exactly which threads stalled.

Use 'baton list' to see the built-in choreographies, 'baton demo' to
watch one unfold beat by beat, and 'baton stress' to repeat them while
hunting for scheduling-dependent failures.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	// This is useful for providing cleaner error output to the user.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if rootVerbose {
			level = logging.LevelInfo
		}
		if rootDebug {
			level = logging.LevelDebug
		}
		// Logs go to stderr so tables and traces stay parseable on stdout.
		logging.InitForConsole(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
// This can be used by other commands to access the build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	// SetVersionTemplate defines a custom template for displaying the version.
	// This is used when the --version flag is invoked.
	rootCmd.SetVersionTemplate(`{{printf "baton version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Check for specific error types and return appropriate exit codes
		exitCode := getExitCode(err)
		os.Exit(exitCode)
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if conduct.IsTimeout(err) {
		return ExitCodeTimeout
	}
	if conduct.IsUsageError(err) {
		return ExitCodeUsage
	}

	// Default to general error
	return ExitCodeError
}

// init is a special Go function that is executed when the package is initialized.
// It is used here to add subcommands to the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStressCmd())

	rootCmd.PersistentFlags().BoolVar(&rootVerbose, "verbose", false, "Enable informational logging")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
}
