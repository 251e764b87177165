package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/config"
	"github.com/raphi011/jt/internal/log"
	"github.com/raphi011/jt/internal/output"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	configPath string
	noCache    bool

	// Shared state injected into commands
	cfg *config.Config
)

// Command group IDs for organizing help output
const (
	GroupBrowse   = "browse"
	GroupAct      = "act"
	GroupMaintain = "maintain"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jt",
	Short: "Jira in the terminal, built to work offline",
	Long: `jt is a terminal client for Jira.

Every read is served from a local cache first and refreshed from the
server in the background, so browsing stays fast and keeps working
when the network does not.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2, // Enable typo suggestions
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		// Flags are parsed by now, so the logger built here honors
		// --verbose and --quiet.
		cmd.SetContext(commandContext(cmd.Context(), os.Stderr, os.Stdout, os.Stderr))

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = &loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation on a terminal opens the TUI.
		if isatty.IsTerminal(os.Stderr.Fd()) {
			return runBrowse(cmd.Context(), "", 0, "")
		}
		return cmd.Help()
	},
}

// commandContext attaches the logger and the output printer. It must run
// after flag parsing so verbose and quiet carry their final values.
func commandContext(ctx context.Context, logOut, dataOut, noteOut io.Writer) context.Context {
	ctx = log.WithLogger(ctx, log.New(logOut, verbose, quiet))
	return output.WithPrinter(ctx, output.New(dataOut, noteOut))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Store context for commands to use; the logger and printer are
	// attached in PersistentPreRunE once flags have been parsed.
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'jt -h' for help")
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show requests being made")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/jt/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the local cache for this run")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Add command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupBrowse, Title: "Browse Commands:"},
		&cobra.Group{ID: GroupAct, Title: "Act Commands:"},
		&cobra.Group{ID: GroupMaintain, Title: "Maintenance Commands:"},
	)

	// Browse commands
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newIssuesCmd())
	rootCmd.AddCommand(newIssueCmd())
	rootCmd.AddCommand(newBoardsCmd())
	rootCmd.AddCommand(newEpicsCmd())
	rootCmd.AddCommand(newRecentCmd())

	// Act commands
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newOpenCmd())

	// Maintenance commands
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newInitCmd())
}
