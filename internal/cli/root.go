// Package cli implements the nrmirror command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	cacheDir  string
	verbosity int
	logFormat string
	noCache   bool
	jsonMode  bool
}

var flags rootFlags

// userError marks failures caused by the invocation rather than the system.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "nrmirror" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "nrmirror",
		Short: "Mirror a numerical-relativity waveform catalog",
		Long: "nrmirror discovers simulations in a remote numerical-relativity catalog,\n" +
			"mirrors their metadata and waveform files into a local cache, and keeps\n" +
			"a consolidated index of all simulation metadata.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return userError{err}
	})

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", "", "cache root (default: ~/.nr_data)")
	root.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	root.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "do not read or write the local cache")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newRefreshCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newStatusCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code. An
// interrupt cancels the running command; progress already persisted stays.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ue userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue):
		return exitUserError
	default:
		return exitSysError
	}
}
