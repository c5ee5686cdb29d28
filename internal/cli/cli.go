package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/blockbind/internal/app"
	"github.com/vk/blockbind/internal/registry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes.
const (
	ExitDiagnostics = 1
	ExitUsage       = 2
)

// Options wires the commands to their collaborators.
type Options struct {
	Out     io.Writer // reports and documents
	Err     io.Writer // logs and help; defaults to Out
	Codec   app.Codec
	Modules []registry.Module
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logFormat string
	logLevel  string
	maxEvents int
}

// Execute runs the command line in args. Usage problems come back as an
// ExitError with code 2 and a failed --fail-on-warnings check as code 1.
func Execute(ctx context.Context, args []string, opts Options) error {
	started := false
	root := newRootCommand(opts, &started)
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrDiagnostics):
		return &ExitError{Code: ExitDiagnostics, Message: err.Error()}
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if !started {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return err
}

func newRootCommand(opts Options, started *bool) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "blockbind",
		Short: "Live variable and function binding for block programs",
		Long: `blockbind keeps the variables, parameters and function calls of a block
program consistent: names stay unique and valid, references follow renames,
call sites follow signatures and misplaced blocks are flagged.

Documents are .hcl files (or directories of them) holding one node block
per program block.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.errW())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "auto", "Log output format. Options: 'auto', 'text' or 'json'.")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().IntVar(&g.maxEvents, "max-events", 0, "Maximum events processed for one edit. 0 uses the default.")

	c := &commands{opts: opts, global: g, started: started}
	root.AddCommand(c.checkCmd())
	root.AddCommand(c.replayCmd())
	root.AddCommand(c.fmtCmd())
	root.AddCommand(c.watchCmd())
	root.AddCommand(c.serveCmd())
	return root
}

// commands builds subcommands that share the global flags.
type commands struct {
	opts    Options
	global  *globalFlags
	started *bool
}

// newApp validates cfg and builds the app. Validation errors are usage
// errors.
func (c *commands) newApp(cfg app.Config) (*app.App, error) {
	cfg.LogFormat = strings.ToLower(c.global.logFormat)
	cfg.LogLevel = strings.ToLower(c.global.logLevel)
	cfg.MaxEvents = c.global.maxEvents
	cfg.LogOutput = c.opts.errW()

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	*c.started = true
	return app.NewApp(c.opts.Out, config, c.opts.Codec, c.opts.Modules...), nil
}

func (o Options) errW() io.Writer {
	if o.Err != nil {
		return o.Err
	}
	return o.Out
}
