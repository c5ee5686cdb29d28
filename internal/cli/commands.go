package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/blockbind/internal/app"
)

func (c *commands) checkCmd() *cobra.Command {
	var (
		indexPath string
		outPath   string
		asJSON    bool
		strict    bool
		port      int
	)

	cmd := &cobra.Command{
		Use:   "check PATH",
		Short: "Load a document and report its bindings and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(app.Config{
				DocumentPath:      args[0],
				IndexPath:         indexPath,
				OutputPath:        outPath,
				ReportFormat:      reportFormat(asJSON),
				FailOnDiagnostics: strict,
				HealthcheckPort:   port,
			})
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Write the binding index to this SQLite file.")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the normalized document here ('-' for stdout).")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON.")
	cmd.Flags().BoolVar(&strict, "fail-on-warnings", false, "Exit with code 1 when any block carries a warning.")
	cmd.Flags().IntVar(&port, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func (c *commands) replayCmd() *cobra.Command {
	var (
		indexPath string
		outPath   string
		asJSON    bool
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "replay PATH SCRIPT",
		Short: "Apply an edit script to a document and report the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(app.Config{
				DocumentPath:      args[0],
				ScriptPath:        args[1],
				IndexPath:         indexPath,
				OutputPath:        outPath,
				ReportFormat:      reportFormat(asJSON),
				FailOnDiagnostics: strict,
			})
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Write the binding index to this SQLite file.")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the edited document here ('-' for stdout).")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON.")
	cmd.Flags().BoolVar(&strict, "fail-on-warnings", false, "Exit with code 1 when any block carries a warning.")
	return cmd
}

func (c *commands) fmtCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "fmt PATH",
		Short: "Rewrite a document with normalized names and mutations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(app.Config{DocumentPath: args[0], OutputPath: outPath})
			if err != nil {
				return err
			}
			return a.Format(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Destination file ('-' for stdout).")
	return cmd
}

func (c *commands) watchCmd() *cobra.Command {
	var (
		indexPath string
		asJSON    bool
		debounce  time.Duration
		port      int
	)

	cmd := &cobra.Command{
		Use:   "watch PATH",
		Short: "Re-check a document every time it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(app.Config{
				DocumentPath:    args[0],
				IndexPath:       indexPath,
				ReportFormat:    reportFormat(asJSON),
				Debounce:        debounce,
				HealthcheckPort: port,
			})
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Keep the binding index in this SQLite file.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON.")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a burst of changes is processed. 0 uses the default.")
	cmd.Flags().IntVar(&port, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func (c *commands) serveCmd() *cobra.Command {
	var (
		editorURL string
		namespace string
		insecure  bool
		timeout   time.Duration
		indexPath string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "serve [PATH]",
		Short: "Bind a live editor session over socket.io",
		Long: `serve connects to an editor over socket.io, applies every block event it
receives and answers with the updated bindings. PATH, if given, seeds the
workspace before the first event.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config{
				EditorURL:          editorURL,
				EditorNamespace:    namespace,
				InsecureSkipVerify: insecure,
				ConnectTimeout:     timeout,
				IndexPath:          indexPath,
				HealthcheckPort:    port,
			}
			if len(args) > 0 {
				cfg.DocumentPath = args[0]
			}
			a, err := c.newApp(cfg)
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&editorURL, "url", "", "Editor socket.io endpoint, e.g. http://localhost:3000/socket.io/.")
	cmd.Flags().StringVar(&namespace, "namespace", "/", "socket.io namespace.")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification.")
	cmd.Flags().DurationVar(&timeout, "connect-timeout", 0, "How long to wait for the editor handshake. 0 uses the default.")
	cmd.Flags().StringVar(&indexPath, "index", "", "Keep the binding index in this SQLite file.")
	cmd.Flags().IntVar(&port, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func reportFormat(asJSON bool) string {
	if asJSON {
		return app.ReportJSON
	}
	return app.ReportText
}
