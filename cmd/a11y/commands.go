package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/a11y/a11y"
)

const version = "1.0.0"

type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	cfgPath string
	cfg     *a11y.Config
	logger  *slog.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:          "a11y",
		Short:        "WCAG accessibility checker and compliance service",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file")

	root.AddCommand(
		a.serveCmd(),
		a.mcpCmd(),
		a.checkCmd(),
		a.complyCmd(),
		a.contrastCmd(),
		a.criterionCmd(),
		a.searchCmd(),
		a.listCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg := &a11y.Config{}
	if a.cfgPath != "" {
		c, err := a11y.LoadConfigFile(a.cfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
	}
	cfg.ApplyEnv()
	a.cfg = cfg
	a.logger = slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{
		Level: a11y.ParseLogLevel(cfg.LogLevel),
	}))
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file, or stdin when path is "-".
func (a *app) readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(a.stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// stateless builds a Service without a database for one-shot commands.
func (a *app) stateless() (*a11y.Service, error) {
	return a11y.New(*a.cfg, a.logger)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run queued URL audits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			svc, err := a11y.Open(*a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			svc.Start(ctx)

			srv := &http.Server{
				Addr:              a.cfg.Addr,
				Handler:           svc.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("a11y: listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("a11y: shutdown", "error", err)
			}
			a.logger.Info("a11y: server stopped")
			return nil
		},
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			svc, err := a11y.Open(*a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			svc.Start(ctx)

			srv := mcp.NewServer(&mcp.Implementation{Name: "a11y", Version: version}, nil)
			svc.RegisterMCP(srv)
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var errorsOnly, strict, reminders bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Check an HTML file (or - for stdin) for accessibility issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			svc, err := a.stateless()
			if err != nil {
				return err
			}
			res, err := svc.CheckHTML(cmd.Context(), src, a11y.CheckOptions{IncludeWarnings: !errorsOnly, ContrastReminder: reminders})
			if err != nil {
				return err
			}
			if err := a.printJSON(res); err != nil {
				return err
			}
			if strict && res.Summary.Errors > 0 {
				return fmt.Errorf("%d accessibility errors", res.Summary.Errors)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "omit warnings and advisories")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when errors are found")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "add the colour-contrast reminder")
	return cmd
}

func (a *app) complyCmd() *cobra.Command {
	var (
		level, format string
		save, strict  bool
	)
	cmd := &cobra.Command{
		Use:   "comply FILE",
		Short: "Score an HTML file against a WCAG level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			var svc *a11y.Service
			if save {
				svc, err = a11y.Open(*a.cfg, a.logger)
			} else {
				svc, err = a.stateless()
			}
			if err != nil {
				return err
			}
			defer svc.Close()

			source := args[0]
			if source == "-" {
				source = "stdin"
			}
			rep, err := svc.EvaluateHTML(cmd.Context(), src, level, true, source)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				err = a.printJSON(rep)
			case "html":
				var page []byte
				if page, err = a11y.RenderHTML(rep); err == nil {
					_, err = a.stdout.Write(page)
				}
			case "md", "markdown":
				var md string
				if md, err = a11y.RenderMarkdown(rep); err == nil {
					_, err = io.WriteString(a.stdout, md)
				}
			default:
				err = fmt.Errorf("unknown format %q (json, html, md)", format)
			}
			if err != nil {
				return err
			}
			if strict && !rep.Passed() {
				return fmt.Errorf("%s", rep.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "target level A, AA or AAA (default from config)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, html or md")
	cmd.Flags().BoolVar(&save, "save", false, "store the report in the database")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the level is not met")
	return cmd
}

func (a *app) contrastCmd() *cobra.Command {
	var (
		size float64
		bold bool
	)
	cmd := &cobra.Command{
		Use:   "contrast FOREGROUND BACKGROUND",
		Short: "Compute the contrast ratio of two #RRGGBB colors",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := a.stateless()
			if err != nil {
				return err
			}
			res, err := svc.CheckContrast(args[0], args[1], size, bold)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().Float64Var(&size, "size", 16, "font size in px")
	cmd.Flags().BoolVar(&bold, "bold", false, "text is bold")
	return cmd
}

func (a *app) criterionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "criterion NUMBER",
		Short: "Show one WCAG success criterion",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := a.stateless()
			if err != nil {
				return err
			}
			d, err := svc.LookupCriterion(args[0])
			if err != nil {
				return err
			}
			return a.printJSON(d)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search TERM",
		Short: "Search criteria titles and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := a.stateless()
			if err != nil {
				return err
			}
			return a.printJSON(svc.SearchCriteria(args[0]))
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var level, principle string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List criteria by level and principle",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := a.stateless()
			if err != nil {
				return err
			}
			res, err := svc.ListCriteria(level, principle)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().StringVar(&level, "level", "all", "A, AA, AAA or all")
	cmd.Flags().StringVar(&principle, "principle", "all", "Perceivable, Operable, Understandable, Robust or all")
	return cmd
}
