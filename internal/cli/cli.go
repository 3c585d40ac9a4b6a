package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/vk/testrig/internal/app"
	"github.com/vk/testrig/internal/hcl"
	"github.com/vk/testrig/internal/history"
)

// AppName is the binary name shown in usage text.
const AppName = "testrig"

const defaultHistoryPath = ".testrig/history"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode implements cli.ExitCoder.
func (e *ExitError) ExitCode() int {
	return e.Code
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// CLI is the command-line front end of the application.
type CLI struct {
	outW io.Writer
	errW io.Writer
	cli  *cli.App
}

// New builds the command tree. Reports and help go to outW, logs to errW.
func New(outW, errW io.Writer) *CLI {
	c := &CLI{outW: outW, errW: errW}
	onUsageError := func(_ *cli.Context, err error, _ bool) error {
		return usageError(err)
	}

	c.cli = &cli.App{
		Name:      AppName,
		Usage:     "Run declarative API, load and UI tests",
		Writer:    outW,
		ErrWriter: errW,
		// Exit codes are resolved by the caller, never inside the library.
		ExitErrHandler: func(*cli.Context, error) {},
		OnUsageError:   onUsageError,
		Commands: []*cli.Command{
			{
				Name:         "run",
				Usage:        "Execute the test cases found in the given files or directories",
				ArgsUsage:    "PATH...",
				Action:       c.run,
				OnUsageError: onUsageError,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of test cases executed concurrently",
						Value:   4,
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Report format. Options: 'text' or 'json'",
						Value: "text",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Keep the execution history in memory only",
					},
					&cli.IntFlag{
						Name:  "healthcheck-port",
						Usage: "Port for the health check and progress server. 0 is disabled",
					},
					&cli.StringFlag{
						Name:    "progress-url",
						Usage:   "socket.io dashboard that receives live progress",
						EnvVars: []string{"TESTRIG_PROGRESS_URL"},
					},
					&cli.StringFlag{
						Name:    "chrome",
						Usage:   "Chrome executable for browser mode (detected when empty)",
						EnvVars: []string{"TESTRIG_CHROME"},
					},
				),
			},
			{
				Name:         "history",
				Usage:        "List previous executions, newest first",
				Action:       c.history,
				OnUsageError: onUsageError,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Limit number of results. 0 lists everything",
						Value:   20,
					},
				),
			},
			{
				Name:         "show",
				Usage:        "Print the full result of one execution as JSON",
				ArgsUsage:    "ID",
				Action:       c.show,
				OnUsageError: onUsageError,
				Flags:        commonFlags(),
			},
		},
	}
	return c
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log output format. Options: 'text' or 'json'",
			Value: "text",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Set the logging level. Options: 'debug', 'info', 'warn', 'error'",
			Value: "info",
		},
		&cli.StringFlag{
			Name:    "history",
			Usage:   "Directory of the execution history database",
			Value:   defaultHistoryPath,
			EnvVars: []string{"TESTRIG_HISTORY"},
		},
	}
}

// Run parses args, which exclude the program name, and runs the selected
// command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	slog.Debug("CLI parser started.")
	return c.cli.RunContext(ctx, append([]string{AppName}, args...))
}

// baseConfig validates the flags shared by every command.
func baseConfig(cCtx *cli.Context) (app.Config, error) {
	logFormat := strings.ToLower(cCtx.String("log-format"))
	if logFormat != "text" && logFormat != "json" {
		return app.Config{}, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(cCtx.String("log-level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return app.Config{}, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return app.Config{
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		HistoryPath: cCtx.String("history"),
	}, nil
}

func (c *CLI) newApp(cfg app.Config) (*app.App, error) {
	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parser finished successfully.", "config", config)
	return app.NewApp(c.outW, c.errW, config, hcl.NewLoader()), nil
}

func (c *CLI) run(cCtx *cli.Context) error {
	paths := cCtx.Args().Slice()
	if len(paths) == 0 {
		return &ExitError{Code: 2, Message: "at least one test case PATH is required"}
	}

	cfg, err := baseConfig(cCtx)
	if err != nil {
		return err
	}
	cfg.Paths = paths
	cfg.WorkerCount = cCtx.Int("workers")
	cfg.ReportFormat = strings.ToLower(cCtx.String("report"))
	cfg.HealthcheckPort = cCtx.Int("healthcheck-port")
	cfg.ProgressURL = cCtx.String("progress-url")
	cfg.ChromePath = cCtx.String("chrome")
	if cCtx.Bool("no-history") {
		cfg.HistoryPath = ""
	}

	a, err := c.newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.Run(cCtx.Context); err != nil {
		if errors.Is(err, app.ErrTestsFailed) {
			return &ExitError{Code: 1, Message: err.Error()}
		}
		return err
	}
	return nil
}

func (c *CLI) history(cCtx *cli.Context) error {
	cfg, err := baseConfig(cCtx)
	if err != nil {
		return err
	}
	a, err := c.newApp(cfg)
	if err != nil {
		return err
	}
	return a.History(cCtx.Context, cCtx.Int("limit"))
}

func (c *CLI) show(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return &ExitError{Code: 2, Message: "show requires exactly one run ID"}
	}
	cfg, err := baseConfig(cCtx)
	if err != nil {
		return err
	}
	a, err := c.newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.Show(cCtx.Context, cCtx.Args().First()); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return &ExitError{Code: 1, Message: err.Error()}
		}
		return err
	}
	return nil
}
