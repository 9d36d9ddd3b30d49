package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session controller and its collaborators are built on first use so that commands
// like "setup config" run without a session key.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	controller *auth.Controller
	playlists  services.PlaylistSource
	exchanger  services.IdentityExchanger
	enricher   services.Enricher
	closers    []func() error

	// pollInterval spaces track page requests while the backend imports a playlist.
	pollInterval time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// Prebuilt collaborators, mostly for tests. Nil values are built from Config.
	Controller *auth.Controller
	Playlists  services.PlaylistSource
	Exchanger  services.IdentityExchanger
	Enricher   services.Enricher
}

const defaultPollInterval = 3 * time.Second

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		controller: opts.Controller,
		playlists:  opts.Playlists,
		exchanger:  opts.Exchanger,
		enricher:   opts.Enricher,

		pollInterval: defaultPollInterval,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, profileCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, falling back to the embedded defaults
// when the file does not exist. --session-key (or PLX_SESSION_KEY) overrides session.key.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config, err := loadConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	config.ApplyEnv()
	if key := cmd.String("session-key"); key != "" {
		config.Session.Key = key
	}

	r.config = config
	return ctx, nil
}

// After releases database and Redis connections opened by the command.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close runs the registered closers in reverse order.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return shared.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	return shared.LoadConfig(path)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
