package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cardx/internal/repositories"
	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Side names one end of a migration.
type Side string

const (
	SourceSide Side = "source"
	TargetSide Side = "target"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	transports map[Side]services.Transport
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config          *shared.Config
	ConfigPath      string
	SourceTransport services.Transport // Overrides the client built from [source] config
	TargetTransport services.Transport // Overrides the client built from [target] config
	Logger          *log.Logger
	Output          io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	transports := map[Side]services.Transport{}
	if opts.SourceTransport != nil {
		transports[SourceSide] = opts.SourceTransport
	}
	if opts.TargetTransport != nil {
		transports[TargetSide] = opts.TargetTransport
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		transports: transports,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, boardsCommand, cardsCommand, migrateCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by the root --config flag and applies the log level.
//
// A missing file keeps the defaults so that `setup` can create it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// SetLogger replaces the logger, e.g. when the terminal is handed to the TUI.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) instance(side Side) shared.InstanceConfig {
	if side == TargetSide {
		return r.config.Target
	}
	return r.config.Source
}

// transport returns the HTTP client of one instance, building it from config on first use.
func (r *Runner) transport(ctx context.Context, side Side) (services.Transport, error) {
	if t, ok := r.transports[side]; ok {
		return t, nil
	}

	inst := r.instance(side)
	client, err := services.NewClient(ctx, inst.Domain, inst.Token,
		services.WithRateLimit(r.config.Migration.RequestsPerSecond))
	if err != nil {
		return nil, fmt.Errorf("%s instance: %w", side, err)
	}

	r.transports[side] = client
	return client, nil
}

// service returns the typed API of one instance.
func (r *Runner) service(ctx context.Context, side Side) (*services.KaitenService, error) {
	t, err := r.transport(ctx, side)
	if err != nil {
		return nil, err
	}
	return services.NewKaitenService(t), nil
}

// domain returns the configured domain of one side, or the injected transport's domain.
func (r *Runner) domain(side Side) string {
	if t, ok := r.transports[side]; ok {
		return t.Domain()
	}
	return r.instance(side).Domain
}

func parseSide(s string) (Side, error) {
	switch Side(s) {
	case SourceSide, TargetSide:
		return Side(s), nil
	case "":
		return SourceSide, nil
	}
	return "", fmt.Errorf("%w: side must be source or target, got %q", shared.ErrInvalidFlag, s)
}

// openDatabase opens the history database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// historyRepos opens the database and returns both history repositories.
func (r *Runner) historyRepos() (*sql.DB, *repositories.RunRepository, *repositories.CardRecordRepository, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, nil, err
	}
	return db, repositories.NewRunRepository(db), repositories.NewCardRecordRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeRawJSON writes an API response body unchanged, or re-indented when pretty.
func (r *Runner) writeRawJSON(data json.RawMessage, pretty bool) error {
	var buf bytes.Buffer
	if !pretty || json.Indent(&buf, data, "", "  ") != nil {
		buf.Reset()
		buf.Write(data)
	}
	buf.WriteByte('\n')
	return r.writeBytes(buf.Bytes())
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
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
