// Command ksync mirrors a remote Kibana-like config service's saved
// objects, spaces, workflows, agents, and tools onto a version-controlled
// local tree, and reconciles the two directions back.
//
// Usage:
//
//	KIBANA_URL=https://kibana.example.com:5601 ksync pull --space default --api tool,agent
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/cliflags"
	"github.com/p-blackswan/ksync/internal/config"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/orchestrator"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, err := cliflags.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(orchestrator.ExitFatal)
	}

	logger := newLogger(cmd.Debug)
	runID := uuid.New().String()
	logger = logger.With().Str("run_id", runID).Logger()

	// init never talks to the Server, so it runs before configuration is
	// even loaded — a bare checkout can be bootstrapped with no KIBANA_URL.
	if cmd.Name == cliflags.Init {
		if err := initProject(cmd.Project, cmd.BundleFile); err != nil {
			logger.Error().Err(err).Msg("init failed")
			return int(orchestrator.ExitFatal)
		}
		logger.Info().Str("project", cmd.Project).Msg("project initialized")
		return int(orchestrator.ExitSuccess)
	}

	overrides, err := envOverrides(cmd.EnvFile)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load env file")
		return int(orchestrator.ExitFatal)
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return int(orchestrator.ExitFatal)
	}

	auth, err := cfg.ResolveAuth()
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve credentials")
		return int(orchestrator.ExitFatal)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := httpclient.Connect(ctx, cfg.KibanaURL, auth, cmd.Project, cfg.KibanaMaxRequests, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect")
		return int(orchestrator.ExitFatal)
	}

	o := orchestrator.New(client, cmd.Project, cfg.KibanaMaxRequests, logger)

	logger.Info().
		Str("command", string(cmd.Name)).
		Strs("spaces", cmd.Spaces).
		Msg("ksync starting")

	switch cmd.Name {
	case cliflags.Auth:
		return runAuth(ctx, o, logger)
	case cliflags.Pull:
		return runSummary(o.Pull(ctx, cmd.Spaces, cmd.Families, cmd.Force))
	case cliflags.Push:
		managed := cmd.Managed
		return runSummary(o.Push(ctx, cmd.Spaces, cmd.Families, managed, cmd.Force))
	case cliflags.Add:
		return runAdd(ctx, o, cmd, logger)
	case cliflags.Togo:
		return runTogo(ctx, o, cmd, logger)
	case cliflags.Migrate:
		return runMigrate(ctx, o, cmd, logger)
	default:
		logger.Error().Str("command", string(cmd.Name)).Msg("unhandled command")
		return int(orchestrator.ExitFatal)
	}
}

func newLogger(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return logger
}

func envOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	return cliflags.LoadEnvFile(path)
}

func runAuth(ctx context.Context, o *orchestrator.Orchestrator, logger zerolog.Logger) int {
	result := o.Auth(ctx)
	logger.Info().
		Str("server_version", result.Version.String()).
		Str("default_space", result.DefaultSpaceName).
		Msg("authenticated")
	return int(orchestrator.ExitSuccess)
}

func runSummary(summary *orchestrator.Summary, err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, apperrors.ErrPushFloor) {
			return int(orchestrator.ExitWarning)
		}
		return int(orchestrator.ExitFatal)
	}
	fmt.Fprintln(os.Stdout, summary.String())
	return int(summary.ExitStatus())
}

func runAdd(ctx context.Context, o *orchestrator.Orchestrator, cmd *cliflags.Command, logger zerolog.Logger) int {
	spaceID := manifest.DefaultSpaceID
	if len(cmd.Spaces) == 1 {
		spaceID = cmd.Spaces[0]
	}
	result, err := o.Add(ctx, spaceID, cmd.Families[0], cmd.Selectors, !cmd.ExcludeDependencies)
	if err != nil {
		logger.Error().Err(err).Msg("add failed")
		return int(orchestrator.ExitFatal)
	}
	for _, entry := range result.Added {
		logger.Info().Str("space", entry.Space).Str("family", string(entry.Family)).Str("id", entry.ID).Bool("added", entry.Added).Msg("add")
	}
	for _, warning := range result.Warnings {
		logger.Warn().Msg(warning)
	}
	if len(result.Warnings) > 0 {
		return int(orchestrator.ExitWarning)
	}
	return int(orchestrator.ExitSuccess)
}

func runTogo(ctx context.Context, o *orchestrator.Orchestrator, cmd *cliflags.Command, logger zerolog.Logger) int {
	records, err := o.Enumerate(ctx, cmd.Spaces, cmd.Families)
	if err != nil {
		logger.Error().Err(err).Msg("togo enumeration failed")
		return int(orchestrator.ExitFatal)
	}
	path := cmd.BundlePath
	if path == "" {
		path = fmt.Sprintf("%s.ndjson", time.Now().UTC().Format("20060102T150405Z"))
	}
	n, err := writeBundle(cmd.Project, path, records)
	if err != nil {
		logger.Error().Err(err).Msg("togo bundle write failed")
		return int(orchestrator.ExitFatal)
	}
	logger.Info().Int("records", n).Str("bundle", path).Msg("bundle written")
	return int(orchestrator.ExitSuccess)
}

func runMigrate(ctx context.Context, o *orchestrator.Orchestrator, cmd *cliflags.Command, logger zerolog.Logger) int {
	n, err := migrateProject(ctx, o, cmd.Project, cmd.Spaces)
	if err != nil {
		logger.Error().Err(err).Msg("migrate failed")
		return int(orchestrator.ExitFatal)
	}
	logger.Info().Int("spaces", n).Msg("migration complete")
	return int(orchestrator.ExitSuccess)
}
