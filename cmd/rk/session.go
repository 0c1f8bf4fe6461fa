package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/ops"
	"github.com/jacksmith/rk/internal/storage"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*storage.Config, error) {
	cfg, err := storage.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagKind != "" {
		if cfg.Kind, err = cli.MatchPrefix("kind", flagKind, model.Kinds()); err != nil {
			return nil, err
		}
	}
	if flagBackend != "" {
		if cfg.Backend, err = cli.MatchPrefix("backend", flagBackend, storage.Backends()); err != nil {
			return nil, err
		}
	}
	if flagFile != "" {
		cfg.Path = flagFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured backend at its canonical path.
func openStore(ctx context.Context, cfg *storage.Config, schema *model.Schema, logger *slog.Logger) (ops.Store, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	opts := []storage.Option{
		storage.WithLogger(logger),
		storage.WithMaxBackups(cfg.MaxBackups),
	}

	switch strings.ToLower(cfg.Backend) {
	case storage.BackendCSV:
		return storage.NewCSVStore(path, schema, opts...), nil
	case storage.BackendJSON:
		return storage.NewJSONStore(path, schema, opts...), nil
	case storage.BackendYAML:
		return storage.NewYAMLStore(path, schema, opts...), nil
	case storage.BackendSQLite:
		s, err := storage.OpenSQLite(ctx, path, schema, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case storage.BackendBadger:
		s, err := storage.OpenBadger(path, schema, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// session is everything a command needs to work on the configured records.
type session struct {
	cfg      *storage.Config
	repo     *ops.Repository
	logger   *slog.Logger
	closeLog func() error
}

// openSession loads the config, sets up logging and opens the repository.
// The returned session must be closed.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	schema, err := model.LookupSchema(cfg.Kind)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, schema, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	repo, err := ops.Open(ctx, store, schema, ops.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open records", "backend", cfg.Backend, "error", err)
		store.Close()
		closeLog()
		return nil, err
	}

	return &session{cfg: cfg, repo: repo, logger: logger, closeLog: closeLog}, nil
}

// Close releases the store and the log file.
func (s *session) Close() error {
	err := s.repo.Close()
	if cerr := s.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// kind returns the record kind name used in messages.
func (s *session) kind() string {
	return s.repo.Schema().Kind
}

// commandContext returns the command's context, or a background context when
// a run function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
