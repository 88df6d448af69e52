package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/app"
	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/config"
	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/session"
	"github.com/abhisek/quiznote/internal/store"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

// deps holds everything a command needs, opened from the resolved
// configuration.
type deps struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    screen.Services

	closers []io.Closer
}

// openDeps opens the log, the store and the notebook, and wires the
// session machine over them.
func openDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := cfg.OpenLogger()
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, logger: logger, closers: []io.Closer{logFile}}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.closers = append(d.closers, st)

	notebook := ledger.New(st.BlobRepo(), ledger.WithLogger(logger))
	if err := notebook.Load(ctx); err != nil {
		d.Close()
		return nil, err
	}

	settingsStore := ledger.NewSettingsStore(st.BlobRepo())
	settings, err := settingsStore.Load(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}
	theme.Apply(settings.DarkMode)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	loader := bank.NewLoader(bank.NewFetcher(cfg.Bank, cfg.FetchTimeout), logger)
	d.svc = screen.Services{
		Machine: session.NewMachine(session.Config{
			Bank:   loader,
			Ledger: notebook,
			Events: st.SessionEventRepo(),
			Logger: logger,
			Rand:   rand.New(rand.NewSource(seed)),
		}),
		Ledger:   notebook,
		Bank:     loader,
		Settings: settingsStore,
		History:  st.SessionEventRepo(),
		Logger:   logger,
	}

	logger.Debug("deps opened", "db", cfg.DBPath, "bank", cfg.Bank, "command", cmd.Name())
	return d, nil
}

// Close releases resources in reverse opening order.
func (r *deps) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runApp opens the deps and launches the TUI.
func runApp(cmd *cobra.Command, opts app.Options) error {
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()
	return app.Run(d.svc, opts)
}
