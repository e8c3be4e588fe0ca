package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/config"
	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/review"
	"github.com/abhisek/lingua/internal/store"
)

// deps is everything a command needs to talk to the scheduling core.
type deps struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	svc   *review.Service
}

func (d *deps) Close() {
	d.store.Close()
	d.log.Sync()
}

// openDeps loads configuration, opens the store and catalog, and builds
// the review service. Invalid configuration fails here, before anything
// is served.
func openDeps(cmd *cobra.Command) (*deps, error) {
	fs := afero.NewOsFs()

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(fs, cfgPath)
	if err != nil {
		return nil, err
	}
	logMode, _ := cmd.Flags().GetString("log-mode")
	catalogFile, _ := cmd.Flags().GetString("catalog")
	if err := cfg.ApplyOverrides(config.Overrides{LogMode: logMode, CatalogFile: catalogFile}); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	dsn, err := resolveDSN(cmd, cfg.DB.Dialect, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(store.Options{Dialect: cfg.DB.Dialect, DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	catalog, err := loadCatalog(fs, cfg.CatalogFile, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	svc, err := review.New(review.Deps{
		Records: st.RecordRepo(),
		Events:  st.EventRepo(),
		Catalog: catalog,
		Policy:  cfg.Policy,
		Logger:  log,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create review service: %w", err)
	}

	return &deps{cfg: cfg, log: log, store: st, svc: svc}, nil
}

func loadCatalog(fs afero.Fs, path string, log *logger.Logger) (*item.MemoryCatalog, error) {
	if path == "" {
		log.Warn("no item catalog configured; reviews will be rejected as unknown items")
		return item.NewMemoryCatalog(nil)
	}
	catalog, err := item.LoadCatalog(fs, path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Debug("catalog loaded", "path", path, "items", catalog.Len())
	return catalog, nil
}
