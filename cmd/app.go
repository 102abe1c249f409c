package cmd

import (
	"fmt"

	"dailies/core/config"
	"dailies/core/database"
	"dailies/core/index"
	"dailies/core/logger"
	"dailies/core/pipeline"
	"dailies/core/runlog"
	"dailies/core/storage"
	"dailies/core/transcode"
	"dailies/feature/backup"
	"dailies/feature/integrity"
	"dailies/feature/integrity/checks"
	"dailies/feature/ingest"
	"dailies/feature/packaging"
	"dailies/feature/proxy"

	"go.uber.org/zap"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *runlog.Store
	runner *pipeline.Runner
	scan   pipeline.Scan
}

// newApp loads the configuration and wires the runner. The run log is
// optional: a failed connection is logged and the run continues without it.
func newApp() (*app, error) {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 3. Run log (Optional)
	var store *runlog.Store
	if cfg.Database.Enabled {
		store, err = openRunLog(cfg.Database)
		if err != nil {
			l.Warn("Run log unavailable, continuing without it", zap.Error(err))
		}
	}

	// 4. Indexer and runner
	resolver, err := cfg.Index.Resolver()
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(index.NewIndexer(resolver, l), store, l)

	return &app{
		cfg:    cfg,
		logger: l,
		store:  store,
		runner: runner,
		scan:   pipeline.NewScan(cfg.Index, cfg.Retry, l),
	}, nil
}

func openRunLog(cfg database.Config) (*runlog.Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	store, err := runlog.NewStore(db)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) ingest() (*ingest.Service, error) {
	if err := a.cfg.Pools.Require("card", "media"); err != nil {
		return nil, err
	}
	return ingest.NewService(a.runner, a.scan, ingest.Settings{
		Card:     a.cfg.Pools.CardRoot,
		Pool:     a.cfg.Pools.MediaRoot,
		Config:   a.cfg.Ingest,
		Executor: a.cfg.Executor,
		Policy:   a.cfg.Policy,
		Retry:    a.cfg.Retry,
	}), nil
}

func (a *app) proxy() (*proxy.Service, error) {
	if err := a.cfg.Pools.Require("media", "proxy"); err != nil {
		return nil, err
	}
	return proxy.NewService(a.runner, a.scan, transcode.New(a.cfg.Transcode, a.logger), proxy.Settings{
		Pool:     a.cfg.Pools.MediaRoot,
		Proxy:    a.cfg.Pools.ProxyRoot,
		Config:   a.cfg.Proxy,
		Executor: a.cfg.Executor,
		Policy:   a.cfg.Policy,
		Retry:    a.cfg.Retry,
	}), nil
}

func (a *app) backup() (*backup.Service, error) {
	var client storage.Client
	if a.cfg.Storage.Enabled {
		if err := a.cfg.Pools.Require("media"); err != nil {
			return nil, err
		}
		c, err := storage.NewClient(a.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		client = c
	} else if err := a.cfg.Pools.Require("media", "backup"); err != nil {
		return nil, err
	}
	return backup.NewService(a.runner, a.scan, client, backup.Settings{
		Pool:     a.cfg.Pools.MediaRoot,
		Proxy:    a.cfg.Pools.ProxyRoot,
		Backup:   a.cfg.Pools.BackupRoot,
		Storage:  a.cfg.Storage,
		Config:   a.cfg.Backup,
		Executor: a.cfg.Executor,
		Policy:   a.cfg.Policy,
		Retry:    a.cfg.Retry,
	}), nil
}

func (a *app) packaging() (*packaging.Service, error) {
	proxies, err := a.proxy()
	if err != nil {
		return nil, err
	}
	return packaging.NewService(a.runner, proxies, packaging.Settings{
		Proxy:    a.cfg.Pools.ProxyRoot,
		Config:   a.cfg.Packaging,
		Executor: a.cfg.Executor,
		Retry:    a.cfg.Retry,
	}), nil
}

func (a *app) integrity() (*integrity.Service, error) {
	var client storage.Client
	if a.cfg.Storage.Enabled {
		c, err := storage.NewClient(a.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		client = c
	}

	probeMissing := checks.StatusDisabled
	if a.cfg.Index.Probe {
		probeMissing = checks.StatusWarning
	}
	return integrity.NewService(client, a.store, integrity.Settings{
		Roots: map[string]string{
			"card":   a.cfg.Pools.CardRoot,
			"media":  a.cfg.Pools.MediaRoot,
			"proxy":  a.cfg.Pools.ProxyRoot,
			"backup": a.cfg.Pools.BackupRoot,
		},
		StagingMaxAge: a.cfg.Executor.StagingMaxAge,
		Bucket:        a.cfg.Storage.Bucket,
		Prefix:        a.cfg.Storage.Prefix,
		Tools: []checks.Tool{
			{Binary: a.cfg.Transcode.Binary, Missing: checks.StatusWarning},
			{Binary: a.cfg.Index.FFProbe, Missing: probeMissing},
		},
	}, a.logger), nil
}

// withApp wraps a command body with app setup and teardown.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
