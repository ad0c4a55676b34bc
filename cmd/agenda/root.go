package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/conference-agenda/internal/application"
	"github.com/example/conference-agenda/internal/cache"
	"github.com/example/conference-agenda/internal/config"
	"github.com/example/conference-agenda/internal/logging"
	"github.com/example/conference-agenda/internal/persistence/sqlstore"
	"github.com/example/conference-agenda/internal/relevance"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "agenda",
		Short:         "Personalised conference agenda builder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (defaults to $AGENDA_CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newExportCSVCommand(),
		newPlanCommand(opts),
		newTokenCommand(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

// app holds the collaborators shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlstore.Store
	cache   application.ResultCache
	scorer  application.RelevanceProvider
	closers []io.Closer
}

func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	if err := a.openStore(ctx); err != nil {
		return nil, a.closeWith(err)
	}
	if err := a.openCache(ctx); err != nil {
		return nil, a.closeWith(err)
	}
	if err := a.openRelevance(); err != nil {
		return nil, a.closeWith(err)
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	dialect, err := sqlstore.ParseDialect(a.cfg.Database.Driver)
	if err != nil {
		return err
	}
	store, err := sqlstore.Open(ctx, dialect, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)

	if a.cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return nil
}

func (a *app) openCache(ctx context.Context) error {
	switch a.cfg.Cache.Backend {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:      a.cfg.Redis.Addr,
			Password:  a.cfg.Redis.Password,
			DB:        a.cfg.Redis.DB,
			KeyPrefix: a.cfg.Redis.KeyPrefix,
			TTL:       a.cfg.Cache.TTL,
		})
		if err != nil {
			return err
		}
		a.cache = redisCache
		a.closers = append(a.closers, redisCache)
	case "memory":
		a.cache = application.NewLRUCache(a.cfg.Cache.Size, a.cfg.Cache.TTL)
	}
	return nil
}

func (a *app) openRelevance() error {
	if !a.cfg.Qdrant.Enabled {
		return nil
	}
	provider, err := relevance.NewQdrantProvider(relevance.QdrantConfig{
		URL:               a.cfg.Qdrant.URL,
		APIKey:            a.cfg.Qdrant.APIKey,
		Collection:        a.cfg.Qdrant.Collection,
		RequestsPerSecond: a.cfg.Qdrant.RequestsPerSecond,
		Burst:             a.cfg.Qdrant.Burst,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, provider)
	a.scorer = relevance.NewBreaker(provider, relevance.BreakerSettings{
		Name:                "qdrant",
		Timeout:             a.cfg.Qdrant.BreakerTimeout,
		ConsecutiveFailures: a.cfg.Qdrant.BreakerFailures,
	}, a.logger)
	return nil
}

type services struct {
	catalog   *application.CatalogService
	favorites *application.FavoriteService
	profiles  *application.ProfileService
	agenda    *application.AgendaService
}

func (a *app) services() (*services, error) {
	agendaCfg, err := a.cfg.ApplicationAgenda()
	if err != nil {
		return nil, err
	}
	return &services{
		catalog:   application.NewCatalogService(a.store, a.cache, a.cfg.Cache.TTL, a.logger),
		favorites: application.NewFavoriteService(a.store, a.store, a.cache, nil, a.logger),
		profiles:  application.NewProfileService(a.store, a.cache, nil, a.logger),
		agenda: application.NewAgendaService(application.AgendaServiceDeps{
			Catalog:   a.store,
			Favorites: a.store,
			Profiles:  a.store,
			Relevance: a.scorer,
			Cache:     a.cache,
			Logger:    a.logger,
		}, agendaCfg),
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) closeWith(err error) error {
	if cerr := a.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}
