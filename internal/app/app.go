package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wassilaaloui/peoplestore/internal/config"
	"github.com/wassilaaloui/peoplestore/internal/docstore"
	"github.com/wassilaaloui/peoplestore/internal/logging"
	"github.com/wassilaaloui/peoplestore/internal/metrics"
	"github.com/wassilaaloui/peoplestore/internal/person"
	"github.com/wassilaaloui/peoplestore/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// Application represents the main application instance that holds configuration and dependencies
type Application struct {
	rawconfig        *config.RawConfig
	logger           logging.Logger
	metricsCollector *metrics.Collector
	tracing          *tracing.Provider
	store            docstore.DocumentStore
	repository       *person.Repository
	mutex            sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
}

// NewApplication creates a new application instance. Nothing is connected
// until Start.
func NewApplication(cfg *config.RawConfig, logger logging.Logger) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	metricsConfig := metrics.DefaultMetricsConfig(cfg)
	metricsCollector := metrics.NewCollector(logger, metricsConfig)

	return &Application{
		rawconfig:        cfg,
		logger:           logger,
		metricsCollector: metricsCollector,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Config returns the application configuration
func (app *Application) Config() *config.RawConfig {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.rawconfig
}

// Logger returns the application logger
func (app *Application) Logger() logging.Logger {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.logger
}

// Context returns the application context
func (app *Application) Context() context.Context {
	return app.ctx
}

// Metrics returns the metrics collector instance
func (app *Application) Metrics() *metrics.Collector {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.metricsCollector
}

// Store returns the document store, or nil before Start
func (app *Application) Store() docstore.DocumentStore {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.store
}

// Repository returns the person repository, or nil before Start
func (app *Application) Repository() *person.Repository {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.repository
}

// Start sets up tracing, opens the configured store and builds the
// repository on it. A store that cannot be reached is not an error here:
// the repository is wired to a store that reports the outage on every call.
func (app *Application) Start() error {
	app.logger.Info("Starting application...")

	if app.IsShuttingDown() {
		return errors.New("application has been shut down")
	}

	if err := app.rawconfig.Validate(); err != nil {
		app.logger.Errorw("Invalid configuration", "error", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.Setup(app.ctx, tracing.Config{
		Endpoint:    app.rawconfig.Tracing.Endpoint,
		ServiceName: app.rawconfig.Tracing.ServiceName,
		Insecure:    app.rawconfig.Tracing.Insecure,
	})
	if err != nil {
		app.logger.Warnw("Tracing disabled", "error", err)
		provider, _ = tracing.Setup(app.ctx, tracing.Config{})
	} else if provider.Enabled() {
		app.logger.Infow("Tracing enabled", "endpoint", app.rawconfig.Tracing.Endpoint)
	}

	store, err := app.openStore(provider)
	if err != nil {
		return err
	}

	if err := store.Ping(app.ctx); err != nil {
		app.logger.Warnw("Document store not reachable", "driver", app.rawconfig.Store.Driver, "error", err)
	} else {
		app.logger.Infow("Document store ready", "driver", app.rawconfig.Store.Driver)
	}

	repository := person.New(store, app.logger,
		person.WithMetrics(app.metricsCollector),
		person.WithCollection(app.rawconfig.Store.Collection),
		person.WithTracer(provider.Tracer("github.com/wassilaaloui/peoplestore/internal/person")),
	)

	app.mutex.Lock()
	app.tracing = provider
	app.store = store
	app.repository = repository
	app.mutex.Unlock()

	app.logger.Info("Application started successfully")
	return nil
}

func (app *Application) openStore(provider *tracing.Provider) (docstore.DocumentStore, error) {
	storeCfg := app.rawconfig.Store
	storeLogger := app.logger.WithField("component", "docstore")

	switch storeCfg.Driver {
	case config.DriverLocal:
		store, err := docstore.NewLocalStore(storeCfg.LocalFile)
		if err != nil {
			storeLogger.Errorw("Failed to open local store", "error", err, "file", storeCfg.LocalFile)
			return nil, err
		}
		storeLogger.Infow("Using local document store", "file", storeCfg.LocalFile)
		return store, nil

	default:
		connectCtx, cancel := app.ctx, context.CancelFunc(func() {})
		if timeout := storeCfg.ConnectTimeout() + storeCfg.ServerSelectionTimeout(); timeout > 0 {
			connectCtx, cancel = context.WithTimeout(app.ctx, timeout)
		}
		defer cancel()

		store, err := docstore.Connect(connectCtx, docstore.ConnectOptions{
			URI:                    storeCfg.URI,
			Database:               storeCfg.Database,
			ConnectTimeout:         storeCfg.ConnectTimeout(),
			ServerSelectionTimeout: storeCfg.ServerSelectionTimeout(),
			Monitor:                provider.CommandMonitor(),
			Listeners:              []docstore.Listener{connectionListener(storeLogger, storeCfg.Database)},
		})
		if err != nil {
			unavailable := docstore.NewUnavailableStore(err)
			storeLogger.Warnw("Continuing without a connected store", "cause", unavailable.Cause())
			return unavailable, nil
		}
		return store, nil
	}
}

func connectionListener(logger logging.Logger, database string) docstore.Listener {
	return func(ev docstore.Event) {
		switch ev.Type {
		case docstore.EventConnected:
			logger.Infow("Connected to MongoDB", "database", database)
		case docstore.EventError:
			logger.Errorw("MongoDB connection error", "error", ev.Err)
		case docstore.EventDisconnected:
			logger.Info("Disconnected from MongoDB")
		}
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("Shutting down application...")

	app.metricsCollector.Dump()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.mutex.Lock()
	store, provider := app.store, app.tracing
	app.store, app.repository = nil, nil
	app.mutex.Unlock()

	if store != nil {
		if err := store.Close(ctx); err != nil {
			app.logger.Errorw("Error closing document store", "error", err)
		}
	}

	if provider != nil {
		if err := provider.Shutdown(ctx); err != nil {
			app.logger.Errorw("Error shutting down tracing", "error", err)
		}
	}

	// Cancel the application context
	app.cancel()

	app.logger.Info("Application shutdown completed")
	return nil
}

// IsShuttingDown returns true if the application is shutting down
func (app *Application) IsShuttingDown() bool {
	select {
	case <-app.ctx.Done():
		return true
	default:
		return false
	}
}
