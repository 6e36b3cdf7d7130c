package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theduckgroup/Apps-sub000/internal/cache"
	"github.com/theduckgroup/Apps-sub000/internal/config"
	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/events"
	"github.com/theduckgroup/Apps-sub000/internal/handlers"
	"github.com/theduckgroup/Apps-sub000/internal/processor"
	"github.com/theduckgroup/Apps-sub000/internal/repositories"
	"github.com/theduckgroup/Apps-sub000/internal/usecases"
	"github.com/theduckgroup/Apps-sub000/pkg/logger"
)

const (
	// Сколько раз пробуем поднять хранилище при старте и с какой паузой.
	healthCheckRetries    = 5
	healthCheckRetryDelay = 2 * time.Second

	healthCheckInterval = 30 * time.Second
)

// store is what both storage drivers provide.
type store interface {
	domain.CatalogRepository
	domain.ReportRepository
	domain.HealthChecker
	io.Closer
}

// App держит все зависимости сервиса и управляет их жизненным циклом.
type App struct {
	config    *config.Config
	logger    *zap.Logger
	store     store
	cache     *cache.ShardedCache[*domain.Catalog]
	processor *processor.OrderedProcessor
	hub       *events.Hub
	bus       *events.RedisBus
	catalogs  *usecases.CatalogUsecase
	reports   *usecases.ReportUsecase
	server    *http.Server

	initOnce sync.Once
	initErr  error

	// ctx отменяется в Shutdown и останавливает фоновые задачи.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
	shutdownErr  error
}

func NewApp() *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize собирает приложение один раз: всё или ничего.
func (a *App) Initialize() error {
	a.initOnce.Do(func() {
		a.initErr = a.doInitialize()
	})
	return a.initErr
}

// doInitialize: конфиг, логгер, хранилище, кэш, процессор, события,
// бизнес-логика, HTTP. Порядок важен.
func (a *App) doInitialize() error {
	configPath := os.Getenv("APP_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Нет файла: работаем на значениях по умолчанию и ENV.
	fileErr := config.Load(configPath)
	if fileErr != nil {
		if err := config.Load(""); err != nil {
			return fmt.Errorf("критическая ошибка конфигурации: %w", err)
		}
	}
	a.config = config.Get()

	if err := logger.Init(a.config.Log.Level, a.config.Log.Development); err != nil {
		return fmt.Errorf("не удалось инициализировать логгер: %w", err)
	}
	a.logger = logger.Get()
	if fileErr != nil {
		a.logger.Warn("config file not loaded, using defaults and environment",
			zap.String("path", configPath),
			zap.Error(fileErr),
		)
	}
	a.logger.Info("configuration loaded",
		zap.String("addr", a.config.Server.Addr()),
		zap.String("storage", a.config.Storage.Driver),
		zap.String("events", a.config.Events.Driver),
	)

	if err := a.initializeStore(); err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	a.cache = cache.New[*domain.Catalog](cache.Options{
		Shards:          a.config.Cache.Shards,
		TTL:             a.config.Cache.TTL,
		CleanupInterval: a.config.Cache.CleanupInterval,
	})
	a.cache.StartCleanupWorker()

	a.processor = processor.NewReportProcessor(
		a.config.Concurrency.ProcessorWorkers,
		a.config.Concurrency.ProcessorQueue,
		a.logger,
	)
	a.processor.Start()

	publisher, err := a.initializeEvents()
	if err != nil {
		return fmt.Errorf("ошибка инициализации событий: %w", err)
	}

	a.catalogs = usecases.NewCatalogUsecase(
		a.store,
		a.cache,
		publisher,
		a.logger,
		a.config.Concurrency.MaxConcurrentOps,
	)
	a.reports = usecases.NewReportUsecase(a.catalogs, a.store, a.processor, publisher, a.logger)
	a.catalogs.WatchInvalidations(a.ctx, a.hub)

	a.initializeServer()

	a.logger.Info("application initialized")
	return nil
}

// initializeStore открывает выбранное хранилище, проверяет связь и
// создаёт коллекции, с повторными попытками.
func (a *App) initializeStore() error {
	var err error
	for attempt := 0; attempt < healthCheckRetries; attempt++ {
		if attempt > 0 {
			a.logger.Info("retrying storage initialization",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", healthCheckRetryDelay),
			)
			time.Sleep(healthCheckRetryDelay)
		}

		var s store
		s, err = a.openStore()
		if err != nil {
			a.logger.Warn("failed to open storage", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = s.CheckConnection(ctx)
		if err == nil {
			err = s.EnsureCollections(ctx)
		}
		cancel()
		if err != nil {
			_ = s.Close()
			a.logger.Warn("storage not ready", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		a.store = s
		a.logger.Info("storage initialized",
			zap.String("driver", a.config.Storage.Driver),
			zap.Int("attempts", attempt+1),
		)
		return nil
	}
	return fmt.Errorf("storage unavailable after %d attempts: %w", healthCheckRetries, err)
}

func (a *App) openStore() (store, error) {
	cfg := a.config.Storage
	switch cfg.Driver {
	case config.StorageReindexer:
		return repositories.NewReindexerRepository(cfg.Reindexer.DSN, cfg.Reindexer.MaxConnections, a.logger)
	case config.StorageSQLite:
		return repositories.NewSQLiteRepository(cfg.SQLite.Path, a.logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// initializeEvents: локальный хаб есть всегда; с Redis события идут через
// шину и возвращаются в хаб пересылкой, так их видят все экземпляры.
func (a *App) initializeEvents() (domain.Publisher, error) {
	a.hub = events.NewHub(a.config.Events.Buffer, a.logger)
	if a.config.Events.Driver != config.EventsRedis {
		return a.hub, nil
	}

	bus, err := events.NewRedisBus(a.ctx, a.config.Events.Redis.Addr, a.config.Events.Redis.Channel, a.logger)
	if err != nil {
		return nil, err
	}
	if err := bus.StartForwarder(a.ctx, a.hub); err != nil {
		_ = bus.Close()
		return nil, err
	}
	a.bus = bus
	return bus, nil
}

func (a *App) initializeServer() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checks := map[string]handlers.Pinger{"storage": a.store}
	if a.bus != nil {
		checks["events"] = a.bus
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Catalogs:       a.catalogs,
		Reports:        a.reports,
		Hub:            a.hub,
		Health:         checks,
		Registry:       registry,
		Logger:         a.logger,
		RequestTimeout: a.config.Server.RequestTimeout,
		RateLimit:      a.config.Server.RateLimit,
	})

	// WriteTimeout не задан: /events держит соединение открытым, а
	// остальные маршруты ограничены RequestTimeout.
	a.server = &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// periodicHealthCheck раз в 30 секунд пишет в лог состояние хранилища.
func (a *App) periodicHealthCheck() {
	defer a.wg.Done()

	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.store.CheckConnection(ctx); err != nil {
				a.logger.Warn("background health check failed", zap.Error(err))
			} else {
				a.logger.Debug("background health check ok",
					zap.Int("cached_catalogs", a.cache.Len()),
					zap.Uint64("dropped_events", a.hub.Dropped()),
				)
			}
			cancel()
		}
	}
}

// Run обслуживает HTTP, пока ctx не отменён, затем останавливает
// приложение.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	a.wg.Add(1)
	go a.periodicHealthCheck()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown()
	})
	return g.Wait()
}

// Shutdown останавливает приложение в обратном порядке сборки. Повторный
// вызов возвращает результат первого.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down")
		timeout := a.config.Server.ShutdownTimeout

		// Фоновые задачи, пересылка из Redis и SSE-потоки.
		a.cancel()
		if a.hub != nil {
			a.hub.Close()
		}

		if a.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := a.server.Shutdown(ctx); err != nil {
				a.logger.Error("server shutdown failed", zap.Error(err))
				a.shutdownErr = err
			}
			cancel()
		}

		if a.catalogs != nil {
			a.catalogs.Shutdown()
		}
		if a.processor != nil {
			a.processor.Stop()
		}
		if a.cache != nil {
			a.cache.StopCleanupWorker()
		}
		if a.bus != nil {
			if err := a.bus.Close(); err != nil {
				a.logger.Warn("redis close failed", zap.Error(err))
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				a.logger.Error("storage close failed", zap.Error(err))
				if a.shutdownErr == nil {
					a.shutdownErr = err
				}
			}
		}

		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			a.logger.Warn("background jobs did not stop in time")
		}

		a.logger.Info("application stopped")
		_ = a.logger.Sync()
	})
	return a.shutdownErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewApp().Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
