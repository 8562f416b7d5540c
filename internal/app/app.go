package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"taskAPI/internal/config"
	"taskAPI/internal/handlers"
	"taskAPI/internal/logger"
	"taskAPI/internal/middleware"
	"taskAPI/internal/repository/task/inmemory"
	"taskAPI/internal/repository/task/postgres"
	"taskAPI/internal/repository/task/sqlite"
	"taskAPI/internal/service"
	"taskAPI/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    handlers.Service
	limiter    middleware.Limiter
	worker     *worker.HealthWorker
	shutdowns  []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	repository, err := a.initRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repository = repository

	a.limiter = a.initLimiter(ctx)
	a.service = service.NewTaskService(a.repository)
	a.worker = worker.NewHealthWorker(a.repository, &a.config.Health.Interval)
	a.router = a.routes()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "task-api"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("rate_limiter", a.limiter.Name()),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		db := a.config.Database
		storage, err := postgres.New(ctx, db.URL,
			postgres.WithMaxConns(int32(db.MaxConnections)),
			postgres.WithMinConns(int32(db.MinConnections)),
			postgres.WithMaxConnIdleTime(db.IdleTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		if db.AutoMigrate {
			if err := storage.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("миграции postgres: %w", err)
			}
		}
		return storage, nil

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		return storage, nil

	case config.RepositoryInMemory:
		return inmemory.NewTaskStorage(), nil

	default:
		return nil, fmt.Errorf("неизвестный тип репозитория %q", a.config.Repository.Type)
	}
}

// initLimiter: Redis, если он настроен и отвечает, иначе лимит в памяти процесса
func (a *App) initLimiter(ctx context.Context) middleware.Limiter {
	rpm := a.config.RateLimit.RequestsPerMinute
	rc := a.config.Redis
	if rc.Addr == "" {
		return middleware.NewMemoryLimiter(rpm)
	}

	client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("App: Redis недоступен, лимитер работает в памяти",
			zap.String("addr", rc.Addr),
			zap.Error(err))
		_ = client.Close()
		return middleware.NewMemoryLimiter(rpm)
	}

	a.shutdowns = append(a.shutdowns, func() {
		if err := client.Close(); err != nil {
			logger.Warn("App: Ошибка закрытия Redis", zap.Error(err))
		}
	})
	return middleware.NewRedisLimiter(client, rpm)
}

// Handler - полный HTTP-стек без сетевого слушателя
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gCtx)
		return nil
	})

	if memory, ok := a.limiter.(*middleware.MemoryLimiter); ok {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if removed := memory.Cleanup(); removed > 0 {
						logger.Debug("App: Очищены окна лимитера", zap.Int("removed", removed))
					}
				case <-gCtx.Done():
					return nil
				}
			}
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("App: Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	return err
}

func (a *App) Close() {
	for _, shutdown := range slices.Backward(a.shutdowns) {
		shutdown()
	}
	a.shutdowns = nil
}
