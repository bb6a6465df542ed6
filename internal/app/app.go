package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/config"
	"github.com/slotswap/swap_backend/internal/controller"
	"github.com/slotswap/swap_backend/internal/repository"
	"github.com/slotswap/swap_backend/internal/service"
)

// App собирает все зависимости приложения
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool
	server *http.Server
}

// New создаёт приложение: подключение к БД, миграции, сервисы, роутер
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	swapRepo := repository.NewSwapRequestRepository(pool)
	txManager := repository.NewTxManager(pool, userRepo, slotRepo, swapRepo)

	stores := service.Stores{
		Users: userRepo,
		Slots: slotRepo,
		Swaps: swapRepo,
	}

	// Сервисы
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	slotService := service.NewSlotService(slotRepo, userRepo, logger)
	swapService := service.NewSwapService(txManager, stores, logger)

	router := controller.NewRouter(controller.RouterConfig{
		Auth:   authService,
		Slots:  slotService,
		Swaps:  swapService,
		Logger: logger,
	})

	return &App{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста
func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.Logger.Info("Starting HTTP server", zap.String("addr", a.Config.HTTPAddr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// Close освобождает ресурсы приложения
func (a *App) Close() {
	a.Pool.Close()
}
