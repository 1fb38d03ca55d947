package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moveefy/server/internal/controller"
	connInmemory "github.com/moveefy/server/internal/repository/connection/inmemory"
	presenceRedis "github.com/moveefy/server/internal/repository/presence/redis"
	roomInmemory "github.com/moveefy/server/internal/repository/room/inmemory"
	"github.com/moveefy/server/internal/service/room"
	"github.com/moveefy/server/pkg/ctxlogger"
	"github.com/moveefy/server/pkg/redisclient"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	SendBuffer    int           `json:"send_buffer"`
	ReadLimit     int64         `json:"read_limit"`
	PongWait      time.Duration `json:"pong_wait"`
	RedisHost     string        `json:"redis_host"`
	RedisPort     int           `json:"redis_port"`
	RedisPassword string        `json:"-"`
	PresenceTTL   time.Duration `json:"presence_ttl"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be greater than 0")
	}
	if cfg.ReadLimit < 1 {
		return fmt.Errorf("read limit must be greater than 0")
	}
	if cfg.PongWait <= 0 {
		return fmt.Errorf("pong wait must be greater than 0")
	}
	if cfg.RedisHost != "" && cfg.PresenceTTL <= 0 {
		return fmt.Errorf("presence ttl must be greater than 0")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

func newLogger(cfg *AppConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel)))

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	connectionRepo := connInmemory.NewRepo(logger)
	roomRepo := roomInmemory.NewRepo(connectionRepo, logger)

	var opts []room.Option
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		opts = append(opts, room.WithPresence(presenceRedis.NewRepo(rc, cfg.PresenceTTL, logger), 0))
		logger.InfoContext(ctx, "presence mirror enabled", "redis_host", cfg.RedisHost)
	}

	roomService := room.NewService(roomRepo, connectionRepo, logger, opts...)
	controller := controller.NewController(roomService, logger, &controller.Config{
		SendBuffer: cfg.SendBuffer,
		ReadLimit:  cfg.ReadLimit,
		PongWait:   cfg.PongWait,
	})
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.InfoContext(ctx, "shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		// hijacked websocket connections are not tracked by the server
		roomService.Shutdown(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	})

	return g.Wait()
}
