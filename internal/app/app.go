package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchsync/server/internal/controller"
	"github.com/watchsync/server/internal/hub"
	"github.com/watchsync/server/internal/repository/room/redis"
	"github.com/watchsync/server/internal/repository/session/inmemory"
	"github.com/watchsync/server/internal/service/room"
	"github.com/watchsync/server/pkg/ctxlogger"
	"github.com/watchsync/server/pkg/redisclient"
)

type AppConfig struct {
	Secret            string `json:"-"`
	Host              string `json:"host"`
	Port              int    `json:"port"`
	LogLevel          string `json:"log_level"`
	MaxOccupancyLimit int    `json:"max_occupancy_limit"`
	MaxPageSize       int    `json:"max_page_size"`
	RedisHost         string `json:"redis_host"`
	RedisPort         int    `json:"redis_port"`
	RedisPassword     string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must not be empty")
	}
	if cfg.MaxOccupancyLimit < 1 {
		return fmt.Errorf("max occupancy limit must be greater than 0")
	}
	if cfg.MaxPageSize < 1 {
		return fmt.Errorf("max page size must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := redis.NewRepo(rc)
	sessionRegistry := inmemory.NewRegistry()
	roomService := room.NewService(roomRepo, logger, &room.Config{
		MaxOccupancyLimit: cfg.MaxOccupancyLimit,
		MaxPageSize:       cfg.MaxPageSize,
	})
	roomHub := hub.NewHub(roomService, sessionRegistry, logger)
	ctrl := controller.NewController(roomService, roomHub, cfg.Secret, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetRouter()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
