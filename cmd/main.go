package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/storage/file"
	"github.com/njimyasmine/user-management-api/auth/storage/mem"
	"github.com/njimyasmine/user-management-api/auth/storage/postgres"
	"github.com/njimyasmine/user-management-api/auth/storage/sqlite"
	"github.com/njimyasmine/user-management-api/bot/tgbot"
	"github.com/njimyasmine/user-management-api/internal/config"
	"github.com/njimyasmine/user-management-api/internal/logger"
	"github.com/njimyasmine/user-management-api/internal/web"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a toml config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	l := logger.New(cfg.Server.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg.Storage, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			l.WithError(err).Error("storage close")
		}
	}()

	var opts []service.Option
	if cfg.TgBot.Enabled {
		bot, err := tgbot.New(cfg.TgBot, l)
		if err != nil {
			return err
		}
		go bot.Run(ctx)
		defer func() {
			stop()
			<-bot.Done()
		}()
		opts = append(opts, service.WithNotifier(bot))
	}

	accounts, err := service.New(ctx, cfg.Auth, st, l, opts...)
	if err != nil {
		return err
	}

	server := web.New(accounts, cfg.Server, l)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return server.Shutdown()
}

func openStorage(ctx context.Context, cfg config.Storage, l *logrus.Logger) (storage.UserStorage, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return file.New(l, cfg.File)
	case config.DriverMemory:
		return mem.New(), nil
	case config.DriverSqlite:
		return sqlite.New(l, cfg.SqliteFile)
	case config.DriverPostgres:
		pg := cfg.Postgres
		return postgres.New(ctx, l, postgres.NewURLConnectionString("postgres", pg.HostPort(), pg.DBName, pg.Username, pg.Password))
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}
