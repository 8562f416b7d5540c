package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"taskAPI/internal/config"
	"taskAPI/internal/logger"
	"taskAPI/internal/repository/task/postgres"
	"time"
)

func main() {
	configPath := flag.String("config", "config.yml", "путь к config.yml")
	down := flag.Bool("down", false, "откатить все миграции")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "загрузка конфигурации: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "не задан database.url / DATABASE_URL")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		fmt.Fprintf(os.Stderr, "инициализация логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	storage, err := postgres.New(ctx, cfg.Database.URL, postgres.WithMaxConns(1), postgres.WithMinConns(0))
	if err != nil {
		logger.Error("Migrate: Нет подключения к базе", err)
		os.Exit(1)
	}
	defer storage.Close()

	if *down {
		err = storage.Down(ctx)
	} else {
		err = storage.Migrate(ctx)
	}
	if err != nil {
		logger.Error("Migrate: Ошибка", err)
		os.Exit(1)
	}
}
