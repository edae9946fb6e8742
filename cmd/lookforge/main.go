package main

import (
	"context"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/lookforge/lookforge-go/internal/cli"
	"github.com/lookforge/lookforge-go/internal/config"
	"github.com/lookforge/lookforge-go/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	logger := logging.NewZerologLogger(zl)

	ctx := context.Background()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
