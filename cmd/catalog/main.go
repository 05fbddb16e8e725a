package main

import (
	"context"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/emzola/catalog/config"
	"github.com/emzola/catalog/events"
	"github.com/emzola/catalog/handler"
	"github.com/emzola/catalog/internal/jsonlog"
	"github.com/emzola/catalog/internal/mailer"
	"github.com/emzola/catalog/repository"
	"github.com/emzola/catalog/repository/database"
	"github.com/emzola/catalog/service"
	"github.com/emzola/catalog/storage"
)

// publisher is the events backend as seen by main.
type publisher interface {
	service.Publisher
	Close() error
}

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	events  publisher
	handler *handler.Handler
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)
	if err := run(configPath, logger); err != nil {
		logger.PrintFatal(err, nil)
		os.Exit(1)
	}
}

// run wires the application layers and blocks until the server stops.
func run(configPath string, logger *jsonlog.Logger) error {
	// Initialize configuration
	cfg, err := config.Decode(configPath)
	if err != nil {
		return err
	}
	level, err := jsonlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger = jsonlog.New(os.Stdout, level)

	// Initialize database connection
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", map[string]string{
		"driver": cfg.Database.Driver,
	})
	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repository.CreateSchema(ctx, db, cfg.Database.Driver)
		cancel()
		if err != nil {
			return err
		}
		logger.PrintInfo("database schema ready", nil)
	}

	// Thumbnail storage
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	thumbnails, err := storage.New(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}

	// Catalog changes go to the broker and to the librarian's inbox when
	// either is configured
	var fanout events.Fanout
	if cfg.AMQP.URL != "" {
		p, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return err
		}
		fanout = append(fanout, p)
		logger.PrintInfo("event publisher connected", map[string]string{
			"exchange": cfg.AMQP.Exchange,
		})
	}
	if cfg.Notify.Recipient != "" {
		m := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
		fanout = append(fanout, mailer.NewNotifier(m, cfg.Notify.Recipient))
	}
	var pub publisher = events.Noop{}
	if len(fanout) > 0 {
		pub = fanout
	}

	// Application layers
	var wg sync.WaitGroup
	repo := repository.New(db)
	service := service.New(&wg, logger, repo, thumbnails, pub)
	handler, err := handler.New(cfg, logger, service)
	if err != nil {
		return err
	}
	defer handler.Close()

	// Instantiate application
	app := &app{
		config:  cfg,
		events:  pub,
		handler: handler,
	}

	// Start HTTP server
	return app.serve(&wg, logger)
}
