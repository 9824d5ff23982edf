package main

import (
	"context"
	"errors"
	"fmt"

	"pinvault/config"
	"pinvault/internal/database"
	"pinvault/internal/intent"
	"pinvault/internal/router"
	"pinvault/internal/service"
	"pinvault/internal/telemetry"
	"pinvault/pkg/cloudinary"
	"pinvault/pkg/kafka"
	"pinvault/pkg/mailer"
	"pinvault/pkg/payment"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the process-wide clients built from config. close releases them in reverse order.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	services *router.Services
	closers  []func(context.Context) error
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// loadBase reads config and opens the logger and database. Commands that only touch the
// ledger stop here.
func loadBase() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := telemetry.NewLogger(cfg.Server.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, db: db}
	a.onClose(func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return a, nil
}

// bootstrap builds the full service graph.
func bootstrap(ctx context.Context) (*app, error) {
	a, err := loadBase()
	if err != nil {
		return nil, err
	}
	cfg, logger := a.cfg, a.logger
	fail := func(err error) (*app, error) {
		_ = a.close(context.Background())
		return nil, err
	}

	shutdown, err := telemetry.Init(ctx, &cfg.Telemetry, logger)
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	a.onClose(shutdown)

	rdb, err := intent.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fail(fmt.Errorf("redis: %w", err))
	}
	a.onClose(func(context.Context) error { return rdb.Close() })

	var gateway payment.Gateway
	if cfg.Gateway.SecretKey != "" {
		gateway = payment.NewPaystackClient(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey, cfg.Gateway.Timeout, logger)
	} else {
		logger.Warn("no gateway secret configured; using stub gateway")
		gateway = payment.NewStubGateway()
	}

	var m mailer.Mailer
	if cfg.Mail.APIKey != "" {
		m = mailer.NewHTTPMailer(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.Timeout, logger)
	} else {
		logger.Warn("no mail api key configured; emails are logged only")
		m = mailer.NewLogMailer(logger)
	}

	escalators := service.Escalators{service.NewLogEscalator(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			return fail(fmt.Errorf("kafka: %w", err))
		}
		a.onClose(func(context.Context) error { return producer.Close() })
		escalators = append(escalators, service.NewKafkaEscalator(producer, cfg.Kafka.EscalationTopic))
	}
	if cfg.Mail.OperatorAddr != "" {
		escalators = append(escalators, service.NewMailEscalator(m, cfg.Mail.OperatorAddr))
	}

	var uploader cloudinary.Uploader
	if cfg.Cloudinary.CloudName != "" {
		uploader, err = cloudinary.NewUploader(cloudinary.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			Folder:    cfg.Cloudinary.Folder,
		})
		if err != nil {
			return fail(fmt.Errorf("cloudinary: %w", err))
		}
	}

	a.services = router.NewServices(cfg, router.Deps{
		DB:        a.db,
		Intents:   intent.NewRedisCache(rdb),
		Gateway:   gateway,
		Mailer:    m,
		Escalator: escalators,
		Uploader:  uploader,
		Logger:    logger,
	})
	return a, nil
}
