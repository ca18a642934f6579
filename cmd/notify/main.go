package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hubshift/marketplace/backend/internal/calendar"
	"github.com/hubshift/marketplace/backend/internal/config"
	"github.com/hubshift/marketplace/backend/internal/notify"
	"github.com/hubshift/marketplace/backend/internal/repository"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return
	}

	loc, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		logger.Error("unknown time zone", "zone", cfg.Calendar.TimeZone, "error", err)
		return
	}

	/**********************************************
	 * database, for recipient lookups
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		logger.Error("failed to create mail client", slog.String("error", err.Error()))
		return
	}

	// fail fast on bad SMTP settings
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to mail server", slog.String("error", err.Error()))
		return
	}
	_ = client.Close()

	composer, err := notify.NewComposer(cfg.Email.SMTP.Username, cfg.Email.AppURL, loc)
	if err != nil {
		logger.Error("failed to parse email templates", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * calendar sync, optional
	 **********************************************/
	var calendarSync notify.CalendarSync
	if cfg.Calendar.CredentialsFile != "" {
		calSync, err := calendar.NewSync(context.Background(), cfg.Calendar.CalendarID, cfg.Calendar.TimeZone,
			option.WithCredentialsFile(cfg.Calendar.CredentialsFile),
			option.WithScopes(gcal.CalendarEventsScope),
		)
		if err != nil {
			logger.Error("failed to create calendar client", slog.String("error", err.Error()))
			return
		}
		calendarSync = calSync
	} else {
		logger.Info("no calendar credentials configured, calendar sync disabled")
	}

	worker := notify.NewWorker(repo, composer, client, calendarSync, logger)

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("failed to declare queue", slog.String("error", err.Error()))
		return
	}

	if err := ch.Qos(10, 0, false); err != nil {
		logger.Error("failed to set prefetch", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // let the broker name the consumer
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Consume(ctx, msgs)
	}()

	logger.Info("waiting for shift events (CTRL+C to quit)", "queue", q.Name)
	<-sigChan

	logger.Info("shutting down notification worker")
	cancel()
	wg.Wait()
	logger.Info("notification worker stopped")
}
