package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/hubshift/marketplace/backend/internal/config"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
	"github.com/hubshift/marketplace/backend/internal/repository"
	"github.com/hubshift/marketplace/backend/internal/seed"
	"github.com/hubshift/marketplace/backend/internal/utils"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var week string

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random professionals, 2: insert the demo marketplace)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&week, "week", "", "first day of the demo week, YYYY-MM-DD (defaults to next Monday)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		logger.Error("unknown time zone", "zone", cfg.Calendar.TimeZone, "error", err)
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not dial, so ping explicitly
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Error("failed to migrate database", "error", err)
		return
	}

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("number of professionals must be positive")
			return
		}

		created := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomProfessional(cfg.Seed.User.Password, cfg.Seed.User.EmailDomain)
			if err != nil {
				slog.Error("failed to generate professional", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(context.Background(), user); err != nil {
				slog.Error("failed to insert professional", slog.String("error", err.Error()))
				continue
			}

			created++
		}

		slog.Info("inserted professionals", slog.Int("count", created))
	case 2:
		weekStart, err := demoWeek(week, loc)
		if err != nil {
			slog.Error("invalid week", slog.String("error", err.Error()))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("failed to hash seed password", slog.String("error", err.Error()))
			return
		}

		// no notifier: demo data should not email anyone
		engine := lifecycle.New(repo, repo, lifecycle.WithLogger(logger), lifecycle.WithGeofenceRadius(cfg.Geofence.RadiusMeters))

		summary, err := seed.Marketplace(context.Background(), repo, engine, string(hash), weekStart)
		if err != nil {
			slog.Error("failed to seed marketplace", slog.String("error", err.Error()))
			return
		}

		slog.Info("seeded marketplace", "businesses", summary.Businesses, "professionals", summary.Professionals, "shifts", summary.Shifts, "week", weekStart.Format(time.DateOnly))
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}

func demoWeek(value string, loc *time.Location) (time.Time, error) {
	if value != "" {
		return time.ParseInLocation(time.DateOnly, value, loc)
	}

	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	daysUntilMonday := (8 - int(today.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	return today.AddDate(0, 0, daysUntilMonday), nil
}
