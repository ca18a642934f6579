package seed

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed data/*.csv
var dataFS embed.FS

// Users is what the seeder needs from the user repository.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

type venue struct {
	user     *domain.User
	location domain.Location
}

type Summary struct {
	Businesses    int
	Professionals int
	Shifts        int
}

func readCSV(name string) ([]map[string]string, error) {
	file, err := dataFS.Open("data/" + name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}

	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}
	return records, nil
}

// ensureUser returns the stored user with this username, creating it first if needed.
func ensureUser(ctx context.Context, users Users, user *domain.User) (*domain.User, error) {
	existing, err := users.GetUserByUsername(ctx, user.Username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if err := users.CreateUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
			// created concurrently by another seeder run
			return users.GetUserByUsername(ctx, user.Username)
		}
		return nil, err
	}
	return user, nil
}

// Marketplace inserts the demo venues and professionals and books a week of
// shifts starting at weekStart through the lifecycle engine, so the seeded
// shifts carry the same history real ones do.
func Marketplace(ctx context.Context, users Users, engine *lifecycle.Engine, passwordHash string, weekStart time.Time) (Summary, error) {
	var summary Summary

	venueRecords, err := readCSV("venues.csv")
	if err != nil {
		return summary, err
	}
	venues := make([]venue, 0, len(venueRecords))
	for _, record := range venueRecords {
		lat, err := strconv.ParseFloat(record["latitude"], 64)
		if err != nil {
			return summary, fmt.Errorf("venue %s: latitude: %w", record["username"], err)
		}
		lon, err := strconv.ParseFloat(record["longitude"], 64)
		if err != nil {
			return summary, fmt.Errorf("venue %s: longitude: %w", record["username"], err)
		}

		user, err := ensureUser(ctx, users, &domain.User{
			Username:     record["username"],
			PasswordHash: passwordHash,
			FullName:     record["full_name"],
			Email:        record["email"],
			Role:         domain.RoleBusiness,
			IsActive:     true,
		})
		if err != nil {
			return summary, fmt.Errorf("venue %s: %w", record["username"], err)
		}
		venues = append(venues, venue{user: user, location: domain.Location{Latitude: lat, Longitude: lon}})
	}
	summary.Businesses = len(venues)

	proRecords, err := readCSV("professionals.csv")
	if err != nil {
		return summary, err
	}
	pros := make([]*domain.User, 0, len(proRecords))
	for _, record := range proRecords {
		user, err := ensureUser(ctx, users, &domain.User{
			Username:     record["username"],
			PasswordHash: passwordHash,
			FullName:     record["full_name"],
			Email:        record["email"],
			Role:         domain.RoleProfessional,
			IsActive:     true,
		})
		if err != nil {
			return summary, fmt.Errorf("professional %s: %w", record["username"], err)
		}
		pros = append(pros, user)
	}
	summary.Professionals = len(pros)
	if len(pros) < 2 {
		return summary, errors.New("need at least two professionals to seed invitations")
	}

	for i, v := range venues {
		owner := lifecycle.Actor{ID: v.user.ID, Role: domain.RoleBusiness}

		for day := 0; day < 6; day++ {
			start := weekStart.AddDate(0, 0, day).Add(time.Duration(9+i) * time.Hour)
			status := domain.ShiftStatusOpen
			if day == 0 {
				status = domain.ShiftStatusDraft
			}

			shift, err := engine.Create(ctx, owner, lifecycle.CreateInput{
				Title:       fmt.Sprintf("%s %s shift", v.user.FullName, start.Weekday()),
				Description: "Walk-ins and bookings, bring your own clippers.",
				StartTime:   start,
				EndTime:     start.Add(6 * time.Hour),
				HourlyRate:  float64(38 + 2*i),
				Venue:       v.location,
				Status:      status,

				RequiresCompletionConfirmation: i%2 == 1,
			})
			if err != nil {
				return summary, fmt.Errorf("create shift for %s: %w", v.user.Username, err)
			}
			summary.Shifts++

			first := pros[(i+day)%len(pros)]
			second := pros[(i+day+1)%len(pros)]

			switch day % 3 {
			case 1:
				// booked
				if _, err := engine.Invite(ctx, owner, shift.ID, first.ID); err != nil {
					return summary, err
				}
				if _, err := engine.Accept(ctx, lifecycle.Actor{ID: first.ID, Role: domain.RoleProfessional}, shift.ID); err != nil {
					return summary, err
				}
			case 2:
				// waiting on the first of two to accept
				if _, err := engine.InviteMany(ctx, owner, shift.ID, []int64{first.ID, second.ID}); err != nil {
					return summary, err
				}
			}
		}
		slog.Info("seeded venue", "venue", v.user.Username, "shifts", 6)
	}

	return summary, nil
}
