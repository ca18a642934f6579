package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
	"github.com/lib/pq"
)

var _ lifecycle.Store = (*Repository)(nil)

const shiftColumns = `
	s.id,
	s.owner_id,
	s.assignee_id,
	s.status,
	s.title,
	s.description,
	s.start_time,
	s.end_time,
	s.hourly_rate,
	s.venue_latitude,
	s.venue_longitude,
	s.requires_completion_confirmation,
	s.clock_in_time,
	s.clock_out_time,
	s.change_reason,
	s.cancel_reason,
	s.invited_from,
	s.created_at,
	s.updated_at,
	s.version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	shift := &domain.Shift{Invitations: make([]domain.Invitation, 0)}
	var (
		assigneeID   sql.NullInt64
		clockInTime  sql.NullTime
		clockOutTime sql.NullTime
	)

	dst := []any{
		&shift.ID,
		&shift.OwnerID,
		&assigneeID,
		&shift.Status,
		&shift.Title,
		&shift.Description,
		&shift.StartTime,
		&shift.EndTime,
		&shift.HourlyRate,
		&shift.Venue.Latitude,
		&shift.Venue.Longitude,
		&shift.RequiresCompletionConfirmation,
		&clockInTime,
		&clockOutTime,
		&shift.ChangeReason,
		&shift.CancelReason,
		&shift.InvitedFrom,
		&shift.CreatedAt,
		&shift.UpdatedAt,
		&shift.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if assigneeID.Valid {
		shift.AssigneeID = &assigneeID.Int64
	}
	if clockInTime.Valid {
		shift.ClockInTime = &clockInTime.Time
	}
	if clockOutTime.Valid {
		shift.ClockOutTime = &clockOutTime.Time
	}

	return shift, nil
}

func (r *Repository) CreateShifts(ctx context.Context, shifts []*domain.Shift, events []domain.ShiftEvent) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO shifts (
			id,
			owner_id,
			status,
			title,
			description,
			start_time,
			end_time,
			hourly_rate,
			venue_latitude,
			venue_longitude,
			requires_completion_confirmation,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING version
	`

	for _, shift := range shifts {
		params := []any{
			shift.ID,
			shift.OwnerID,
			shift.Status,
			shift.Title,
			shift.Description,
			shift.StartTime,
			shift.EndTime,
			shift.HourlyRate,
			shift.Venue.Latitude,
			shift.Venue.Longitude,
			shift.RequiresCompletionConfirmation,
			shift.CreatedAt,
			shift.UpdatedAt,
		}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&shift.Version); err != nil {
			return err
		}
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts s WHERE s.id = $1`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrShiftNotFound
		}
		return nil, err
	}

	if err := r.attachInvitations(ctx, []*domain.Shift{shift}); err != nil {
		return nil, err
	}

	return shift, nil
}

func (r *Repository) ListShifts(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, "s.owner_id = "+arg(*filter.OwnerID))
	}
	if filter.ParticipantID != nil {
		p := arg(*filter.ParticipantID)
		participant := fmt.Sprintf(`(s.assignee_id = %[1]s OR EXISTS (
			SELECT 1 FROM shift_invitations i WHERE i.shift_id = s.id AND i.professional_id = %[1]s
		))`, p)
		if filter.IncludeOpen {
			participant = fmt.Sprintf("(%s OR s.status = %s)", participant, arg(domain.ShiftStatusOpen))
		}
		conditions = append(conditions, participant)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		conditions = append(conditions, "s.status = ANY("+arg(pq.Array(statuses))+")")
	}
	if filter.StartsFrom != nil {
		conditions = append(conditions, "s.start_time >= "+arg(*filter.StartsFrom))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "s.start_time < "+arg(*filter.StartsBefore))
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts s WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY s.start_time, s.id`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachInvitations(ctx, shifts); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) attachInvitations(ctx context.Context, shifts []*domain.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Shift, len(shifts))
	ids := make([]string, 0, len(shifts))
	for _, shift := range shifts {
		byID[shift.ID] = shift
		ids = append(ids, shift.ID.String())
	}

	query := `
		SELECT shift_id, professional_id, status, invited_at, responded_at
		FROM shift_invitations
		WHERE shift_id = ANY($1::uuid[])
		ORDER BY invited_at, professional_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			shiftID     uuid.UUID
			invitation  domain.Invitation
			respondedAt sql.NullTime
		)
		dst := []any{&shiftID, &invitation.ProfessionalID, &invitation.Status, &invitation.InvitedAt, &respondedAt}
		if err := rows.Scan(dst...); err != nil {
			return err
		}
		if respondedAt.Valid {
			invitation.RespondedAt = &respondedAt.Time
		}
		if shift, ok := byID[shiftID]; ok {
			shift.Invitations = append(shift.Invitations, invitation)
		}
	}

	return rows.Err()
}

// UpdateShift writes the whole shift back only if nobody else bumped its
// version in the meantime.
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift, events ...domain.ShiftEvent) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE shifts
		SET
			assignee_id = $1,
			status = $2,
			title = $3,
			description = $4,
			start_time = $5,
			end_time = $6,
			hourly_rate = $7,
			requires_completion_confirmation = $8,
			clock_in_time = $9,
			clock_out_time = $10,
			change_reason = $11,
			cancel_reason = $12,
			invited_from = $13,
			updated_at = $14,
			version = version + 1
		WHERE id = $15 AND version = $16
		RETURNING version
	`

	params := []any{
		shift.AssigneeID,
		shift.Status,
		shift.Title,
		shift.Description,
		shift.StartTime,
		shift.EndTime,
		shift.HourlyRate,
		shift.RequiresCompletionConfirmation,
		shift.ClockInTime,
		shift.ClockOutTime,
		shift.ChangeReason,
		shift.CancelReason,
		shift.InvitedFrom,
		shift.UpdatedAt,
		shift.ID,
		shift.Version,
	}

	var version int32
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return err
	}

	upsert := `
		INSERT INTO shift_invitations (shift_id, professional_id, status, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shift_id, professional_id) DO UPDATE
		SET status = EXCLUDED.status, invited_at = EXCLUDED.invited_at, responded_at = EXCLUDED.responded_at
	`
	for _, invitation := range shift.Invitations {
		args := []any{shift.ID, invitation.ProfessionalID, invitation.Status, invitation.InvitedAt, invitation.RespondedAt}
		if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
			return err
		}
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	shift.Version = version
	return nil
}

func (r *Repository) DeleteShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		DELETE FROM shifts WHERE id = $1 AND version = $2
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, shift.ID, shift.Version)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	return nil
}

func (r *Repository) ListShiftEvents(ctx context.Context, shiftID uuid.UUID) ([]domain.ShiftEvent, error) {
	query := `
		SELECT id, type, actor_id, from_status, to_status, reason, recipients, occurred_at
		FROM shift_events
		WHERE shift_id = $1
		ORDER BY occurred_at, seq
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.ShiftEvent, 0)
	for rows.Next() {
		event := domain.ShiftEvent{ShiftID: shiftID}
		var recipients pq.Int64Array
		dst := []any{&event.ID, &event.Type, &event.ActorID, &event.FromStatus, &event.ToStatus, &event.Reason, &recipients, &event.OccurredAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		event.Recipients = []int64(recipients)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, events []domain.ShiftEvent) error {
	query := `
		INSERT INTO shift_events (id, shift_id, type, actor_id, from_status, to_status, reason, recipients, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, event := range events {
		params := []any{
			event.ID,
			event.ShiftID,
			event.Type,
			event.ActorID,
			event.FromStatus,
			event.ToStatus,
			event.Reason,
			pq.Array(event.Recipients),
			event.OccurredAt,
		}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	return nil
}
