package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository struct{ pool *pgxpool.Pool }

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetBookingByID(ctx context.Context, id string) (Booking, error) {
	sql := `
			SELECT id, user_id, room_id, start_time, end_time
			FROM bookings
			WHERE id=$1;
		`

	var booking Booking
	err := r.pool.QueryRow(ctx, sql, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomID,
		&booking.StartTime,
		&booking.EndTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	}

	if err != nil {
		return Booking{}, fmt.Errorf("failed to fetch booking with id %v: %w", id, err)
	}

	return normalize(booking), nil
}

func (r *Repository) ListBookings(ctx context.Context, filter Filter, skip, limit int) ([]Booking, error) {
	sql := `SELECT id, user_id, room_id, start_time, end_time FROM bookings`
	args := []any{skip, limit}

	switch filter.Kind {
	case FilterByUser:
		sql += ` WHERE user_id=$3`
		args = append(args, filter.ID)
	case FilterByRoom:
		sql += ` WHERE room_id=$3`
		args = append(args, filter.ID)
	}

	sql += ` ORDER BY start_time, id OFFSET $1 LIMIT $2;`

	rows, err := r.pool.Query(ctx, sql, args...)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}

	return collectBookings(rows)
}

func (r *Repository) FindOverlapping(ctx context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error) {
	return findOverlapping(ctx, r.pool, roomID, interval, excludeID)
}

func (r *Repository) DeleteBooking(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id=$1;`, id)

	if err != nil {
		return false, fmt.Errorf("failed to delete booking '%v': %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

// InRoomTx serializes writers of the same room across every process sharing
// the database with a transaction-scoped advisory lock. The exclusion
// constraint on bookings stays in place as a backstop.
func (r *Repository) InRoomTx(ctx context.Context, roomID string, fn func(tx RoomTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, roomID); err != nil {
			return fmt.Errorf("failed to acquire advisory lock for room '%v': %w", roomID, err)
		}

		return fn(&pgRoomTx{tx: tx})
	})
}

type pgRoomTx struct{ tx pgx.Tx }

func (t *pgRoomTx) FindOverlapping(ctx context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error) {
	return findOverlapping(ctx, t.tx, roomID, interval, excludeID)
}

func (t *pgRoomTx) InsertBooking(ctx context.Context, booking Booking) (Booking, error) {
	sql := `
			INSERT INTO bookings(user_id, room_id, start_time, end_time)
			VALUES ($1, $2, $3, $4)
			RETURNING id;
		`

	err := t.tx.QueryRow(ctx, sql,
		booking.UserID,
		booking.RoomID,
		booking.StartTime,
		booking.EndTime,
	).Scan(&booking.ID)

	if err != nil {
		return Booking{}, translateWriteError(err, "failed to insert booking")
	}

	return booking, nil
}

func (t *pgRoomTx) UpdateBookingInterval(ctx context.Context, id string, interval Interval) (Booking, error) {
	sql := `
			UPDATE bookings
			SET start_time=$1, end_time=$2
			WHERE id=$3
			RETURNING id, user_id, room_id, start_time, end_time;
		`

	var booking Booking
	err := t.tx.QueryRow(ctx, sql, interval.Start, interval.End, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomID,
		&booking.StartTime,
		&booking.EndTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	}

	if err != nil {
		return Booking{}, translateWriteError(err, "failed to update booking")
	}

	return normalize(booking), nil
}

func findOverlapping(ctx context.Context, q querier, roomID string, interval Interval, excludeID string) ([]Booking, error) {
	sql := `
            SELECT id, user_id, room_id, start_time, end_time
            FROM bookings
            WHERE room_id=$1 AND start_time < $3 AND end_time > $2 AND ($4 = '' OR id <> $4)
            ORDER BY start_time;
        `

	rows, err := q.Query(ctx, sql, roomID, interval.Start, interval.End, excludeID)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings of room '%v': %w", roomID, err)
	}

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	bookings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Booking, error) {
		var booking Booking
		err := row.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.RoomID,
			&booking.StartTime,
			&booking.EndTime,
		)

		return normalize(booking), err
	})

	if err != nil {
		return nil, fmt.Errorf("error scanning booking rows: %w", err)
	}

	return bookings, nil
}

func translateWriteError(err error, message string) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			if pgErr.ConstraintName == "bookings_room_id_fkey" {
				return ErrRoomNotFound
			}
			return ErrUserNotFound
		}
	}

	return fmt.Errorf("%v: %w", message, err)
}

func normalize(booking Booking) Booking {
	booking.StartTime = booking.StartTime.UTC()
	booking.EndTime = booking.EndTime.UTC()
	return booking
}
