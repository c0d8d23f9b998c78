package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type Repository struct{ pool *pgxpool.Pool }

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateRoom(ctx context.Context, room NewRoom) (Room, error) {
	sql := `
			INSERT INTO meeting_rooms(name, capacity, description)
			VALUES ($1, $2, $3)
			RETURNING id;
		`

	created := Room{Name: room.Name, Capacity: room.Capacity, Description: room.Description}
	err := r.pool.QueryRow(ctx, sql, room.Name, room.Capacity, room.Description).Scan(&created.ID)

	if isUniqueViolation(err) {
		return Room{}, ErrRoomNameTaken
	}

	if err != nil {
		return Room{}, fmt.Errorf("failed to insert room: %w", err)
	}

	return created, nil
}

func (r *Repository) GetRoomByID(ctx context.Context, id string) (Room, error) {
	return r.getRoom(ctx, `WHERE id=$1`, id)
}

func (r *Repository) GetRoomByName(ctx context.Context, name string) (Room, error) {
	return r.getRoom(ctx, `WHERE name=$1`, name)
}

func (r *Repository) getRoom(ctx context.Context, where string, arg string) (Room, error) {
	sql := `SELECT id, name, capacity, description FROM meeting_rooms ` + where + `;`

	var room Room
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&room.ID, &room.Name, &room.Capacity, &room.Description)

	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrRoomNotFound
	}

	if err != nil {
		return Room{}, fmt.Errorf("failed to fetch room '%v': %w", arg, err)
	}

	return room, nil
}

func (r *Repository) ListRooms(ctx context.Context, skip, limit int) ([]Room, error) {
	sql := `
            SELECT id, name, capacity, description
            FROM meeting_rooms
            ORDER BY name, id
            OFFSET $1 LIMIT $2;
        `

	rows, err := r.pool.Query(ctx, sql, skip, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch rooms: %w", err)
	}

	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Room, error) {
		var room Room
		err := row.Scan(&room.ID, &room.Name, &room.Capacity, &room.Description)
		return room, err
	})

	if err != nil {
		return nil, fmt.Errorf("error scanning room rows: %w", err)
	}

	return rooms, nil
}

func (r *Repository) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	sql := `
			UPDATE meeting_rooms
			SET name=$1, capacity=$2, description=$3
			WHERE id=$4;
		`

	tag, err := r.pool.Exec(ctx, sql, room.Name, room.Capacity, room.Description, room.ID)

	if isUniqueViolation(err) {
		return Room{}, ErrRoomNameTaken
	}

	if err != nil {
		return Room{}, fmt.Errorf("failed to update room '%v': %w", room.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return Room{}, ErrRoomNotFound
	}

	return room, nil
}

// DeleteRoom removes the room together with its bookings.
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meeting_rooms WHERE id=$1;`, id)

	if err != nil {
		return fmt.Errorf("failed to delete room '%v': %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
