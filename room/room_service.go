package room

//go:generate mockgen -source=room_service.go -destination=mocks/mock_room_service.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, request NewRoom) (Room, error)
	GetRoomByID(ctx context.Context, id string) (Room, error)
	GetRoomByName(ctx context.Context, name string) (Room, error)
	ListRooms(ctx context.Context, skip, limit int) ([]Room, error)
	UpdateRoom(ctx context.Context, updated Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type Service struct {
	repo RoomRepository
	// known holds IDs of rooms recently seen to exist.
	known  *cache.Cache
	logger *slog.Logger
}

func NewService(repo RoomRepository, cacheTTL time.Duration) *Service {
	return &Service{
		repo:   repo,
		known:  cache.New(cacheTTL, 5*cacheTTL),
		logger: slog.Default().With("component", "room"),
	}
}

func (s *Service) CreateRoom(ctx context.Context, request NewRoom) (Room, error) {
	request.Name = strings.TrimSpace(request.Name)

	if err := validate(request.Name, request.Capacity); err != nil {
		return Room{}, err
	}

	room, err := s.repo.CreateRoom(ctx, request)

	if err != nil {
		return Room{}, err
	}

	s.logger.Info("room created", "id", room.ID, "name", room.Name)

	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (Room, error) {
	return s.repo.GetRoomByID(ctx, id)
}

func (s *Service) GetRoomByName(ctx context.Context, name string) (Room, error) {
	return s.repo.GetRoomByName(ctx, strings.TrimSpace(name))
}

func (s *Service) ListRooms(ctx context.Context, skip, limit int) ([]Room, error) {
	if skip < 0 {
		skip = 0
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return s.repo.ListRooms(ctx, skip, limit)
}

func (s *Service) UpdateRoom(ctx context.Context, id string, patch RoomPatch) (Room, error) {
	current, err := s.repo.GetRoomByID(ctx, id)

	if err != nil {
		return Room{}, err
	}

	updated := current.apply(patch)

	if err := validate(updated.Name, updated.Capacity); err != nil {
		return Room{}, err
	}

	return s.repo.UpdateRoom(ctx, updated)
}

// DeleteRoom removes the room and, through the store, every booking of it.
func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}

	s.known.Delete(id)
	s.logger.Info("room deleted", "id", id)

	return nil
}

func (s *Service) RoomExists(ctx context.Context, id string) (bool, error) {
	if _, found := s.known.Get(id); found {
		return true, nil
	}

	_, err := s.repo.GetRoomByID(ctx, id)

	if errors.Is(err, ErrRoomNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	s.known.Set(id, struct{}{}, cache.DefaultExpiration)

	return true, nil
}
