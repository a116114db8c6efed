package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchsync/server/internal/repository/room"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNameTaken    = errors.New("room name already taken")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyPrivate   = errors.New("room is already private")
	ErrAlreadyPublic    = errors.New("room is already public")
	ErrRoomNotPrivate   = errors.New("room is not private")
)

type iRoomRepo interface {
	// room
	CreateRoom(context.Context, *room.CreateRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	RoomExists(context.Context, string) (bool, error)
	GetRoomsByHost(context.Context, string) ([]room.Room, error)
	ListPublicRooms(ctx context.Context, page, pageSize int) ([]room.Room, error)
	SearchRooms(ctx context.Context, term string, page, pageSize int) ([]room.Room, error)
	UpdateRoomFields(context.Context, *room.UpdateRoomParams) error
	DeleteRoom(context.Context, string) error
	// participants
	AddParticipant(context.Context, *room.AddParticipantParams) (bool, error)
	RemoveParticipant(context.Context, *room.RemoveParticipantParams) (bool, error)
	GetParticipantIds(context.Context, string) ([]string, error)
	GetParticipantCount(context.Context, string) (int, error)
	IsParticipant(ctx context.Context, roomId, participantId string) (bool, error)
	// playback
	SetPlaybackState(context.Context, *room.SetPlaybackStateParams) (bool, error)
	SetVideo(context.Context, *room.SetVideoParams) error
	// privacy
	SetPrivate(context.Context, *room.SetPrivateParams) error
	SetPublic(context.Context, string) error
	SetAccessCode(ctx context.Context, roomId, accessCode string) error
}

type Config struct {
	MaxOccupancyLimit int
	MaxPageSize       int
}

type service struct {
	roomRepo          iRoomRepo
	logger            *slog.Logger
	maxOccupancyLimit int
	maxPageSize       int
}

func NewService(roomRepo iRoomRepo, logger *slog.Logger, cfg *Config) *service {
	return &service{
		roomRepo:          roomRepo,
		logger:            logger,
		maxOccupancyLimit: cfg.MaxOccupancyLimit,
		maxPageSize:       cfg.MaxPageSize,
	}
}
