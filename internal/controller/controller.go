package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchsync/server/internal/hub"
	"github.com/watchsync/server/internal/repository/session"
	"github.com/watchsync/server/internal/service/room"
	"github.com/watchsync/server/pkg/validator"
	"github.com/watchsync/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Room, error)
	UpdateRoom(context.Context, *room.UpdateRoomParams) (room.Room, error)
	DeleteRoom(context.Context, *room.DeleteRoomParams) error
	GetRoomById(ctx context.Context, roomId string) (room.Room, error)
	GetRoomsByHost(ctx context.Context, hostId string) ([]room.Room, error)
	GetPublicRooms(ctx context.Context, page, pageSize int) ([]room.Room, error)
	SearchRooms(ctx context.Context, term string, page, pageSize int) ([]room.Room, error)
	JoinRoom(ctx context.Context, roomId, participantId string) (bool, error)
	LeaveRoom(ctx context.Context, roomId, participantId string) (bool, error)
	UpdatePlaybackState(context.Context, *room.UpdatePlaybackStateParams) (bool, error)
	UpdateCurrentVideoId(ctx context.Context, roomId, videoId, actorId string) error
	GetPlaybackState(ctx context.Context, roomId string) (room.PlaybackState, error)
	MakeRoomPrivate(ctx context.Context, roomId, actorId string) (string, error)
	MakeRoomPublic(ctx context.Context, roomId, actorId string) (bool, error)
	GenerateNewAccessCode(ctx context.Context, roomId, actorId string) (string, error)
	ValidateAccessCode(ctx context.Context, roomId, accessCode string) (bool, error)
	GetAccessCode(ctx context.Context, roomId, requesterId string) (string, error)
	IsRoomFull(ctx context.Context, roomId string) (bool, error)
	IsUserInRoom(ctx context.Context, roomId, participantId string) (bool, error)
	RoomExists(ctx context.Context, roomId string) (bool, error)
}

type iHub interface {
	Attach(context.Context, session.Conn, *hub.AttachParams) error
	Detach(context.Context, session.Conn) error
	UpdatePlaybackState(context.Context, session.Conn, *hub.UpdatePlaybackStateParams) error
	SetVideo(ctx context.Context, conn session.Conn, videoId string) error
}

type controller struct {
	roomService iRoomService
	hub         iHub
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
	secret      string
}

func NewController(roomService iRoomService, h iHub, secret string, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		hub:         h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
		secret:   secret,
	}
	c.wsmux = c.getWSRouter()

	return c
}
