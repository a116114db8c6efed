package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/watchsync/server/internal/repository/session"
	"github.com/watchsync/server/internal/service/room"
)

var (
	ErrNotHost       = errors.New("only the host can control playback")
	ErrNotAttached   = errors.New("connection has no session")
	ErrAlreadyJoined = errors.New("connection already attached to a room")
)

type iRoomService interface {
	GetRoomById(ctx context.Context, roomId string) (room.Room, error)
	JoinRoom(ctx context.Context, roomId, participantId string) (bool, error)
	LeaveRoom(ctx context.Context, roomId, participantId string) (bool, error)
	UpdatePlaybackState(context.Context, *room.UpdatePlaybackStateParams) (bool, error)
	UpdateCurrentVideoId(ctx context.Context, roomId, videoId, actorId string) error
	GetPlaybackState(ctx context.Context, roomId string) (room.PlaybackState, error)
}

type iSessionRegistry interface {
	Add(session.Conn, session.Session) error
	Remove(session.Conn) (session.Session, error)
	Get(session.Conn) (session.Session, error)
	GetGroupConns(roomId string) []session.Conn
}

// Hub bridges the durable room state and the ephemeral per-connection
// sessions. It owns its registry (injected, not process-global), performs
// authority checks against the session map, and fans state transitions out to
// a room's group. The coordination service never calls back into it.
type Hub struct {
	roomService iRoomService
	sessions    iSessionRegistry
	logger      *slog.Logger
}

func NewHub(roomService iRoomService, sessions iSessionRegistry, logger *slog.Logger) *Hub {
	return &Hub{
		roomService: roomService,
		sessions:    sessions,
		logger:      logger,
	}
}

type AttachParams struct {
	RoomId        string
	ParticipantId string
	ClaimedHost   bool
}

// Attach joins a connection to a room. The durable join runs first: if it
// fails the attach is rejected outright, so group membership never gets ahead
// of the store. The authority bit is derived from the room's stored host id;
// the caller's claim is only logged when it disagrees.
func (h *Hub) Attach(ctx context.Context, conn session.Conn, params *AttachParams) error {
	rm, err := h.roomService.GetRoomById(ctx, params.RoomId)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	isHost := rm.HostId == params.ParticipantId
	if params.ClaimedHost != isHost {
		h.logger.WarnContext(ctx, "host claim mismatch",
			"room_id", params.RoomId,
			"participant_id", params.ParticipantId,
			"claimed_host", params.ClaimedHost,
		)
	}

	if _, err := h.roomService.JoinRoom(ctx, params.RoomId, params.ParticipantId); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err := h.sessions.Add(conn, session.Session{
		RoomId:        params.RoomId,
		ParticipantId: params.ParticipantId,
		IsHost:        isHost,
	}); err != nil {
		if _, leaveErr := h.roomService.LeaveRoom(ctx, params.RoomId, params.ParticipantId); leaveErr != nil {
			h.logger.ErrorContext(ctx, "failed to roll back durable join", "error", leaveErr)
		}
		if err == session.ErrAlreadyExists {
			return ErrAlreadyJoined
		}
		return fmt.Errorf("failed to register session: %w", err)
	}

	h.broadcast(ctx, params.RoomId, &Output{
		Type:    eventUserJoined,
		Payload: UserJoinedPayload{ParticipantId: params.ParticipantId},
	})

	// hydrate the joiner from a fresh authoritative read so late joiners
	// converge without waiting for the next host update
	playback, err := h.roomService.GetPlaybackState(ctx, params.RoomId)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to hydrate joiner", "room_id", params.RoomId, "error", err)
		return nil
	}

	if err := conn.WriteJSON(&Output{
		Type: eventInitializePlayback,
		Payload: InitializePlaybackPayload{
			VideoId:        playback.VideoId,
			Position:       playback.Position,
			IsPaused:       playback.IsPaused,
			LastSyncUpdate: playback.LastSyncUpdate,
		},
	}); err != nil {
		h.logger.WarnContext(ctx, "failed to write playback init", "room_id", params.RoomId, "error", err)
	}

	return nil
}

// Detach tears the session down. Registry and group go first so no orphaned
// entry survives a cancelled context; the durable leave is best-effort and
// self-heals later if it fails. Safe to call twice.
func (h *Hub) Detach(ctx context.Context, conn session.Conn) error {
	sess, err := h.sessions.Remove(conn)
	if err != nil {
		if err == session.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to remove session: %w", err)
	}

	if _, err := h.roomService.LeaveRoom(ctx, sess.RoomId, sess.ParticipantId); err != nil {
		h.logger.WarnContext(ctx, "durable leave failed on detach",
			"room_id", sess.RoomId,
			"participant_id", sess.ParticipantId,
			"error", err,
		)
	}

	h.broadcast(ctx, sess.RoomId, &Output{
		Type:    eventUserLeft,
		Payload: UserLeftPayload{ParticipantId: sess.ParticipantId},
	})

	if sess.IsHost {
		h.broadcast(ctx, sess.RoomId, &Output{Type: eventHostDisconnected})
	}

	return nil
}

func (h *Hub) broadcast(ctx context.Context, roomId string, output *Output) {
	h.broadcastExcept(ctx, roomId, nil, output)
}

// broadcastExcept writes to every connection in the room's group except
// sender. Best-effort: a failed write is logged and the loop moves on; the
// dead connection cleans itself up through its own Detach.
func (h *Hub) broadcastExcept(ctx context.Context, roomId string, sender session.Conn, output *Output) {
	for _, conn := range h.sessions.GetGroupConns(roomId) {
		if conn == sender {
			continue
		}

		if err := conn.WriteJSON(output); err != nil {
			h.logger.WarnContext(ctx, "broadcast write failed", "room_id", roomId, "error", err)
		}
	}
}
