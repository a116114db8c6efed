package hub

import (
	"context"
	"fmt"

	"github.com/watchsync/server/internal/repository/session"
	"github.com/watchsync/server/internal/service/room"
)

type UpdatePlaybackStateParams struct {
	Position float64
	IsPaused bool
	VideoId  string
}

// UpdatePlaybackState relays a host position tick. Authority comes from the
// session map, not a store read: this runs on every tick and must stay cheap.
// The sender is excluded from the fan-out so the host's own player never
// jitters on its echo. A stale tick (video changed underneath) is dropped and
// not broadcast.
func (h *Hub) UpdatePlaybackState(ctx context.Context, conn session.Conn, params *UpdatePlaybackStateParams) error {
	sess, err := h.hostSession(conn)
	if err != nil {
		return err
	}

	applied, err := h.roomService.UpdatePlaybackState(ctx, &room.UpdatePlaybackStateParams{
		RoomId:   sess.RoomId,
		Position: params.Position,
		IsPaused: params.IsPaused,
		VideoId:  params.VideoId,
	})
	if err != nil {
		return fmt.Errorf("failed to update playback state: %w", err)
	}

	if !applied {
		return nil
	}

	h.broadcastExcept(ctx, sess.RoomId, conn, &Output{
		Type: eventReceivePlaybackState,
		Payload: PlaybackStatePayload{
			Position: params.Position,
			IsPaused: params.IsPaused,
		},
	})

	return nil
}

// SetVideo swaps the room's video on behalf of the host and mirrors the
// store's reset at the live layer: the new video id goes out first, then the
// position-zero paused state.
func (h *Hub) SetVideo(ctx context.Context, conn session.Conn, videoId string) error {
	sess, err := h.hostSession(conn)
	if err != nil {
		return err
	}

	if err := h.roomService.UpdateCurrentVideoId(ctx, sess.RoomId, videoId, sess.ParticipantId); err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	h.broadcast(ctx, sess.RoomId, &Output{
		Type:    eventReceiveNewVideoId,
		Payload: NewVideoPayload{VideoId: videoId},
	})
	h.broadcast(ctx, sess.RoomId, &Output{
		Type:    eventReceivePlaybackState,
		Payload: PlaybackStatePayload{Position: 0, IsPaused: true},
	})

	return nil
}

func (h *Hub) hostSession(conn session.Conn) (session.Session, error) {
	sess, err := h.sessions.Get(conn)
	if err != nil {
		return session.Session{}, ErrNotAttached
	}

	if !sess.IsHost {
		return session.Session{}, ErrNotHost
	}

	return sess, nil
}
