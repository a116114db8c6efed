package room

import (
	"context"
	"fmt"
	"time"

	"github.com/watchsync/server/internal/repository/room"
)

type UpdatePlaybackStateParams struct {
	RoomId   string
	Position float64
	IsPaused bool
	VideoId  string
}

// UpdatePlaybackState persists the host's playback position. No authority
// check here: the live layer already vouched for the sender via its session
// map, and this path runs on every position tick. The write is conditioned on
// VideoId still being the room's current video; a stale update returns false
// and changes nothing.
func (s service) UpdatePlaybackState(ctx context.Context, params *UpdatePlaybackStateParams) (bool, error) {
	if params.RoomId == "" || params.VideoId == "" {
		return false, fmt.Errorf("%w: room id and video id are required", ErrValidation)
	}
	if params.Position < 0 {
		return false, fmt.Errorf("%w: position must not be negative", ErrValidation)
	}

	applied, err := s.roomRepo.SetPlaybackState(ctx, &room.SetPlaybackStateParams{
		RoomId:    params.RoomId,
		VideoId:   params.VideoId,
		Position:  params.Position,
		IsPaused:  params.IsPaused,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if err == room.ErrRoomNotFound {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("failed to set playback state: %w", err)
	}

	if !applied {
		s.logger.DebugContext(ctx, "stale playback update dropped", "room_id", params.RoomId, "video_id", params.VideoId)
	}

	return applied, nil
}

// UpdateCurrentVideoId swaps the room's video. Host-only. The store write
// resets position to 0 and pauses in the same atomic update, so no reader
// ever sees the new video with the old position.
func (s service) UpdateCurrentVideoId(ctx context.Context, roomId, videoId, actorId string) error {
	if roomId == "" || videoId == "" || actorId == "" {
		return fmt.Errorf("%w: room id, video id and actor id are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId != actorId {
		return ErrPermissionDenied
	}

	if err := s.roomRepo.SetVideo(ctx, &room.SetVideoParams{
		RoomId:    roomId,
		HostId:    actorId,
		VideoId:   videoId,
		UpdatedAt: time.Now(),
	}); err != nil {
		switch err {
		case room.ErrRoomNotFound:
			return ErrRoomNotFound
		case room.ErrNotMatched:
			return ErrPermissionDenied
		default:
			return fmt.Errorf("failed to set video: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "room video changed", "room_id", roomId, "video_id", videoId)

	return nil
}

func (s service) GetPlaybackState(ctx context.Context, roomId string) (PlaybackState, error) {
	if roomId == "" {
		return PlaybackState{}, fmt.Errorf("%w: room id is required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return PlaybackState{}, ErrRoomNotFound
		}
		return PlaybackState{}, fmt.Errorf("failed to get room: %w", err)
	}

	return PlaybackState{
		VideoId:        rm.VideoId,
		Position:       rm.Position,
		IsPaused:       rm.IsPaused,
		LastSyncUpdate: time.UnixMilli(rm.LastSyncUpdate),
	}, nil
}
