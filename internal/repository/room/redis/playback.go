package redis

import (
	"context"
	"fmt"

	"github.com/watchsync/server/internal/repository/room"
)

// SetPlaybackState applies position/pause only while the caller's videoId is
// still the room's current video. A stale update (the host swapped videos in
// between) returns false and writes nothing.
func (r repo) SetPlaybackState(ctx context.Context, params *room.SetPlaybackStateParams) (bool, error) {
	res, err := r.rc.EvalSha(ctx, r.setPlaybackScript,
		[]string{r.getRoomKey(params.RoomId)},
		params.VideoId, params.Position, r.boolToField(params.IsPaused), params.UpdatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to set playback state: %w", err)
	}

	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	case -2:
		return false, room.ErrRoomNotFound
	default:
		return false, scriptErr(res)
	}
}

// SetVideo swaps the current video and resets position to 0 and paused to
// true in the same write. Conditioned on the host id matching.
func (r repo) SetVideo(ctx context.Context, params *room.SetVideoParams) error {
	res, err := r.rc.EvalSha(ctx, r.setVideoScript,
		[]string{r.getRoomKey(params.RoomId)},
		params.HostId, params.VideoId, params.UpdatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to set video: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return room.ErrNotMatched
	case -2:
		return room.ErrRoomNotFound
	default:
		return scriptErr(res)
	}
}
