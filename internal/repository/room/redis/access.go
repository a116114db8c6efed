package redis

import (
	"context"
	"fmt"

	"github.com/watchsync/server/internal/repository/room"
)

// SetPrivate flips a public room to private and stores the access code,
// dropping it from the public index. A room that is already private does not
// match.
func (r repo) SetPrivate(ctx context.Context, params *room.SetPrivateParams) error {
	res, err := r.rc.EvalSha(ctx, r.setPrivateScript,
		[]string{r.getRoomKey(params.RoomId), publicRoomsKey},
		params.AccessCode, params.RoomId,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to set room private: %w", err)
	}

	return r.mapToggleResult(res)
}

// SetPublic flips a private room back to public, clears the access code and
// re-adds the room to the public index.
func (r repo) SetPublic(ctx context.Context, roomId string) error {
	res, err := r.rc.EvalSha(ctx, r.setPublicScript,
		[]string{r.getRoomKey(roomId), publicRoomsKey},
		roomId,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to set room public: %w", err)
	}

	return r.mapToggleResult(res)
}

// SetAccessCode replaces the access code of a private room. Does not match on
// public rooms.
func (r repo) SetAccessCode(ctx context.Context, roomId, accessCode string) error {
	res, err := r.rc.EvalSha(ctx, r.setAccessCodeScript,
		[]string{r.getRoomKey(roomId)},
		accessCode,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to set access code: %w", err)
	}

	return r.mapToggleResult(res)
}

func (r repo) mapToggleResult(res int64) error {
	switch res {
	case 1:
		return nil
	case 0:
		return room.ErrNotMatched
	case -2:
		return room.ErrRoomNotFound
	default:
		return scriptErr(res)
	}
}
