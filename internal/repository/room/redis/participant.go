package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/watchsync/server/internal/repository/room"
)

// AddParticipant appends the participant to the room's ordered member set.
// The capacity check runs inside the script, so two joins racing at the
// capacity boundary cannot both get in. Returns false when the participant was
// already present (idempotent join).
func (r repo) AddParticipant(ctx context.Context, params *room.AddParticipantParams) (bool, error) {
	res, err := r.rc.EvalSha(ctx, r.addParticipantScript,
		[]string{r.getParticipantsKey(params.RoomId), r.getRoomKey(params.RoomId)},
		params.ParticipantId,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	case -1:
		return false, room.ErrRoomFull
	case -2:
		return false, room.ErrRoomNotFound
	default:
		return false, scriptErr(res)
	}
}

func (r repo) RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) (bool, error) {
	removed, err := r.rc.ZRem(ctx, r.getParticipantsKey(params.RoomId), params.ParticipantId).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove participant: %w", err)
	}

	return removed > 0, nil
}

func (r repo) GetParticipantIds(ctx context.Context, roomId string) ([]string, error) {
	participantIds, err := r.rc.ZRange(ctx, r.getParticipantsKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	return participantIds, nil
}

func (r repo) GetParticipantCount(ctx context.Context, roomId string) (int, error) {
	count, err := r.rc.ZCard(ctx, r.getParticipantsKey(roomId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}

	return int(count), nil
}

func (r repo) IsParticipant(ctx context.Context, roomId, participantId string) (bool, error) {
	_, err := r.rc.ZScore(ctx, r.getParticipantsKey(roomId), participantId).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return true, nil
}
