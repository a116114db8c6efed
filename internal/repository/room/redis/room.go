package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/watchsync/server/internal/repository/room"
)

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	nameKey := r.getNameKey(params.Name)
	ok, err := r.rc.SetNX(ctx, nameKey, params.Id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve room name: %w", err)
	}
	if !ok {
		return room.ErrNameTaken
	}

	createdAt := params.CreatedAt.UnixMilli()

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getRoomKey(params.Id),
		"id", params.Id,
		"name", params.Name,
		"host_id", params.HostId,
		"max_occupancy", params.MaxOccupancy,
		"video_id", "",
		"position", 0,
		"is_paused", r.boolToField(true),
		"last_sync_update", createdAt,
		"is_private", r.boolToField(params.IsPrivate),
		"access_code", params.AccessCode,
		"created_at", createdAt,
	)
	pipe.ZAdd(ctx, allRoomsKey, redis.Z{Score: float64(createdAt), Member: params.Id})
	if !params.IsPrivate {
		pipe.ZAdd(ctx, publicRoomsKey, redis.Z{Score: float64(createdAt), Member: params.Id})
	}
	pipe.SAdd(ctx, r.getHostKey(params.HostId), params.Id)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	cmd := r.rc.HGetAll(ctx, r.getRoomKey(roomId))
	if err := cmd.Err(); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var rm room.Room
	if err := cmd.Scan(&rm); err != nil {
		return room.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	return rm, nil
}

func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) GetRoomsByHost(ctx context.Context, hostId string) ([]room.Room, error) {
	roomIds, err := r.rc.SMembers(ctx, r.getHostKey(hostId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get host rooms: %w", err)
	}

	return r.getRooms(ctx, roomIds)
}

func (r repo) ListPublicRooms(ctx context.Context, page, pageSize int) ([]room.Room, error) {
	start, stop := pageBounds(page, pageSize)
	roomIds, err := r.rc.ZRange(ctx, publicRoomsKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list public rooms: %w", err)
	}

	return r.getRooms(ctx, roomIds)
}

// SearchRooms matches term as a case-insensitive substring of the room name or
// host id. The full index is scanned; paging is applied after filtering.
func (r repo) SearchRooms(ctx context.Context, term string, page, pageSize int) ([]room.Room, error) {
	roomIds, err := r.rc.ZRange(ctx, allRoomsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms index: %w", err)
	}

	term = strings.ToLower(term)

	matched := make([]string, 0, len(roomIds))
	for _, roomId := range roomIds {
		fields, err := r.rc.HMGet(ctx, r.getRoomKey(roomId), "name", "host_id").Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get room fields: %w", err)
		}

		name, _ := fields[0].(string)
		hostId, _ := fields[1].(string)
		if strings.Contains(strings.ToLower(name), term) || strings.Contains(strings.ToLower(hostId), term) {
			matched = append(matched, roomId)
		}
	}

	start, stop := pageBounds(page, pageSize)
	if start >= int64(len(matched)) {
		return []room.Room{}, nil
	}
	if stop >= int64(len(matched)) {
		stop = int64(len(matched)) - 1
	}

	return r.getRooms(ctx, matched[start:stop+1])
}

func (r repo) UpdateRoomFields(ctx context.Context, params *room.UpdateRoomParams) error {
	oldName, err := r.rc.HGet(ctx, r.getRoomKey(params.RoomId), "name").Result()
	if err == redis.Nil {
		return room.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get room name: %w", err)
	}

	newName := ""
	newNameKey := r.getNameKey(oldName)
	if params.Name != nil {
		newName = *params.Name
		newNameKey = r.getNameKey(newName)
	}

	newOccupancy := ""
	if params.MaxOccupancy != nil {
		newOccupancy = fmt.Sprintf("%d", *params.MaxOccupancy)
	}

	res, err := r.rc.EvalSha(ctx, r.updateFieldsScript,
		[]string{r.getRoomKey(params.RoomId), newNameKey, r.getNameKey(oldName)},
		params.HostId, newName, newOccupancy, params.RoomId,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to update room fields: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return room.ErrNotMatched
	case -2:
		return room.ErrRoomNotFound
	case -3:
		return room.ErrNameTaken
	default:
		return scriptErr(res)
	}
}

func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	fields, err := r.rc.HMGet(ctx, r.getRoomKey(roomId), "name", "host_id").Result()
	if err != nil {
		return fmt.Errorf("failed to get room fields: %w", err)
	}

	name, ok := fields[0].(string)
	if !ok {
		return room.ErrRoomNotFound
	}
	hostId, _ := fields[1].(string)

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getRoomKey(roomId), r.getParticipantsKey(roomId), r.getNameKey(name))
	pipe.ZRem(ctx, allRoomsKey, roomId)
	pipe.ZRem(ctx, publicRoomsKey, roomId)
	pipe.SRem(ctx, r.getHostKey(hostId), roomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}
