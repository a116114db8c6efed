package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/watchsync/server/internal/repository/room"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getParticipantsKey(roomId string) string {
	return "room:" + roomId + ":participants"
}

func (r repo) getNameKey(name string) string {
	return "room:name:" + strings.ToLower(name)
}

func (r repo) getHostKey(hostId string) string {
	return "rooms:host:" + hostId
}

const (
	allRoomsKey    = "rooms:all"
	publicRoomsKey = "rooms:public"
)

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) getRooms(ctx context.Context, roomIds []string) ([]room.Room, error) {
	rooms := make([]room.Room, 0, len(roomIds))
	for _, roomId := range roomIds {
		rm, err := r.GetRoom(ctx, roomId)
		if err != nil {
			// index can briefly reference a room deleted concurrently
			if err == room.ErrRoomNotFound {
				continue
			}
			return nil, err
		}

		rooms = append(rooms, rm)
	}

	return rooms, nil
}

func (r repo) boolToField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func pageBounds(page, pageSize int) (int64, int64) {
	start := int64((page - 1) * pageSize)
	return start, start + int64(pageSize) - 1
}

func scriptErr(code int64) error {
	return fmt.Errorf("unexpected script result: %d", code)
}
