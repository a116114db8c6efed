package room

import (
	"context"
	"fmt"

	"github.com/watchsync/server/internal/repository/room"
)

// MakeRoomPrivate flips the room private and returns the freshly generated
// access code. Host-only; making an already-private room private is a
// conflict, not a success.
func (s service) MakeRoomPrivate(ctx context.Context, roomId, actorId string) (string, error) {
	rm, err := s.getRoomForHost(ctx, roomId, actorId)
	if err != nil {
		return "", err
	}
	if rm.IsPrivate {
		return "", ErrAlreadyPrivate
	}

	accessCode := s.generateAccessCode()
	if err := s.roomRepo.SetPrivate(ctx, &room.SetPrivateParams{
		RoomId:     roomId,
		AccessCode: accessCode,
	}); err != nil {
		switch err {
		case room.ErrNotMatched:
			return "", ErrAlreadyPrivate
		case room.ErrRoomNotFound:
			return "", ErrRoomNotFound
		default:
			return "", fmt.Errorf("failed to set room private: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "room made private", "room_id", roomId)

	return accessCode, nil
}

func (s service) MakeRoomPublic(ctx context.Context, roomId, actorId string) (bool, error) {
	rm, err := s.getRoomForHost(ctx, roomId, actorId)
	if err != nil {
		return false, err
	}
	if !rm.IsPrivate {
		return false, ErrAlreadyPublic
	}

	if err := s.roomRepo.SetPublic(ctx, roomId); err != nil {
		switch err {
		case room.ErrNotMatched:
			return false, ErrAlreadyPublic
		case room.ErrRoomNotFound:
			return false, ErrRoomNotFound
		default:
			return false, fmt.Errorf("failed to set room public: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "room made public", "room_id", roomId)

	return true, nil
}

// GenerateNewAccessCode rotates the code of a private room. Host-only;
// rejected for public rooms.
func (s service) GenerateNewAccessCode(ctx context.Context, roomId, actorId string) (string, error) {
	rm, err := s.getRoomForHost(ctx, roomId, actorId)
	if err != nil {
		return "", err
	}
	if !rm.IsPrivate {
		return "", ErrRoomNotPrivate
	}

	accessCode := s.generateAccessCode()
	if err := s.roomRepo.SetAccessCode(ctx, roomId, accessCode); err != nil {
		switch err {
		case room.ErrNotMatched:
			return "", ErrRoomNotPrivate
		case room.ErrRoomNotFound:
			return "", ErrRoomNotFound
		default:
			return "", fmt.Errorf("failed to set access code: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "access code rotated", "room_id", roomId)

	return accessCode, nil
}

func (s service) ValidateAccessCode(ctx context.Context, roomId, accessCode string) (bool, error) {
	if roomId == "" || accessCode == "" {
		return false, fmt.Errorf("%w: room id and access code are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("failed to get room: %w", err)
	}

	return rm.AccessCode != "" && rm.AccessCode == accessCode, nil
}

// GetAccessCode hands out the code of a private room to its host only.
func (s service) GetAccessCode(ctx context.Context, roomId, requesterId string) (string, error) {
	if roomId == "" || requesterId == "" {
		return "", fmt.Errorf("%w: room id and requester id are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return "", ErrRoomNotFound
		}
		return "", fmt.Errorf("failed to get room: %w", err)
	}

	if rm.IsPrivate && rm.HostId != requesterId {
		return "", ErrPermissionDenied
	}

	return rm.AccessCode, nil
}

func (s service) getRoomForHost(ctx context.Context, roomId, actorId string) (room.Room, error) {
	if roomId == "" || actorId == "" {
		return room.Room{}, fmt.Errorf("%w: room id and actor id are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return room.Room{}, ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId != actorId {
		return room.Room{}, ErrPermissionDenied
	}

	return rm, nil
}
