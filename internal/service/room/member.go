package room

import (
	"context"
	"fmt"

	"github.com/watchsync/server/internal/repository/room"
)

// JoinRoom adds the participant to the room's durable member list. Joining a
// room one is already in is a no-op success. The capacity check here is only
// the fast path; the store's conditional push is the enforcement point, so two
// joins racing at the boundary cannot both land.
func (s service) JoinRoom(ctx context.Context, roomId, participantId string) (bool, error) {
	if roomId == "" || participantId == "" {
		return false, fmt.Errorf("%w: room id and participant id are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("failed to get room: %w", err)
	}

	count, err := s.roomRepo.GetParticipantCount(ctx, roomId)
	if err != nil {
		return false, fmt.Errorf("failed to count participants: %w", err)
	}
	if count >= rm.MaxOccupancy {
		already, err := s.roomRepo.IsParticipant(ctx, roomId, participantId)
		if err != nil {
			return false, fmt.Errorf("failed to check participant: %w", err)
		}
		if !already {
			return false, ErrRoomFull
		}
	}

	if _, err := s.roomRepo.AddParticipant(ctx, &room.AddParticipantParams{
		RoomId:        roomId,
		ParticipantId: participantId,
	}); err != nil {
		switch err {
		case room.ErrRoomFull:
			return false, ErrRoomFull
		case room.ErrRoomNotFound:
			return false, ErrRoomNotFound
		default:
			return false, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "participant joined room", "room_id", roomId, "participant_id", participantId)

	return true, nil
}

// LeaveRoom removes the participant from the durable member list. Leaving a
// room one is not in is a no-op success.
func (s service) LeaveRoom(ctx context.Context, roomId, participantId string) (bool, error) {
	if roomId == "" || participantId == "" {
		return false, fmt.Errorf("%w: room id and participant id are required", ErrValidation)
	}

	exists, err := s.roomRepo.RoomExists(ctx, roomId)
	if err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return false, ErrRoomNotFound
	}

	removed, err := s.roomRepo.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		RoomId:        roomId,
		ParticipantId: participantId,
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove participant: %w", err)
	}

	if removed {
		s.logger.InfoContext(ctx, "participant left room", "room_id", roomId, "participant_id", participantId)
	}

	return true, nil
}

func (s service) IsRoomFull(ctx context.Context, roomId string) (bool, error) {
	if roomId == "" {
		return false, fmt.Errorf("%w: room id is required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("failed to get room: %w", err)
	}

	count, err := s.roomRepo.GetParticipantCount(ctx, roomId)
	if err != nil {
		return false, fmt.Errorf("failed to count participants: %w", err)
	}

	return count >= rm.MaxOccupancy, nil
}

func (s service) IsUserInRoom(ctx context.Context, roomId, participantId string) (bool, error) {
	if roomId == "" || participantId == "" {
		return false, fmt.Errorf("%w: room id and participant id are required", ErrValidation)
	}

	inRoom, err := s.roomRepo.IsParticipant(ctx, roomId, participantId)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return inRoom, nil
}

func (s service) RoomExists(ctx context.Context, roomId string) (bool, error) {
	if roomId == "" {
		return false, fmt.Errorf("%w: room id is required", ErrValidation)
	}

	exists, err := s.roomRepo.RoomExists(ctx, roomId)
	if err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}

	return exists, nil
}
