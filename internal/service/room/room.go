package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/watchsync/server/internal/repository/room"
)

type CreateRoomParams struct {
	Name         string
	MaxOccupancy int
	HostId       string
	IsPrivate    bool
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Room, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || strings.TrimSpace(params.HostId) == "" {
		return Room{}, fmt.Errorf("%w: room name and host id are required", ErrValidation)
	}
	if params.MaxOccupancy <= 0 {
		return Room{}, fmt.Errorf("%w: max occupancy must be greater than 0", ErrValidation)
	}
	if params.MaxOccupancy > s.maxOccupancyLimit {
		return Room{}, fmt.Errorf("%w: max occupancy must not exceed %d", ErrValidation, s.maxOccupancyLimit)
	}

	accessCode := ""
	if params.IsPrivate {
		accessCode = s.generateAccessCode()
	}

	roomId := uuid.NewString()
	if err := s.roomRepo.CreateRoom(ctx, &room.CreateRoomParams{
		Id:           roomId,
		Name:         name,
		HostId:       params.HostId,
		MaxOccupancy: params.MaxOccupancy,
		IsPrivate:    params.IsPrivate,
		AccessCode:   accessCode,
		CreatedAt:    time.Now(),
	}); err != nil {
		if err == room.ErrNameTaken {
			return Room{}, ErrRoomNameTaken
		}
		return Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host_id", params.HostId)

	return s.getRoom(ctx, roomId)
}

type UpdateRoomParams struct {
	RoomId       string
	HostId       string
	Name         *string
	MaxOccupancy *int
}

func (s service) UpdateRoom(ctx context.Context, params *UpdateRoomParams) (Room, error) {
	if params.RoomId == "" || params.HostId == "" {
		return Room{}, fmt.Errorf("%w: room id and host id are required", ErrValidation)
	}
	// an empty update reads the same as no matching room for this host
	if params.Name == nil && params.MaxOccupancy == nil {
		return Room{}, ErrRoomNotFound
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return Room{}, fmt.Errorf("%w: room name must not be empty", ErrValidation)
	}
	if params.MaxOccupancy != nil && (*params.MaxOccupancy <= 0 || *params.MaxOccupancy > s.maxOccupancyLimit) {
		return Room{}, fmt.Errorf("%w: max occupancy must be between 1 and %d", ErrValidation, s.maxOccupancyLimit)
	}

	if err := s.roomRepo.UpdateRoomFields(ctx, &room.UpdateRoomParams{
		RoomId:       params.RoomId,
		HostId:       params.HostId,
		Name:         params.Name,
		MaxOccupancy: params.MaxOccupancy,
	}); err != nil {
		switch err {
		case room.ErrRoomNotFound:
			return Room{}, ErrRoomNotFound
		case room.ErrNotMatched:
			return Room{}, ErrPermissionDenied
		case room.ErrNameTaken:
			return Room{}, ErrRoomNameTaken
		default:
			return Room{}, fmt.Errorf("failed to update room: %w", err)
		}
	}

	return s.getRoom(ctx, params.RoomId)
}

type DeleteRoomParams struct {
	RoomId  string
	ActorId string
	IsAdmin bool
}

func (s service) DeleteRoom(ctx context.Context, params *DeleteRoomParams) error {
	if params.RoomId == "" || params.ActorId == "" {
		return fmt.Errorf("%w: room id and actor id are required", ErrValidation)
	}

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId != params.ActorId && !params.IsAdmin {
		return ErrPermissionDenied
	}

	if err := s.roomRepo.DeleteRoom(ctx, params.RoomId); err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.logger.InfoContext(ctx, "room deleted", "room_id", params.RoomId, "actor_id", params.ActorId)

	return nil
}

func (s service) GetRoomById(ctx context.Context, roomId string) (Room, error) {
	if roomId == "" {
		return Room{}, fmt.Errorf("%w: room id is required", ErrValidation)
	}

	return s.getRoom(ctx, roomId)
}

func (s service) GetRoomsByHost(ctx context.Context, hostId string) ([]Room, error) {
	if hostId == "" {
		return nil, fmt.Errorf("%w: host id is required", ErrValidation)
	}

	rms, err := s.roomRepo.GetRoomsByHost(ctx, hostId)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms by host: %w", err)
	}

	return s.toRooms(ctx, rms)
}

func (s service) GetPublicRooms(ctx context.Context, page, pageSize int) ([]Room, error) {
	if err := s.validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	rms, err := s.roomRepo.ListPublicRooms(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list public rooms: %w", err)
	}

	return s.toRooms(ctx, rms)
}

func (s service) SearchRooms(ctx context.Context, term string, page, pageSize int) ([]Room, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrValidation)
	}
	if err := s.validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	rms, err := s.roomRepo.SearchRooms(ctx, term, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search rooms: %w", err)
	}

	return s.toRooms(ctx, rms)
}

func (s service) validatePaging(page, pageSize int) error {
	if page <= 0 || pageSize <= 0 {
		return fmt.Errorf("%w: page and page size must be greater than 0", ErrValidation)
	}
	if pageSize > s.maxPageSize {
		return fmt.Errorf("%w: page size must not exceed %d", ErrValidation, s.maxPageSize)
	}

	return nil
}

func (s service) getRoom(ctx context.Context, roomId string) (Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	participantIds, err := s.roomRepo.GetParticipantIds(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get participants: %w", err)
	}

	return toRoom(rm, participantIds), nil
}

func (s service) toRooms(ctx context.Context, rms []room.Room) ([]Room, error) {
	rooms := make([]Room, 0, len(rms))
	for _, rm := range rms {
		participantIds, err := s.roomRepo.GetParticipantIds(ctx, rm.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to get participants: %w", err)
		}

		rooms = append(rooms, toRoom(rm, participantIds))
	}

	return rooms, nil
}

const accessCodeLength = 6

// 6 chars truncated from a v4 UUID's 128 random bits. Collisions are accepted
// as negligible at expected scale; uniqueness is not checked.
func (s service) generateAccessCode() string {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(code[:accessCodeLength])
}
