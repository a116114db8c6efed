package room

import (
	"time"

	"github.com/watchsync/server/internal/repository/room"
)

// Room is the outward room projection. The access code never rides along; it
// is only handed out through GetAccessCode.
type Room struct {
	Id             string    `json:"room_id"`
	Name           string    `json:"room_name"`
	HostId         string    `json:"host_id"`
	MaxOccupancy   int       `json:"max_occupancy"`
	ParticipantIds []string  `json:"participant_ids"`
	CurrentVideoId string    `json:"current_video_id"`
	Position       float64   `json:"current_playback_position"`
	IsPaused       bool      `json:"is_paused"`
	LastSyncUpdate time.Time `json:"last_sync_update"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
}

// PlaybackState is the anchor late joiners extrapolate from.
type PlaybackState struct {
	VideoId        string    `json:"video_id"`
	Position       float64   `json:"position"`
	IsPaused       bool      `json:"is_paused"`
	LastSyncUpdate time.Time `json:"last_sync_update"`
}

func toRoom(rm room.Room, participantIds []string) Room {
	if participantIds == nil {
		participantIds = []string{}
	}

	return Room{
		Id:             rm.Id,
		Name:           rm.Name,
		HostId:         rm.HostId,
		MaxOccupancy:   rm.MaxOccupancy,
		ParticipantIds: participantIds,
		CurrentVideoId: rm.VideoId,
		Position:       rm.Position,
		IsPaused:       rm.IsPaused,
		LastSyncUpdate: time.UnixMilli(rm.LastSyncUpdate),
		IsPrivate:      rm.IsPrivate,
		CreatedAt:      time.UnixMilli(rm.CreatedAt),
	}
}
