package room

import "time"

// Room is the durable room document. Playback fields live on the same hash so
// a video change and its position reset are a single atomic write.
type Room struct {
	Id             string  `redis:"id"`
	Name           string  `redis:"name"`
	HostId         string  `redis:"host_id"`
	MaxOccupancy   int     `redis:"max_occupancy"`
	VideoId        string  `redis:"video_id"`
	Position       float64 `redis:"position"`
	IsPaused       bool    `redis:"is_paused"`
	LastSyncUpdate int64   `redis:"last_sync_update"`
	IsPrivate      bool    `redis:"is_private"`
	AccessCode     string  `redis:"access_code"`
	CreatedAt      int64   `redis:"created_at"`
}

type CreateRoomParams struct {
	Id           string
	Name         string
	HostId       string
	MaxOccupancy int
	IsPrivate    bool
	AccessCode   string
	CreatedAt    time.Time
}

type UpdateRoomParams struct {
	RoomId       string
	HostId       string
	Name         *string
	MaxOccupancy *int
}

type AddParticipantParams struct {
	RoomId        string
	ParticipantId string
}

type RemoveParticipantParams struct {
	RoomId        string
	ParticipantId string
}

type SetPlaybackStateParams struct {
	RoomId    string
	VideoId   string
	Position  float64
	IsPaused  bool
	UpdatedAt time.Time
}

type SetVideoParams struct {
	RoomId    string
	HostId    string
	VideoId   string
	UpdatedAt time.Time
}

type SetPrivateParams struct {
	RoomId     string
	AccessCode string
}
