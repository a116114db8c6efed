package hub

import "time"

// Event names pushed to clients. INITIALIZE_PLAYBACK is unicast to a joiner;
// everything else fans out to a room's group.
const (
	eventUserJoined           = "USER_JOINED"
	eventUserLeft             = "USER_LEFT"
	eventHostDisconnected     = "HOST_DISCONNECTED"
	eventReceiveNewVideoId    = "RECEIVE_NEW_VIDEO_ID"
	eventReceivePlaybackState = "RECEIVE_PLAYBACK_STATE"
	eventInitializePlayback   = "INITIALIZE_PLAYBACK"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type UserJoinedPayload struct {
	ParticipantId string `json:"participant_id"`
}

type UserLeftPayload struct {
	ParticipantId string `json:"participant_id"`
}

type NewVideoPayload struct {
	VideoId string `json:"video_id"`
}

type PlaybackStatePayload struct {
	Position float64 `json:"position"`
	IsPaused bool    `json:"is_paused"`
}

type InitializePlaybackPayload struct {
	VideoId        string    `json:"video_id"`
	Position       float64   `json:"position"`
	IsPaused       bool      `json:"is_paused"`
	LastSyncUpdate time.Time `json:"last_sync_update"`
}
