package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/watchsync/server/internal/hub"
	"github.com/watchsync/server/internal/service/room"
	"github.com/watchsync/server/pkg/rest"
	"github.com/watchsync/server/pkg/wsrouter"
)

// Message types accepted from clients over the live connection.
const (
	msgUpdatePlaybackState = "UPDATE_PLAYBACK_STATE"
	msgHostSetVideo        = "HOST_SET_VIDEO"
	msgAlive               = "ALIVE"
)

var (
	errMalformedPayload = errors.New("malformed payload")
	errInvalidPayload   = errors.New("invalid payload")
)

// joinRoomWS admits a connection into a room's live session. Private-room
// gatekeeping happens before the upgrade so a rejected caller gets a plain
// HTTP status instead of a doomed websocket.
func (c controller) joinRoomWS(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	id := c.getIdentityFromCtx(r.Context())

	rm, err := c.roomService.GetRoomById(r.Context(), roomId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	if rm.IsPrivate && id.ParticipantId != rm.HostId {
		valid, err := c.roomService.ValidateAccessCode(r.Context(), roomId, r.URL.Query().Get("access-code"))
		if err != nil {
			c.writeServiceError(w, r, err)
			return
		}
		if !valid {
			rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "invalid access code"})
			return
		}
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if err := c.hub.Attach(r.Context(), conn, &hub.AttachParams{
		RoomId:        roomId,
		ParticipantId: id.ParticipantId,
		ClaimedHost:   r.URL.Query().Get("is-host") == "true",
	}); err != nil {
		c.logger.WarnContext(r.Context(), "attach rejected", "room_id", roomId, "error", err)
		conn.WriteJSON(hub.Output{Type: "ERROR", Payload: rest.Envelope{"error": "failed to join room"}})
		return
	}
	// the request context dies with the connection; teardown still has to
	// reach the store and the rest of the group
	defer c.hub.Detach(context.WithoutCancel(r.Context()), conn)

	if err := c.wsmux.ServeConn(r.Context(), conn); err != nil {
		c.logger.DebugContext(r.Context(), "connection closed", "room_id", roomId, "error", err)
	}
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.loggingWSMw())
	mux.SetErrorHandler(c.wsErrorHandler)

	mux.Handle(msgUpdatePlaybackState, c.handleUpdatePlaybackState)
	mux.Handle(msgHostSetVideo, c.handleHostSetVideo)
	mux.Handle(msgAlive, c.handleAlive)

	return mux
}

type updatePlaybackStateInput struct {
	VideoId  string  `json:"video_id" validate:"required"`
	Position float64 `json:"position" validate:"gte=0"`
	IsPaused bool    `json:"is_paused"`
}

func (c controller) handleUpdatePlaybackState(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input updatePlaybackStateInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return errMalformedPayload
	}

	if _, ok := c.validate.Validate(input); !ok {
		return errInvalidPayload
	}

	return c.hub.UpdatePlaybackState(ctx, conn, &hub.UpdatePlaybackStateParams{
		Position: input.Position,
		IsPaused: input.IsPaused,
		VideoId:  input.VideoId,
	})
}

type hostSetVideoInput struct {
	VideoId string `json:"video_id" validate:"required"`
}

func (c controller) handleHostSetVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input hostSetVideoInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return errMalformedPayload
	}

	if _, ok := c.validate.Validate(input); !ok {
		return errInvalidPayload
	}

	return c.hub.SetVideo(ctx, conn, input.VideoId)
}

func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return nil
}

// wsErrorHandler reports a per-message fault back to the offending caller
// only. Known faults carry their message; anything else is opaque.
func (c controller) wsErrorHandler(ctx context.Context, conn *websocket.Conn, err error) {
	message := "internal error"
	switch {
	case errors.Is(err, hub.ErrNotHost),
		errors.Is(err, hub.ErrNotAttached),
		errors.Is(err, errMalformedPayload),
		errors.Is(err, errInvalidPayload),
		errors.Is(err, room.ErrValidation),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrPermissionDenied):
		message = err.Error()
	default:
		c.logger.ErrorContext(ctx, "message handling failed",
			"message_type", wsrouter.GetMessageTypeFromCtx(ctx),
			"error", err,
		)
	}

	if writeErr := conn.WriteJSON(hub.Output{
		Type:    "ERROR",
		Payload: rest.Envelope{"error": message},
	}); writeErr != nil {
		c.logger.WarnContext(ctx, "failed to write error message", "error", writeErr)
	}
}
