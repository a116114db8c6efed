package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/watchsync/server/internal/service/room"
	"github.com/watchsync/server/pkg/rest"
)

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

type createRoomRequest struct {
	Name         string `json:"room_name" validate:"required,max=64"`
	MaxOccupancy int    `json:"max_occupancy" validate:"required,gte=1"`
	IsPrivate    bool   `json:"is_private"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	id := c.getIdentityFromCtx(r.Context())
	rm, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Name:         req.Name,
		MaxOccupancy: req.MaxOccupancy,
		HostId:       id.ParticipantId,
		IsPrivate:    req.IsPrivate,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"room": rm})
}

type updateRoomRequest struct {
	Name         *string `json:"room_name" validate:"omitempty,min=1,max=64"`
	MaxOccupancy *int    `json:"max_occupancy" validate:"omitempty,gte=1"`
}

func (c controller) updateRoom(w http.ResponseWriter, r *http.Request) {
	var req updateRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	id := c.getIdentityFromCtx(r.Context())
	rm, err := c.roomService.UpdateRoom(r.Context(), &room.UpdateRoomParams{
		RoomId:       chi.URLParam(r, "room-id"),
		HostId:       id.ParticipantId,
		Name:         req.Name,
		MaxOccupancy: req.MaxOccupancy,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"room": rm})
}

func (c controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	err := c.roomService.DeleteRoom(r.Context(), &room.DeleteRoomParams{
		RoomId:  chi.URLParam(r, "room-id"),
		ActorId: id.ParticipantId,
		IsAdmin: id.IsAdmin,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := c.roomService.GetRoomById(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"room": rm})
}

func (c controller) getRoomsByHost(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.roomService.GetRoomsByHost(r.Context(), chi.URLParam(r, "host-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms})
}

func (c controller) getPublicRooms(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paging(r)
	rooms, err := c.roomService.GetPublicRooms(r.Context(), page, pageSize)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms, "page": page, "page_size": pageSize})
}

func (c controller) searchRooms(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paging(r)
	rooms, err := c.roomService.SearchRooms(r.Context(), r.URL.Query().Get("term"), page, pageSize)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms, "page": page, "page_size": pageSize})
}

func (c controller) joinRoomRest(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	joined, err := c.roomService.JoinRoom(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"joined": joined})
}

func (c controller) leaveRoomRest(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	left, err := c.roomService.LeaveRoom(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"left": left})
}

type updatePlaybackRequest struct {
	VideoId  string  `json:"video_id" validate:"required"`
	Position float64 `json:"position" validate:"gte=0"`
	IsPaused bool    `json:"is_paused"`
}

func (c controller) updatePlaybackState(w http.ResponseWriter, r *http.Request) {
	var req updatePlaybackRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	applied, err := c.roomService.UpdatePlaybackState(r.Context(), &room.UpdatePlaybackStateParams{
		RoomId:   chi.URLParam(r, "room-id"),
		Position: req.Position,
		IsPaused: req.IsPaused,
		VideoId:  req.VideoId,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"applied": applied})
}

type setVideoRequest struct {
	VideoId string `json:"video_id" validate:"required"`
}

func (c controller) setVideo(w http.ResponseWriter, r *http.Request) {
	var req setVideoRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	id := c.getIdentityFromCtx(r.Context())
	if err := c.roomService.UpdateCurrentVideoId(r.Context(), chi.URLParam(r, "room-id"), req.VideoId, id.ParticipantId); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) getPlaybackState(w http.ResponseWriter, r *http.Request) {
	playback, err := c.roomService.GetPlaybackState(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"playback": playback})
}

func (c controller) makeRoomPrivate(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	accessCode, err := c.roomService.MakeRoomPrivate(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"access_code": accessCode})
}

func (c controller) makeRoomPublic(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	if _, err := c.roomService.MakeRoomPublic(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) regenerateAccessCode(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	accessCode, err := c.roomService.GenerateNewAccessCode(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"access_code": accessCode})
}

func (c controller) getAccessCode(w http.ResponseWriter, r *http.Request) {
	id := c.getIdentityFromCtx(r.Context())
	accessCode, err := c.roomService.GetAccessCode(r.Context(), chi.URLParam(r, "room-id"), id.ParticipantId)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"access_code": accessCode})
}

type validateAccessCodeRequest struct {
	AccessCode string `json:"access_code" validate:"required"`
}

func (c controller) validateAccessCode(w http.ResponseWriter, r *http.Request) {
	var req validateAccessCodeRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	valid, err := c.roomService.ValidateAccessCode(r.Context(), chi.URLParam(r, "room-id"), req.AccessCode)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"valid": valid})
}

func (c controller) isRoomFull(w http.ResponseWriter, r *http.Request) {
	full, err := c.roomService.IsRoomFull(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"full": full})
}

func (c controller) isUserInRoom(w http.ResponseWriter, r *http.Request) {
	inRoom, err := c.roomService.IsUserInRoom(r.Context(), chi.URLParam(r, "room-id"), chi.URLParam(r, "participant-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"in_room": inRoom})
}

func (c controller) roomExists(w http.ResponseWriter, r *http.Request) {
	exists, err := c.roomService.RoomExists(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"exists": exists})
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is logged and returned as an opaque 500 so internals never
// leak to clients.
func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, room.ErrValidation):
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
	case errors.Is(err, room.ErrPermissionDenied):
		rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "permission denied"})
	case errors.Is(err, room.ErrRoomNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
	case errors.Is(err, room.ErrRoomNameTaken),
		errors.Is(err, room.ErrRoomFull),
		errors.Is(err, room.ErrAlreadyPrivate),
		errors.Is(err, room.ErrAlreadyPublic),
		errors.Is(err, room.ErrRoomNotPrivate):
		rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": err.Error()})
	default:
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
	}
}

func paging(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}

	return page, pageSize
}
