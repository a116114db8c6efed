package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)

		r.Route("/rooms", func(r chi.Router) {
			// public reads
			r.Get("/public", c.getPublicRooms)
			r.Get("/search", c.searchRooms)
			r.Get("/host/{host-id}", c.getRoomsByHost)
			r.Get("/{room-id}", c.getRoom)
			r.Get("/{room-id}/exists", c.roomExists)
			r.Get("/{room-id}/full", c.isRoomFull)
			r.Get("/{room-id}/playback", c.getPlaybackState)
			r.Get("/{room-id}/participants/{participant-id}", c.isUserInRoom)
			r.Post("/{room-id}/access-code/validate", c.validateAccessCode)

			// authenticated writes
			r.Group(func(r chi.Router) {
				r.Use(c.identityMw)

				r.Post("/", c.createRoom)
				r.Patch("/{room-id}", c.updateRoom)
				r.Delete("/{room-id}", c.deleteRoom)

				r.Post("/{room-id}/join", c.joinRoomRest)
				r.Post("/{room-id}/leave", c.leaveRoomRest)

				r.Put("/{room-id}/playback", c.updatePlaybackState)
				r.Put("/{room-id}/video", c.setVideo)

				r.Post("/{room-id}/private", c.makeRoomPrivate)
				r.Post("/{room-id}/public", c.makeRoomPublic)
				r.Get("/{room-id}/access-code", c.getAccessCode)
				r.Post("/{room-id}/access-code", c.regenerateAccessCode)
			})
		})

		r.Route("/ws", func(r chi.Router) {
			r.Use(c.identityMw)
			r.Get("/rooms/{room-id}/join", c.joinRoomWS)
		})
	})

	return r
}
