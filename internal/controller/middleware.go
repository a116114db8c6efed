package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchsync/server/pkg/ctxlogger"
	"github.com/watchsync/server/pkg/rest"
	"github.com/watchsync/server/pkg/wsrouter"
)

func (c controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", uuid.NewString()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		c.logger.InfoContext(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

// identityMw rejects requests without a valid bearer token and stashes the
// caller's identity in the request context.
func (c controller) identityMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := c.parseIdentity(r)
		if err != nil {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey, id)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("participant_id", id.ParticipantId))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) loggingWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			start := time.Now()
			err := next(ctx, conn, payload)
			c.logger.InfoContext(ctx, "message handled",
				"message_type", wsrouter.GetMessageTypeFromCtx(ctx),
				"duration", time.Since(start).String(),
			)
			return err
		}
	}
}
