package hub

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/watchsync/server/internal/repository/room/redis"
	"github.com/watchsync/server/internal/repository/session"
	"github.com/watchsync/server/internal/repository/session/inmemory"
	"github.com/watchsync/server/internal/service/room"
)

// fakeConn records everything pushed to it so tests can assert on the event
// stream a client would see.
type fakeConn struct {
	mu     sync.Mutex
	events []Output
}

func (c *fakeConn) WriteJSON(v any) error {
	o, ok := v.(*Output)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, *o)

	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.events))
	for _, e := range c.events {
		types = append(types, e.Type)
	}

	return types
}

func (c *fakeConn) countOf(eventType string) int {
	n := 0
	for _, tp := range c.eventTypes() {
		if tp == eventType {
			n++
		}
	}

	return n
}

func (c *fakeConn) lastOf(eventType string) (Output, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == eventType {
			return c.events[i], true
		}
	}

	return Output{}, false
}

type testRoomService interface {
	iRoomService
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Room, error)
	IsUserInRoom(ctx context.Context, roomId, participantId string) (bool, error)
}

type testEnv struct {
	hub      *Hub
	svc      testRoomService
	sessions iSessionRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	svc := room.NewService(redisrepo.NewRepo(rc), slog.Default(), &room.Config{
		MaxOccupancyLimit: 20,
		MaxPageSize:       100,
	})
	sessions := inmemory.NewRegistry()

	return &testEnv{
		hub:      NewHub(svc, sessions, slog.Default()),
		svc:      svc,
		sessions: sessions,
	}
}

func (e *testEnv) createRoom(t *testing.T, maxOccupancy int) room.Room {
	t.Helper()

	rm, err := e.svc.CreateRoom(context.Background(), &room.CreateRoomParams{
		Name:         "movie-night",
		MaxOccupancy: maxOccupancy,
		HostId:       "host-1",
	})
	require.NoError(t, err)

	return rm
}

func TestAttach_HostClaimNotTrusted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	conn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, conn, &AttachParams{
		RoomId:        rm.Id,
		ParticipantId: "guest-1",
		ClaimedHost:   true,
	}))

	sess, err := env.sessions.Get(conn)
	require.NoError(t, err)
	assert.False(t, sess.IsHost, "authority must come from the stored host id, not the claim")

	err = env.hub.UpdatePlaybackState(ctx, conn, &UpdatePlaybackStateParams{VideoId: "vid-1", Position: 1})
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestAttach_DurableJoinAndHydration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{
		RoomId:        rm.Id,
		ParticipantId: "host-1",
		ClaimedHost:   true,
	}))

	require.NoError(t, env.hub.SetVideo(ctx, hostConn, "vid-1"))
	require.NoError(t, env.hub.UpdatePlaybackState(ctx, hostConn, &UpdatePlaybackStateParams{
		VideoId:  "vid-1",
		Position: 42,
		IsPaused: false,
	}))

	lateConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, lateConn, &AttachParams{
		RoomId:        rm.Id,
		ParticipantId: "guest-1",
	}))

	inRoom, err := env.svc.IsUserInRoom(ctx, rm.Id, "guest-1")
	require.NoError(t, err)
	assert.True(t, inRoom, "attach must land the durable join")

	// the late joiner converges from the persisted anchor, not from waiting
	// for the next host tick
	init, ok := lateConn.lastOf("INITIALIZE_PLAYBACK")
	require.True(t, ok)
	payload := init.Payload.(InitializePlaybackPayload)
	assert.Equal(t, "vid-1", payload.VideoId)
	assert.Equal(t, float64(42), payload.Position)
	assert.False(t, payload.IsPaused)

	joined, ok := hostConn.lastOf("USER_JOINED")
	require.True(t, ok)
	assert.Equal(t, UserJoinedPayload{ParticipantId: "guest-1"}, joined.Payload)
}

func TestAttach_RejectedWhenRoomFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 1)

	first := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, first, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))
	joinedBefore := first.countOf("USER_JOINED")

	second := &fakeConn{}
	err := env.hub.Attach(ctx, second, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-2"})
	assert.ErrorIs(t, err, room.ErrRoomFull)

	// the rejected caller left no trace: no session, no durable membership,
	// no join event on the room
	_, err = env.sessions.Get(second)
	assert.ErrorIs(t, err, session.ErrNotFound)

	inRoom, err := env.svc.IsUserInRoom(ctx, rm.Id, "guest-2")
	require.NoError(t, err)
	assert.False(t, inRoom)

	assert.Equal(t, joinedBefore, first.countOf("USER_JOINED"))
}

func TestAttach_UnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	err := env.hub.Attach(context.Background(), &fakeConn{}, &AttachParams{
		RoomId:        "missing",
		ParticipantId: "guest-1",
	})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestDetach_Host(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{RoomId: rm.Id, ParticipantId: "host-1"}))

	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	require.NoError(t, env.hub.Detach(ctx, hostConn))

	assert.Equal(t, 1, guestConn.countOf("USER_LEFT"))
	assert.Equal(t, 1, guestConn.countOf("HOST_DISCONNECTED"))

	left, _ := guestConn.lastOf("USER_LEFT")
	assert.Equal(t, UserLeftPayload{ParticipantId: "host-1"}, left.Payload)

	_, err := env.sessions.Get(hostConn)
	assert.ErrorIs(t, err, session.ErrNotFound)

	inRoom, err := env.svc.IsUserInRoom(ctx, rm.Id, "host-1")
	require.NoError(t, err)
	assert.False(t, inRoom)

	// a second detach of the same connection is a no-op
	require.NoError(t, env.hub.Detach(ctx, hostConn))
	assert.Equal(t, 1, guestConn.countOf("USER_LEFT"))
	assert.Equal(t, 1, guestConn.countOf("HOST_DISCONNECTED"))
}

func TestDetach_Guest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{RoomId: rm.Id, ParticipantId: "host-1"}))

	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	require.NoError(t, env.hub.Detach(ctx, guestConn))

	assert.Equal(t, 1, hostConn.countOf("USER_LEFT"))
	assert.Zero(t, hostConn.countOf("HOST_DISCONNECTED"))
}

func TestUpdatePlaybackState_FanOutExcludesSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{RoomId: rm.Id, ParticipantId: "host-1"}))
	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	require.NoError(t, env.hub.SetVideo(ctx, hostConn, "vid-1"))

	hostBefore := hostConn.countOf("RECEIVE_PLAYBACK_STATE")
	require.NoError(t, env.hub.UpdatePlaybackState(ctx, hostConn, &UpdatePlaybackStateParams{
		VideoId:  "vid-1",
		Position: 10,
		IsPaused: false,
	}))

	got, ok := guestConn.lastOf("RECEIVE_PLAYBACK_STATE")
	require.True(t, ok)
	assert.Equal(t, PlaybackStatePayload{Position: 10, IsPaused: false}, got.Payload)

	assert.Equal(t, hostBefore, hostConn.countOf("RECEIVE_PLAYBACK_STATE"), "sender must not receive its own tick")
}

func TestUpdatePlaybackState_StaleTickNotBroadcast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{RoomId: rm.Id, ParticipantId: "host-1"}))
	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	require.NoError(t, env.hub.SetVideo(ctx, hostConn, "vid-2"))
	before := guestConn.countOf("RECEIVE_PLAYBACK_STATE")

	// tick for the previous video arrives after the switch
	require.NoError(t, env.hub.UpdatePlaybackState(ctx, hostConn, &UpdatePlaybackStateParams{
		VideoId:  "vid-1",
		Position: 500,
		IsPaused: false,
	}))

	assert.Equal(t, before, guestConn.countOf("RECEIVE_PLAYBACK_STATE"))

	playback, err := env.svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, "vid-2", playback.VideoId)
	assert.Equal(t, float64(0), playback.Position)
}

func TestSetVideo_BroadcastOrderAndReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	hostConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, hostConn, &AttachParams{RoomId: rm.Id, ParticipantId: "host-1"}))
	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	require.NoError(t, env.hub.SetVideo(ctx, hostConn, "vid-1"))

	types := guestConn.eventTypes()
	videoIdx, stateIdx := -1, -1
	for i, tp := range types {
		switch tp {
		case "RECEIVE_NEW_VIDEO_ID":
			videoIdx = i
		case "RECEIVE_PLAYBACK_STATE":
			stateIdx = i
		}
	}
	require.GreaterOrEqual(t, videoIdx, 0)
	require.GreaterOrEqual(t, stateIdx, 0)
	assert.Less(t, videoIdx, stateIdx, "video id must land before the reset state")

	state, _ := guestConn.lastOf("RECEIVE_PLAYBACK_STATE")
	assert.Equal(t, PlaybackStatePayload{Position: 0, IsPaused: true}, state.Payload)

	video, _ := guestConn.lastOf("RECEIVE_NEW_VIDEO_ID")
	assert.Equal(t, NewVideoPayload{VideoId: "vid-1"}, video.Payload)

	// the video swap reaches the host too
	assert.Equal(t, 1, hostConn.countOf("RECEIVE_NEW_VIDEO_ID"))
}

func TestSetVideo_GuestRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rm := env.createRoom(t, 5)

	guestConn := &fakeConn{}
	require.NoError(t, env.hub.Attach(ctx, guestConn, &AttachParams{RoomId: rm.Id, ParticipantId: "guest-1"}))

	err := env.hub.SetVideo(ctx, guestConn, "vid-1")
	assert.ErrorIs(t, err, ErrNotHost)

	playback, err := env.svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Empty(t, playback.VideoId)
}

func TestSetVideo_Detached(t *testing.T) {
	env := newTestEnv(t)

	err := env.hub.SetVideo(context.Background(), &fakeConn{}, "vid-1")
	assert.ErrorIs(t, err, ErrNotAttached)
}
