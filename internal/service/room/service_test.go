package room

import (
	"context"
	"log/slog"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/watchsync/server/internal/repository/room/redis"
)

func newTestService(t *testing.T) *service {
	t.Helper()

	s := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewService(redisrepo.NewRepo(rc), slog.Default(), &Config{
		MaxOccupancyLimit: 20,
		MaxPageSize:       100,
	})
}

func createTestRoom(t *testing.T, svc *service, params *CreateRoomParams) Room {
	t.Helper()

	rm, err := svc.CreateRoom(context.Background(), params)
	require.NoError(t, err)

	return rm
}

func TestCreateRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{
		Name:         "movie-night",
		MaxOccupancy: 5,
		HostId:       "h1",
	})
	assert.NotEmpty(t, rm.Id)
	assert.Equal(t, "movie-night", rm.Name)
	assert.Equal(t, "h1", rm.HostId)
	assert.Equal(t, 5, rm.MaxOccupancy)
	assert.False(t, rm.IsPrivate)
	assert.Empty(t, rm.ParticipantIds)
	assert.Empty(t, rm.CurrentVideoId)
	assert.True(t, rm.IsPaused)
	assert.False(t, rm.CreatedAt.IsZero())

	got, err := svc.GetRoomById(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, rm.Id, got.Id)
}

func TestCreateRoom_NameTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 5, HostId: "h1"})

	// name uniqueness is case-insensitive
	_, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "Movie-Night", MaxOccupancy: 5, HostId: "h2"})
	assert.ErrorIs(t, err, ErrRoomNameTaken)
}

func TestCreateRoom_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "  ", MaxOccupancy: 5, HostId: "h1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateRoom(ctx, &CreateRoomParams{Name: "a", MaxOccupancy: 0, HostId: "h1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateRoom(ctx, &CreateRoomParams{Name: "a", MaxOccupancy: 21, HostId: "h1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateRoom(ctx, &CreateRoomParams{Name: "a", MaxOccupancy: 5, HostId: ""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestJoinRoom_CapacityEnforced(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	joined, err := svc.JoinRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = svc.JoinRoom(ctx, rm.Id, "u2")
	require.NoError(t, err)
	assert.True(t, joined)

	_, err = svc.JoinRoom(ctx, rm.Id, "u3")
	assert.ErrorIs(t, err, ErrRoomFull)

	// re-joining at capacity is still a no-op success
	joined, err = svc.JoinRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)
	assert.True(t, joined)

	got, err := svc.GetRoomById(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.ParticipantIds)

	full, err := svc.IsRoomFull(ctx, rm.Id)
	require.NoError(t, err)
	assert.True(t, full)
}

func TestJoinRoom_UnknownRoom(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.JoinRoom(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	_, err := svc.JoinRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)

	left, err := svc.LeaveRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)
	assert.True(t, left)

	// leaving a room one is not in is a no-op success
	left, err = svc.LeaveRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)
	assert.True(t, left)

	inRoom, err := svc.IsUserInRoom(ctx, rm.Id, "u1")
	require.NoError(t, err)
	assert.False(t, inRoom)

	_, err = svc.LeaveRoom(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "taken", MaxOccupancy: 2, HostId: "h2"})

	newName := "film-club"
	newOccupancy := 4
	got, err := svc.UpdateRoom(ctx, &UpdateRoomParams{
		RoomId:       rm.Id,
		HostId:       "h1",
		Name:         &newName,
		MaxOccupancy: &newOccupancy,
	})
	require.NoError(t, err)
	assert.Equal(t, "film-club", got.Name)
	assert.Equal(t, 4, got.MaxOccupancy)

	// old name is freed, new name is reserved
	createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h3"})
	conflict := "taken"
	_, err = svc.UpdateRoom(ctx, &UpdateRoomParams{RoomId: rm.Id, HostId: "h1", Name: &conflict})
	assert.ErrorIs(t, err, ErrRoomNameTaken)

	// only the host may update
	_, err = svc.UpdateRoom(ctx, &UpdateRoomParams{RoomId: rm.Id, HostId: "h2", Name: &newName})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// nothing to change reads as no matching room
	_, err = svc.UpdateRoom(ctx, &UpdateRoomParams{RoomId: rm.Id, HostId: "h1"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.UpdateRoom(ctx, &UpdateRoomParams{RoomId: "missing", HostId: "h1", Name: &newName})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDeleteRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	err := svc.DeleteRoom(ctx, &DeleteRoomParams{RoomId: rm.Id, ActorId: "u1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.DeleteRoom(ctx, &DeleteRoomParams{RoomId: rm.Id, ActorId: "h1"})
	require.NoError(t, err)

	_, err = svc.GetRoomById(ctx, rm.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// the name is released on delete
	createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h2"})
}

func TestDeleteRoom_Admin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	err := svc.DeleteRoom(ctx, &DeleteRoomParams{RoomId: rm.Id, ActorId: "moderator", IsAdmin: true})
	require.NoError(t, err)

	_, err = svc.GetRoomById(ctx, rm.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

var accessCodeRe = regexp.MustCompile(`^[0-9A-F]{6}$`)

func TestRoomPrivacy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	_, err := svc.MakeRoomPrivate(ctx, rm.Id, "u1")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	code, err := svc.MakeRoomPrivate(ctx, rm.Id, "h1")
	require.NoError(t, err)
	assert.Regexp(t, accessCodeRe, code)

	_, err = svc.MakeRoomPrivate(ctx, rm.Id, "h1")
	assert.ErrorIs(t, err, ErrAlreadyPrivate)

	valid, err := svc.ValidateAccessCode(ctx, rm.Id, "WRONG1")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = svc.ValidateAccessCode(ctx, rm.Id, code)
	require.NoError(t, err)
	assert.True(t, valid)

	// the code is host-only while the room is private
	_, err = svc.GetAccessCode(ctx, rm.Id, "u1")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.GetAccessCode(ctx, rm.Id, "h1")
	require.NoError(t, err)
	assert.Equal(t, code, got)

	rotated, err := svc.GenerateNewAccessCode(ctx, rm.Id, "h1")
	require.NoError(t, err)
	assert.Regexp(t, accessCodeRe, rotated)
	assert.NotEqual(t, code, rotated)

	valid, err = svc.ValidateAccessCode(ctx, rm.Id, code)
	require.NoError(t, err)
	assert.False(t, valid, "old code must be dead after rotation")

	ok, err := svc.MakeRoomPublic(ctx, rm.Id, "h1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.MakeRoomPublic(ctx, rm.Id, "h1")
	assert.ErrorIs(t, err, ErrAlreadyPublic)

	_, err = svc.GenerateNewAccessCode(ctx, rm.Id, "h1")
	assert.ErrorIs(t, err, ErrRoomNotPrivate)
}

func TestGetPublicRooms_ExcludesPrivate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	public := createTestRoom(t, svc, &CreateRoomParams{Name: "open", MaxOccupancy: 2, HostId: "h1"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "closed", MaxOccupancy: 2, HostId: "h1", IsPrivate: true})

	rooms, err := svc.GetPublicRooms(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, public.Id, rooms[0].Id)

	// flipping privacy moves the room between listings
	_, err = svc.MakeRoomPrivate(ctx, public.Id, "h1")
	require.NoError(t, err)

	rooms, err = svc.GetPublicRooms(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = svc.MakeRoomPublic(ctx, public.Id, "h1")
	require.NoError(t, err)

	rooms, err = svc.GetPublicRooms(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, public.Id, rooms[0].Id)
}

func TestSearchRooms(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	createTestRoom(t, svc, &CreateRoomParams{Name: "alpha", MaxOccupancy: 2, HostId: "h1"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "alphabet", MaxOccupancy: 2, HostId: "h2"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "beta", MaxOccupancy: 2, HostId: "h3"})

	rooms, err := svc.SearchRooms(ctx, "ALPHA", 1, 10)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	// host id matches too
	rooms, err = svc.SearchRooms(ctx, "h3", 1, 10)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "beta", rooms[0].Name)

	rooms, err = svc.SearchRooms(ctx, "alpha", 2, 1)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	rooms, err = svc.SearchRooms(ctx, "nope", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = svc.SearchRooms(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPagingValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetPublicRooms(ctx, 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetPublicRooms(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetPublicRooms(ctx, 1, 101)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetRoomsByHost(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	createTestRoom(t, svc, &CreateRoomParams{Name: "one", MaxOccupancy: 2, HostId: "h1"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "two", MaxOccupancy: 2, HostId: "h1"})
	createTestRoom(t, svc, &CreateRoomParams{Name: "other", MaxOccupancy: 2, HostId: "h2"})

	rooms, err := svc.GetRoomsByHost(ctx, "h1")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	rooms, err = svc.GetRoomsByHost(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestUpdateCurrentVideoId(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	err := svc.UpdateCurrentVideoId(ctx, rm.Id, "vid-1", "u1")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.UpdateCurrentVideoId(ctx, rm.Id, "vid-1", "h1")
	require.NoError(t, err)

	playback, err := svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, "vid-1", playback.VideoId)
	assert.Equal(t, float64(0), playback.Position)
	assert.True(t, playback.IsPaused)
}

func TestUpdatePlaybackState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})
	require.NoError(t, svc.UpdateCurrentVideoId(ctx, rm.Id, "vid-1", "h1"))

	applied, err := svc.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:   rm.Id,
		VideoId:  "vid-1",
		Position: 42.5,
		IsPaused: false,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	playback, err := svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, 42.5, playback.Position)
	assert.False(t, playback.IsPaused)

	// an update for a video the room has moved past is dropped
	applied, err = svc.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:   rm.Id,
		VideoId:  "vid-0",
		Position: 99,
		IsPaused: true,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	playback, err = svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, 42.5, playback.Position)
	assert.False(t, playback.IsPaused)
}

func TestVideoChangeResetsPlayback(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})
	require.NoError(t, svc.UpdateCurrentVideoId(ctx, rm.Id, "vid-1", "h1"))

	_, err := svc.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:   rm.Id,
		VideoId:  "vid-1",
		Position: 300,
		IsPaused: false,
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateCurrentVideoId(ctx, rm.Id, "vid-2", "h1"))

	playback, err := svc.GetPlaybackState(ctx, rm.Id)
	require.NoError(t, err)
	assert.Equal(t, "vid-2", playback.VideoId)
	assert.Equal(t, float64(0), playback.Position)
	assert.True(t, playback.IsPaused)
}

func TestUpdatePlaybackState_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rm := createTestRoom(t, svc, &CreateRoomParams{Name: "movie-night", MaxOccupancy: 2, HostId: "h1"})

	_, err := svc.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{RoomId: rm.Id, VideoId: "vid-1", Position: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{RoomId: rm.Id, VideoId: ""})
	assert.ErrorIs(t, err, ErrValidation)
}
