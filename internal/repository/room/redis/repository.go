package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc *redis.Client

	addParticipantScript string
	setPlaybackScript    string
	setVideoScript       string
	updateFieldsScript   string
	setPrivateScript     string
	setPublicScript      string
	setAccessCodeScript  string
}

// NewRepo loads the conditional-update scripts up front. Every mutating
// precondition (capacity, current video, host match, privacy state) is checked
// inside the script, so it holds under concurrent callers without any
// application-level locking.
func NewRepo(rc *redis.Client) *repo {
	ctx := context.Background()

	return &repo{
		rc: rc,
		addParticipantScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[2]) == 0 then
				return -2
			end
			if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
				return 0
			end
			local max = tonumber(redis.call('HGET', KEYS[2], 'max_occupancy'))
			if redis.call('ZCARD', KEYS[1]) >= max then
				return -1
			end
			local top = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local score = 1
			if #top > 0 then
				score = tonumber(top[2]) + 1
			end
			redis.call('ZADD', KEYS[1], score, ARGV[1])
			return 1
		`).Val(),
		setPlaybackScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'video_id') ~= ARGV[1] then
				return 0
			end
			redis.call('HSET', KEYS[1], 'position', ARGV[2], 'is_paused', ARGV[3], 'last_sync_update', ARGV[4])
			return 1
		`).Val(),
		setVideoScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'host_id') ~= ARGV[1] then
				return -1
			end
			redis.call('HSET', KEYS[1], 'video_id', ARGV[2], 'position', '0', 'is_paused', '1', 'last_sync_update', ARGV[3])
			return 1
		`).Val(),
		updateFieldsScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'host_id') ~= ARGV[1] then
				return -1
			end
			if ARGV[2] ~= '' then
				local owner = redis.call('GET', KEYS[2])
				if owner and owner ~= ARGV[4] then
					return -3
				end
				redis.call('SET', KEYS[2], ARGV[4])
				if KEYS[3] ~= KEYS[2] then
					redis.call('DEL', KEYS[3])
				end
				redis.call('HSET', KEYS[1], 'name', ARGV[2])
			end
			if ARGV[3] ~= '' then
				redis.call('HSET', KEYS[1], 'max_occupancy', ARGV[3])
			end
			return 1
		`).Val(),
		setPrivateScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'is_private') == '1' then
				return 0
			end
			redis.call('HSET', KEYS[1], 'is_private', '1', 'access_code', ARGV[1])
			redis.call('ZREM', KEYS[2], ARGV[2])
			return 1
		`).Val(),
		setPublicScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'is_private') ~= '1' then
				return 0
			end
			redis.call('HSET', KEYS[1], 'is_private', '0')
			redis.call('HDEL', KEYS[1], 'access_code')
			local created = redis.call('HGET', KEYS[1], 'created_at')
			redis.call('ZADD', KEYS[2], tonumber(created), ARGV[1])
			return 1
		`).Val(),
		setAccessCodeScript: rc.ScriptLoad(ctx, `
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return -2
			end
			if redis.call('HGET', KEYS[1], 'is_private') ~= '1' then
				return 0
			end
			redis.call('HSET', KEYS[1], 'access_code', ARGV[1])
			return 1
		`).Val(),
	}
}
