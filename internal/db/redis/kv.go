package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docparse/internal/db"
)

// delIfEqual removes KEYS[1] only while it holds ARGV[1], so a holder whose
// slot expired cannot release a slot someone else has since taken.
const delIfEqual = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

// SetNX stores value with a millisecond TTL if key is absent (SET NX PX).
func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	cmd := s.b().Set().Key(key).Value(string(value)).Nx().Px(ttl).Build()
	err := s.do(ctx, cmd).Error()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpSet, Err: err}
	}
	return true, nil
}

// DelIfEqual deletes key when its value equals value.
func (s *Store) DelIfEqual(ctx context.Context, key string, value []byte) (bool, error) {
	cmd := s.b().Eval().Script(delIfEqual).Numkeys(1).Key(key).Arg(string(value)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return n > 0, nil
}
