// internal/scores/redis.go
//
// Redis-backed best times.
// Each time is a sorted-set member whose score orders by time ascending and,
// for equal times, by timestamp descending:
//
//	score = seconds·1e10 + (1e10 − unixSeconds)
//
// Both terms stay well inside float64's exact integer range. Only the
// fastest keepTop entries are retained.

package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisScale = 1e10
	keepTop    = 1000
)

type redisEntry struct {
	ID      string `json:"id"`
	Seconds int    `json:"t"`
	Unix    int64  `json:"ts"`
	Player  string `json:"p,omitempty"`
}

// RedisStore keeps scores in one sorted set.
type RedisStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

// NewRedisStore uses key (default "memory:scores") on rdb.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "memory:scores"
	}
	return &RedisStore{rdb: rdb, key: key, now: time.Now}
}

func redisScore(seconds int, unix int64) float64 {
	return float64(seconds)*redisScale + (redisScale - float64(unix))
}

// Add stores a time and trims the set.
func (s *RedisStore) Add(ctx context.Context, seconds int, p Player) error {
	if seconds < 0 {
		return ErrInvalidTime
	}
	e := redisEntry{ID: uuid.NewString(), Seconds: seconds, Unix: s.now().Unix(), Player: p.Name}
	member, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.key, &redis.Z{Score: redisScore(e.Seconds, e.Unix), Member: string(member)})
		pipe.ZRemRangeByRank(ctx, s.key, keepTop, -1)
		return nil
	})
	return err
}

// Best lists the fastest times.
func (s *RedisStore) Best(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	members, err := s.rdb.ZRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(members))
	for _, m := range members {
		var e redisEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("decode score member: %w", err)
		}
		out = append(out, Record{
			Time:   e.Seconds,
			Date:   time.Unix(e.Unix, 0).Local().Format(DateLayout),
			Player: e.Player,
		})
	}
	return out, nil
}
