package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/altirag/prism-rag/config"
)

// RedisSessionStore persists sessions in Redis.
// Data model:
//   - key prefix+"session:"+id => hash(id, created_at, messages) with TTL
//   - key prefix+"idx" => sorted set of IDs scored by created_at (best-effort index)
type RedisSessionStore struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(cfg *config.SessionConfig) (*RedisSessionStore, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	opts := &redis.Options{Addr: "localhost:6379"}
	if addr, ok := cfg.Redis["addr"].(string); ok && addr != "" {
		opts.Addr = addr
	}
	if pw, ok := cfg.Redis["password"].(string); ok {
		opts.Password = pw
	}
	if db, ok := cfg.Redis["db"].(int); ok {
		opts.DB = db
	}
	rc := redis.NewClient(opts)
	return &RedisSessionStore{rc: rc, prefix: "rag:sess:", ttl: ttl}, nil
}

func (s *RedisSessionStore) idxKey() string           { return s.prefix + "idx" }
func (s *RedisSessionStore) sessKey(id string) string { return s.prefix + "session:" + id }

var sessionSetScript = redis.NewScript(`
local sess_key = KEYS[1]
local idx_key = KEYS[2]
redis.call('HSET', sess_key, 'id', ARGV[1], 'created_at', ARGV[2], 'messages', ARGV[3])
redis.call('EXPIRE', sess_key, tonumber(ARGV[4]))
redis.call('ZADD', idx_key, ARGV[2], ARGV[1])
return 1`)

var sessionDeleteScript = redis.NewScript(`
local sess_key = KEYS[1]
local idx_key = KEYS[2]
redis.call('DEL', sess_key)
redis.call('ZREM', idx_key, ARGV[1])
return 1`)

var sessionCleanScript = redis.NewScript(`
local idx_key = KEYS[1]
local prefix = ARGV[1]
local keep = tonumber(ARGV[2])
local total = redis.call('ZCARD', idx_key)
if total <= keep then return 0 end
local rem = total - keep
local ids = redis.call('ZRANGE', idx_key, 0, rem - 1)
for i, id in ipairs(ids) do
  redis.call('ZREM', idx_key, id)
  redis.call('DEL', prefix .. 'session:' .. id)
end
return rem`)

func (s *RedisSessionStore) Create() *Session {
	ctx := context.Background()
	sess := &Session{ID: newID(), CreatedAt: time.Now(), Messages: []ChatMessage{}}
	msgs, _ := json.Marshal(sess.Messages)
	_ = sessionSetScript.Run(ctx, s.rc, []string{s.sessKey(sess.ID), s.idxKey()},
		sess.ID, sess.CreatedAt.Unix(), string(msgs), int64(s.ttl/time.Second)).Err()
	return sess
}

func (s *RedisSessionStore) Ensure(id string) *Session {
	if sess, ok := s.Get(id); ok {
		return sess
	}
	ctx := context.Background()
	sess := &Session{ID: id, CreatedAt: time.Now(), Messages: []ChatMessage{}}
	msgs, _ := json.Marshal(sess.Messages)
	_ = sessionSetScript.Run(ctx, s.rc, []string{s.sessKey(id), s.idxKey()},
		sess.ID, sess.CreatedAt.Unix(), string(msgs), int64(s.ttl/time.Second)).Err()
	return sess
}

func (s *RedisSessionStore) Get(id string) (*Session, bool) {
	ctx := context.Background()
	m, err := s.rc.HGetAll(ctx, s.sessKey(id)).Result()
	if err != nil || len(m) == 0 {
		return nil, false
	}
	sess := &Session{ID: m["id"], Messages: []ChatMessage{}}
	if ts := m["created_at"]; ts != "" {
		var sec int64
		if _, perr := fmt.Sscan(ts, &sec); perr == nil {
			sess.CreatedAt = time.Unix(sec, 0)
		}
	}
	if js := m["messages"]; js != "" {
		_ = json.Unmarshal([]byte(js), &sess.Messages)
	}
	return sess, true
}

func (s *RedisSessionStore) Delete(id string) bool {
	ctx := context.Background()
	err := sessionDeleteScript.Run(ctx, s.rc, []string{s.sessKey(id), s.idxKey()}, id).Err()
	return err == nil
}

func (s *RedisSessionStore) List() []*Session {
	return s.ListRange(0, 100)
}

func (s *RedisSessionStore) AddMessage(id string, msg ChatMessage) bool {
	st, ok := s.Get(id)
	if !ok || st == nil {
		return false
	}
	st.Messages = append(st.Messages, msg)
	msgs, _ := json.Marshal(st.Messages)
	ctx := context.Background()
	err := sessionSetScript.Run(ctx, s.rc, []string{s.sessKey(id), s.idxKey()},
		st.ID, st.CreatedAt.Unix(), string(msgs), int64(s.ttl/time.Second)).Err()
	return err == nil
}

// ListRange returns sessions from offset with limit (by recency desc)
func (s *RedisSessionStore) ListRange(offset, limit int) []*Session {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*Session{}
	}
	ctx := context.Background()
	ids, err := s.rc.ZRevRange(ctx, s.idxKey(), int64(offset), int64(offset+limit-1)).Result()
	if err != nil || len(ids) == 0 {
		return []*Session{}
	}
	res := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if st, ok := s.Get(id); ok && st != nil {
			res = append(res, st)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

// Clean keeps only the top max sessions by recency.
func (s *RedisSessionStore) Clean(max int) error {
	if max <= 0 {
		return nil
	}
	ctx := context.Background()
	return sessionCleanScript.Run(ctx, s.rc, []string{s.idxKey()}, s.prefix, max).Err()
}
