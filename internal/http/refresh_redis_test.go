package http

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionRedis cubre el subconjunto de Redis que usa el store de refresh.
type sessionRedis struct {
	mu   sync.Mutex
	keys map[string]struct{}
	sets map[string]map[string]struct{}
}

func newSessionRedis() *sessionRedis {
	return &sessionRedis{
		keys: make(map[string]struct{}),
		sets: make(map[string]map[string]struct{}),
	}
}

func (r *sessionRedis) Set(ctx context.Context, key string, _ interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = struct{}{}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (r *sessionRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.keys[k]; ok {
			delete(r.keys, k)
			n++
		}
		if _, ok := r.sets[k]; ok {
			delete(r.sets, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func (r *sessionRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sets[key] == nil {
		r.sets[key] = make(map[string]struct{})
	}
	for _, m := range members {
		r.sets[key][m.(string)] = struct{}{}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(members)))
	return cmd
}

func (r *sessionRedis) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range members {
		delete(r.sets[key], m.(string))
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(members)))
	return cmd
}

func (r *sessionRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sets[key]))
	for m := range r.sets[key] {
		out = append(out, m)
	}
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(out)
	return cmd
}

func (r *sessionRedis) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sets[key]
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(ok)
	return cmd
}

func (r *sessionRedis) sessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
