package redis_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements the list and string commands used by the package.
// Other Cmdable methods panic on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu      sync.Mutex
	strings map[string]string
	ttls    map[string]time.Duration
	lists   map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: make(map[string]string),
		ttls:    make(map[string]time.Duration),
		lists:   make(map[string][]string),
	}
}

func toString(v any) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.strings[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.strings[key] = toString(value)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = toString(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			delete(f.strings, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) LPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.lists[key] = append([]string{toString(v)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LLen(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LRem(_ context.Context, key string, count int64, value any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := toString(value)
	list := f.lists[key]
	var removed int64
	out := list[:0:0]
	for _, v := range list {
		if v == target && (count == 0 || removed < count) {
			removed++
			continue
		}
		out = append(out, v)
	}
	f.lists[key] = out
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) LMove(_ context.Context, src, dst, srcpos, destpos string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(src, dst, srcpos, destpos)
}

func (f *fakeRedis) BLMove(ctx context.Context, src, dst, srcpos, destpos string, timeout time.Duration) *redis.StringCmd {
	f.mu.Lock()
	cmd := f.move(src, dst, srcpos, destpos)
	f.mu.Unlock()
	if cmd.Err() != redis.Nil {
		return cmd
	}
	select {
	case <-ctx.Done():
		return redis.NewStringResult("", ctx.Err())
	case <-time.After(timeout):
		return cmd
	}
}

func (f *fakeRedis) move(src, dst, srcpos, destpos string) *redis.StringCmd {
	list := f.lists[src]
	if len(list) == 0 {
		return redis.NewStringResult("", redis.Nil)
	}

	var v string
	if srcpos == "LEFT" {
		v, f.lists[src] = list[0], list[1:]
	} else {
		v, f.lists[src] = list[len(list)-1], list[:len(list)-1]
	}

	if destpos == "LEFT" {
		f.lists[dst] = append([]string{v}, f.lists[dst]...)
	} else {
		f.lists[dst] = append(f.lists[dst], v)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) list(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.lists[key])
}

func (f *fakeRedis) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// interruptingRedis cancels the dequeue context right after BLMOVE moved an
// ID. With lostReply set, the first move happens but the client sees only
// the cancellation. Get and Set honor ctx like the real client.
type interruptingRedis struct {
	*fakeRedis

	cancel    context.CancelFunc
	lostReply bool
}

func (r *interruptingRedis) BLMove(ctx context.Context, src, dst, srcpos, destpos string, timeout time.Duration) *redis.StringCmd {
	cmd := r.fakeRedis.BLMove(ctx, src, dst, srcpos, destpos, timeout)
	r.cancel()
	if r.lostReply && cmd.Err() == nil {
		r.lostReply = false
		return redis.NewStringResult("", context.Canceled)
	}
	return cmd
}

func (r *interruptingRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewStringResult("", err)
	}
	return r.fakeRedis.Get(ctx, key)
}

func (r *interruptingRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewStatusResult("", err)
	}
	return r.fakeRedis.Set(ctx, key, value, ttl)
}
