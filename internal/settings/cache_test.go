package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

type fakeSource struct {
	values map[string]string
	calls  [][]string
	err    error
}

func (f *fakeSource) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	f.calls = append(f.calls, append([]string(nil), keys...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func TestCachedStoreReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &fakeSource{values: map[string]string{"a": "1", "b": "2"}}
	cache := NewCachedStore(source, client, time.Minute, logging.Default())

	ctx := context.Background()
	values, err := cache.GetMany(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, values)
	require.Len(t, source.calls, 1)

	got, err := mr.Get("settings:a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.True(t, mr.TTL("settings:a") > 0)

	values, err = cache.GetMany(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, values)
	assert.Len(t, source.calls, 1, "fully cached read must not hit the source")

	_, err = cache.GetMany(ctx, "a", "c")
	require.NoError(t, err)
	require.Len(t, source.calls, 2)
	assert.Equal(t, []string{"c"}, source.calls[1])
}

func TestCachedStoreInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &fakeSource{values: map[string]string{"a": "1"}}
	cache := NewCachedStore(source, client, time.Minute, nil)

	ctx := context.Background()
	_, err := cache.GetMany(ctx, "a")
	require.NoError(t, err)
	source.values["a"] = "2"

	require.NoError(t, cache.Invalidate(ctx, "a"))
	values, err := cache.GetMany(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", values["a"])
}

func TestCachedStoreRedisDownFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	source := &fakeSource{values: map[string]string{"a": "1"}}
	cache := NewCachedStore(source, client, time.Minute, nil)

	values, err := cache.GetMany(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "1", values["a"])
}

func TestCachedStoreNilRedisPassesThrough(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	cache := NewCachedStore(source, nil, 0, nil)

	_, err := cache.GetMany(context.Background(), "a")
	assert.Error(t, err)
	assert.NoError(t, cache.Invalidate(context.Background(), "a"))
}
