package redcap

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redcap-client/internal/common/logger"
)

func newCachedTestClient(t *testing.T, apiCalls *atomic.Int32) (*CachedClient, *miniredis.Miniredis) {
	t.Helper()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("content") {
		case "metadata":
			w.Write([]byte(testDictionaryJSON))
		case "formEventMapping":
			w.Write([]byte(`[{"arm_num": 1, "unique_event_name": "event_1_arm_1", "form": "enrollment"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedClient(client, rdb, time.Minute, logger.NewNop()), mr
}

func TestCachedClient_DictionaryCachedAfterFirstFetch(t *testing.T) {
	var apiCalls atomic.Int32
	cached, mr := newCachedTestClient(t, &apiCalls)
	ctx := context.Background()

	first, err := cached.DataDictionary(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int32(1), apiCalls.Load())
	assert.True(t, mr.Exists(cacheKeyDictionary))

	second, err := cached.DataDictionary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), apiCalls.Load(), "second read must come from cache")
}

func TestCachedClient_MappingsCached(t *testing.T) {
	var apiCalls atomic.Int32
	cached, _ := newCachedTestClient(t, &apiCalls)
	ctx := context.Background()

	_, err := cached.InstrumentEventMappings(ctx)
	require.NoError(t, err)
	_, err = cached.InstrumentEventMappings(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestCachedClient_EntriesCarryTTL(t *testing.T) {
	var apiCalls atomic.Int32
	cached, mr := newCachedTestClient(t, &apiCalls)

	_, err := cached.DataDictionary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Minute, mr.TTL(cacheKeyDictionary))
}

func TestCachedClient_Invalidate(t *testing.T) {
	var apiCalls atomic.Int32
	cached, mr := newCachedTestClient(t, &apiCalls)
	ctx := context.Background()

	_, err := cached.DataDictionary(ctx)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx))
	assert.False(t, mr.Exists(cacheKeyDictionary))

	_, err = cached.DataDictionary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), apiCalls.Load())
}

func TestCachedClient_CorruptEntryFallsThrough(t *testing.T) {
	var apiCalls atomic.Int32
	cached, mr := newCachedTestClient(t, &apiCalls)

	require.NoError(t, mr.Set(cacheKeyDictionary, "{not json"))

	defs, err := cached.DataDictionary(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestCachedClient_CacheDownDegradesToAPI(t *testing.T) {
	var apiCalls atomic.Int32
	cached, mr := newCachedTestClient(t, &apiCalls)
	mr.Close()

	defs, err := cached.DataDictionary(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestCachedClient_RecordsNeverCached(t *testing.T) {
	var apiCalls atomic.Int32
	cached, _ := newCachedTestClient(t, &apiCalls)
	ctx := context.Background()

	_, err := cached.Records(ctx, RecordOptions{})
	require.NoError(t, err)
	_, err = cached.Records(ctx, RecordOptions{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), apiCalls.Load())
}
