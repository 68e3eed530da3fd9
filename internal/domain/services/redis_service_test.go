package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prima-sync-service/internal/domain/models"
)

func newTestRedis(t *testing.T) (InterfaceRedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisServiceWithClient(client), mr
}

func TestRedisSetGetDelete(t *testing.T) {
	svc, _ := newTestRedis(t)
	require.NoError(t, svc.Ping())

	require.NoError(t, svc.Set("prima_sync:test", map[string]int{"a": 1}, time.Minute))
	var got map[string]int
	require.NoError(t, svc.Get("prima_sync:test", &got))
	assert.Equal(t, map[string]int{"a": 1}, got)

	require.NoError(t, svc.Delete("prima_sync:test"))
	assert.ErrorIs(t, svc.Get("prima_sync:test", &got), redis.Nil)
}

func TestRedisBatchProgress(t *testing.T) {
	svc, mr := newTestRedis(t)

	missing, err := svc.GetBatchProgress(testFormID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	progress := &models.BatchProgress{
		FormID:     testFormID,
		Offset:     10,
		Processed:  12,
		Total:      12,
		NextOffset: 12,
		Done:       true,
		Statuses:   map[models.SyncStatus]int{models.SyncStatusFound: 1, models.SyncStatusNotFound: 1},
	}
	require.NoError(t, svc.SaveBatchProgress(progress))
	assert.True(t, mr.Exists("prima_sync:batch_progress:7"))
	assert.Equal(t, BatchProgressTTL, mr.TTL("prima_sync:batch_progress:7"))

	got, err := svc.GetBatchProgress(testFormID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Processed)
	assert.True(t, got.Done)
	assert.Equal(t, 1, got.Statuses[models.SyncStatusFound])
}
