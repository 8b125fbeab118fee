package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

func CaseNotesKey(applicantID uuid.UUID, page, pageSize int) string {
	return fmt.Sprintf("casenotes:%s:page:%d:size:%d", applicantID, page, pageSize)
}

func CaseNotesPattern(applicantID uuid.UUID) string {
	return fmt.Sprintf("casenotes:%s:*", applicantID)
}

func DashboardKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("dashboard:stats:%s", tenantID)
}

// GetJSON decodes key into dest and reports whether it was a hit. A nil
// client is always a miss.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) {
	if rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = rdb.Set(ctx, key, data, ttl).Err()
}

func Delete(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	_ = rdb.Del(ctx, keys...).Err()
}

// InvalidatePattern deletes every key matching pattern. It walks the keyspace
// with SCAN so large keyspaces do not block the server.
func InvalidatePattern(ctx context.Context, rdb *redis.Client, pattern string) {
	if rdb == nil {
		return
	}
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = rdb.Del(ctx, keys...).Err()
	}
}
