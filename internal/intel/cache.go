package intel

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/akfldk1028/KAT-sub000/internal/metrics"
)

// ReportCache 신고 조회 결과 캐시 인터페이스
type ReportCache interface {
	Get(ctx context.Context, identType, canonical string) (Report, bool)
	Set(ctx context.Context, identType, canonical string, rep Report)
}

func cacheKey(identType, canonical string) string {
	sum := md5.Sum([]byte(identType + ":" + canonical))
	return fmt.Sprintf("intel:report:%x", sum)
}

// memoryEntry 메모리 캐시 항목
type memoryEntry struct {
	report    Report
	expiresAt time.Time
}

// MemoryReportCache 메모리 기반 신고 캐시 (TTL + 크기 제한)
type MemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxSize int
	ttl     time.Duration
	done    chan struct{}
}

// NewMemoryReportCache 메모리 캐시 생성. 백그라운드 정리 고루틴을 시작한다.
func NewMemoryReportCache(maxSize int, ttl time.Duration) *MemoryReportCache {
	c := &MemoryReportCache{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.cleanupRoutine()
	return c
}

// Get 캐시 조회
func (c *MemoryReportCache) Get(_ context.Context, identType, canonical string) (Report, bool) {
	key := cacheKey(identType, canonical)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		metrics.RecordCacheMiss("memory")
		return Report{}, false
	}
	metrics.RecordCacheHit("memory")
	return entry.report, true
}

// Set 캐시 저장. 크기 초과 시 가장 오래된 항목을 제거한다.
func (c *MemoryReportCache) Set(_ context.Context, identType, canonical string, rep Report) {
	key := cacheKey(identType, canonical)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = memoryEntry{report: rep, expiresAt: time.Now().Add(c.ttl)}
}

// Close 정리 고루틴 종료
func (c *MemoryReportCache) Close() {
	close(c.done)
}

func (c *MemoryReportCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryReportCache) cleanupRoutine() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// RedisReportCache Redis 기반 신고 캐시
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache Redis 캐시 생성. 연결 실패 시 nil을 반환한다.
func NewRedisReportCache(addr, password string, db int, ttl time.Duration) *RedisReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis 캐시 연결 실패, 비활성화: %v", err)
		client.Close()
		return nil
	}
	return &RedisReportCache{client: client, ttl: ttl}
}

// Get 캐시 조회
func (c *RedisReportCache) Get(ctx context.Context, identType, canonical string) (Report, bool) {
	raw, err := c.client.Get(ctx, cacheKey(identType, canonical)).Result()
	if err != nil {
		metrics.RecordCacheMiss("redis")
		return Report{}, false
	}
	var rep Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		metrics.RecordCacheMiss("redis")
		return Report{}, false
	}
	metrics.RecordCacheHit("redis")
	return rep, true
}

// Set 캐시 저장
func (c *RedisReportCache) Set(ctx context.Context, identType, canonical string, rep Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(identType, canonical), raw, c.ttl).Err(); err != nil {
		log.Printf("[WARN] Redis 캐시 저장 실패: %v", err)
	}
}

// Close Redis 연결 종료
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// TieredReportCache 메모리 1차 + Redis 2차 캐시
type TieredReportCache struct {
	memory *MemoryReportCache
	redis  *RedisReportCache
}

// NewTieredReportCache 2단 캐시 생성. redis는 nil일 수 있다.
func NewTieredReportCache(memory *MemoryReportCache, rd *RedisReportCache) *TieredReportCache {
	return &TieredReportCache{memory: memory, redis: rd}
}

// Get 메모리 우선 조회, 미스 시 Redis 조회 후 메모리에 승격
func (c *TieredReportCache) Get(ctx context.Context, identType, canonical string) (Report, bool) {
	if rep, ok := c.memory.Get(ctx, identType, canonical); ok {
		return rep, true
	}
	if c.redis == nil {
		return Report{}, false
	}
	rep, ok := c.redis.Get(ctx, identType, canonical)
	if !ok {
		return Report{}, false
	}
	c.memory.Set(ctx, identType, canonical, rep)
	return rep, true
}

// Set 양쪽 캐시에 저장
func (c *TieredReportCache) Set(ctx context.Context, identType, canonical string, rep Report) {
	c.memory.Set(ctx, identType, canonical, rep)
	if c.redis != nil {
		c.redis.Set(ctx, identType, canonical, rep)
	}
}
