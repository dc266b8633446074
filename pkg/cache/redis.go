package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix isola le chiavi dell'applicazione nel database Redis condiviso
const keyPrefix = "goleapsocial:cache:"

// RedisCache implementa un cache distribuito usando Redis
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration

	mu    sync.Mutex
	stats CacheStats
}

// NewRedisCache crea un nuovo cache Redis e verifica la connessione
func NewRedisCache(host, password string, db int, defaultTTL time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         host,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, defaultTTL), nil
}

// NewRedisCacheFromClient usa un client già configurato
func NewRedisCacheFromClient(client *redis.Client, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, defaultTTL: defaultTTL}
}

// Get recupera un valore da Redis
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.record(func(s *CacheStats) { s.Misses++ })
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	r.record(func(s *CacheStats) { s.Hits++ })
	return val, nil
}

// Set salva un valore in Redis
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.defaultTTL
	}

	if err := r.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return err
	}

	r.record(func(s *CacheStats) {
		s.Sets++
		s.Size += int64(len(value))
	})
	return nil
}

// Delete rimuove un valore da Redis
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return err
	}

	r.record(func(s *CacheStats) { s.Deletes++ })
	return nil
}

// Clear rimuove tutte le chiavi con il prefisso dell'applicazione
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Stats restituisce le statistiche
func (r *RedisCache) Stats() CacheStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Ping verifica la connessione
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close chiude il client Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) record(fn func(*CacheStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}
