package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/rs/zerolog/log"
)

// Cache è l'interfaccia base per tutti i backend di cache
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats() CacheStats
	Close() error
}

// CacheStats contiene statistiche sul cache
type CacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Size      int64
}

// HitRate calcola il tasso di hit del cache
func (s *CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New costruisce il backend configurato; restituisce nil se il cache è disabilitato
func New(cfg config.CacheConfig, redisCfg config.RedisConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		log.Info().
			Int("max_entries", cfg.MaxEntries).
			Dur("ttl", cfg.TTL).
			Msg("Memory cache initialized")
		return NewMemoryCache(cfg.MaxEntries, cfg.TTL), nil
	case "redis":
		rc, err := NewRedisCache(redisCfg.Host, redisCfg.Password, redisCfg.DB, cfg.TTL)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("host", redisCfg.Host).
			Int("db", redisCfg.DB).
			Msg("Redis cache initialized")
		return rc, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidConfig, cfg.Type)
	}
}

// HashKey genera un hash consistente per una chiave
func HashKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		data, _ := json.Marshal(part)
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Errori comuni
var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrInvalidConfig = errors.New("invalid cache configuration")
)
