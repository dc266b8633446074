package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/biodoia/goleapsocial/pkg/cache"
)

// BenchmarkCacheGet misura le performance di lettura
func BenchmarkCacheGet(b *testing.B) {
	c := cache.NewMemoryCache(1000, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = c.Set(ctx, cache.HashKey("duckduckgo", fmt.Sprintf("query-%d", i), 5), []byte("results"), 0)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, cache.HashKey("duckduckgo", fmt.Sprintf("query-%d", i%1000), 5))
	}
}

// BenchmarkCacheSetEvicting misura le scritture con eviction LRU attiva
func BenchmarkCacheSetEvicting(b *testing.B) {
	c := cache.NewMemoryCache(256, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()
	value := []byte("Search results for: go (via duckduckgo)")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, fmt.Sprintf("key-%d", i), value, 0)
	}
}

// BenchmarkCacheConcurrent testa letture e scritture concorrenti
func BenchmarkCacheConcurrent(b *testing.B) {
	c := cache.NewMemoryCache(512, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%100)
			if i%4 == 0 {
				_ = c.Set(ctx, key, []byte("value"), 0)
			} else {
				_, _ = c.Get(ctx, key)
			}
			i++
		}
	})
}
