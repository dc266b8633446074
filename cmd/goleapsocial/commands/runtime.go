package commands

import (
	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/social"
	"github.com/biodoia/goleapsocial/internal/stats"
	"github.com/biodoia/goleapsocial/pkg/cache"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/rs/zerolog/log"
)

// runtime raccoglie le dipendenze condivise tra le esecuzioni
type runtime struct {
	runner    *social.Runner
	metrics   *stats.Metrics
	collector *stats.Collector
	cache     cache.Cache
}

// newRuntime costruisce runner, metriche e cache; un cache non raggiungibile
// non blocca l'avvio, la ricerca procede senza
func newRuntime(cfg *config.Config, observers ...chaining.Observer) *runtime {
	rt := &runtime{
		metrics:   stats.NewMetrics("goleapsocial"),
		collector: stats.NewCollector(),
	}

	c, err := cache.New(cfg.Cache, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Str("type", cfg.Cache.Type).Msg("Search cache unavailable, continuing without it")
	} else if c != nil {
		rt.cache = c
		log.Info().Str("type", cfg.Cache.Type).Dur("ttl", cfg.Cache.TTL).Msg("Search cache enabled")
	}

	opts := []social.Option{
		social.WithMetrics(rt.metrics),
		social.WithObserver(rt.collector),
	}
	if rt.cache != nil {
		opts = append(opts, social.WithCache(rt.cache))
	}
	for _, o := range observers {
		opts = append(opts, social.WithObserver(o))
	}

	rt.runner = social.NewRunner(cfg, opts...)
	return rt
}

// Close rilascia il cache
func (rt *runtime) Close() {
	if rt.cache == nil {
		return
	}
	if err := rt.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close search cache")
	}
}
