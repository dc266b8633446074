package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biodoia/goleapsocial/pkg/cache"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/rs/zerolog/log"
)

const (
	SearchToolName = "web_search"

	defaultSearchCount   = 5
	maxSearchCount       = 10
	defaultSearchTimeout = 30 * time.Second

	searchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// SearchErrorPrefix marca una ricerca fallita così che l'agente possa tenerne conto
	SearchErrorPrefix = "[SEARCH ERROR]"
	// MockSearchPrefix marca le risposte prodotte senza backend di ricerca
	MockSearchPrefix = "[MOCK SEARCH]"
)

var (
	ErrSearchDisabled   = errors.New("web search disabled")
	ErrMissingSearchKey = errors.New("search provider requires an API key")
	ErrUnknownProvider  = errors.New("unknown search provider")
)

// SearchResult è un singolo risultato di ricerca
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchProvider astrae un backend di ricerca web
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
}

// SearchResolution è l'esito della scelta del backend di ricerca. Se Degraded
// è true Provider è nil e il tool risponde con un mock etichettato.
type SearchResolution struct {
	Provider SearchProvider
	Degraded bool
	Reason   error
}

// ResolveSearch sceglie il backend configurato senza chiamate di rete
func ResolveSearch(cfg config.SearchConfig) SearchResolution {
	switch cfg.Provider {
	case "", "duckduckgo":
		return SearchResolution{Provider: NewDuckDuckGoProvider(DuckDuckGoEndpoint, cfg.Timeout)}
	case "brave":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return SearchResolution{Degraded: true, Reason: ErrMissingSearchKey}
		}
		return SearchResolution{Provider: NewBraveProvider(BraveEndpoint, cfg.APIKey, cfg.Timeout)}
	case "none":
		return SearchResolution{Degraded: true, Reason: ErrSearchDisabled}
	default:
		return SearchResolution{Degraded: true, Reason: fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)}
	}
}

// SearchOptions configura il tool web_search
type SearchOptions struct {
	MaxResults int
	Timeout    time.Duration
	Cache      cache.Cache
	CacheTTL   time.Duration
}

// NewSearchTool costruisce la capability web_search sul backend risolto.
// I fallimenti del provider non diventano mai errori: tornano come testo
// marcato con SearchErrorPrefix e l'esecuzione prosegue.
func NewSearchTool(res SearchResolution, opts SearchOptions) Tool {
	count := opts.MaxResults
	if count < 1 {
		count = defaultSearchCount
	}
	if count > maxSearchCount {
		count = maxSearchCount
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	fn := func(ctx context.Context, query string) string {
		query = strings.TrimSpace(query)
		if query == "" {
			return SearchErrorPrefix + " query is required"
		}

		if res.Degraded || res.Provider == nil {
			return MockSearchResult(query)
		}

		key := cache.HashKey(res.Provider.Name(), query, count)
		if opts.Cache != nil {
			if cached, err := opts.Cache.Get(ctx, key); err == nil {
				log.Debug().Str("query", query).Msg("web_search cache hit")
				return string(cached)
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				log.Warn().Err(err).Msg("web_search cache read failed")
			}
		}

		searchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		results, err := res.Provider.Search(searchCtx, query, count)
		if err != nil {
			log.Warn().
				Err(err).
				Str("provider", res.Provider.Name()).
				Str("query", query).
				Msg("web_search provider failed")
			return fmt.Sprintf("%s %s: %v", SearchErrorPrefix, res.Provider.Name(), err)
		}

		formatted := FormatSearchResults(query, res.Provider.Name(), results)

		if opts.Cache != nil {
			if err := opts.Cache.Set(ctx, key, []byte(formatted), opts.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("web_search cache write failed")
			}
		}

		return formatted
	}

	return Tool{
		Name:         SearchToolName,
		Description:  "Search the web for current information. Returns titles, URLs, and snippets from search results.",
		Argument:     "query",
		ArgumentHelp: "Search query string.",
		Fn:           fn,
	}
}

// MockSearchResult è la risposta del tool quando nessun backend è disponibile
func MockSearchResult(query string) string {
	return fmt.Sprintf("%s No search available.\nQuery: %s", MockSearchPrefix, query)
}

// FormatSearchResults formatta i risultati come elenco numerato
func FormatSearchResults(query, provider string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Search results for: %s (via %s)\n\n", query, provider))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. %s\n   %s\n", i+1, r.Title, r.URL))
		if r.Snippet != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", r.Snippet))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
