package tools

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DuckDuckGoEndpoint è la pagina HTML di ricerca letta da DuckDuckGoProvider
const DuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider cerca tramite l'endpoint HTML di DuckDuckGo, senza chiave
type DuckDuckGoProvider struct {
	endpoint string
	client   *resty.Client
}

// NewDuckDuckGoProvider crea un provider per l'endpoint indicato
func NewDuckDuckGoProvider(endpoint string, timeout time.Duration) *DuckDuckGoProvider {
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	return &DuckDuckGoProvider{
		endpoint: endpoint,
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("User-Agent", searchUserAgent),
	}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("duckduckgo returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	return extractDDGResults(resp.String(), count), nil
}

var (
	ddgLinkRe    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`<a class="result__snippet[^"]*".*?>([\s\S]*?)</a>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

func extractDDGResults(body string, count int) []SearchResult {
	links := ddgLinkRe.FindAllStringSubmatch(body, count+5)
	if len(links) == 0 {
		return nil
	}
	snippets := ddgSnippetRe.FindAllStringSubmatch(body, count+5)

	results := make([]SearchResult, 0, count)
	for i := 0; i < len(links) && i < count; i++ {
		r := SearchResult{
			Title: cleanHTML(links[i][2]),
			URL:   unwrapDDGURL(links[i][1]),
		}
		if i < len(snippets) {
			r.Snippet = cleanHTML(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// unwrapDDGURL estrae la destinazione di un link di redirect DuckDuckGo (parametro uddg=)
func unwrapDDGURL(raw string) string {
	raw = html.UnescapeString(raw)
	if !strings.Contains(raw, "uddg=") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func cleanHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(s, "")))
}
