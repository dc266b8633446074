package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// BraveEndpoint è l'API web di Brave Search
const BraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider cerca tramite l'API di Brave Search
type BraveProvider struct {
	endpoint string
	client   *resty.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBraveProvider crea un provider autenticato con apiKey
func NewBraveProvider(endpoint, apiKey string, timeout time.Duration) *BraveProvider {
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	return &BraveProvider{
		endpoint: endpoint,
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json").
			SetHeader("X-Subscription-Token", apiKey),
	}
}

func (p *BraveProvider) Name() string { return "brave" }

func (p *BraveProvider) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	var out braveResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&out).
		Get(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("brave API returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	results := make([]SearchResult, 0, len(out.Web.Results))
	for _, r := range out.Web.Results {
		if len(results) == count {
			break
		}
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}
	return results, nil
}
