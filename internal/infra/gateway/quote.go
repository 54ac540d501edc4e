package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/usecase"
)

const quoteCacheKey = "quote"

// QuoteGateway fetches the fiat quote for the chain's native coin from the
// oracle's REST endpoint. Quotes are cached for a minute; the account view
// doesn't need tick-level freshness.
type QuoteGateway struct {
	endpoint   string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewQuoteGateway(endpoint string) *QuoteGateway {
	return &QuoteGateway{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(time.Minute, 5*time.Minute),
	}
}

func (g *QuoteGateway) Quote(ctx context.Context) (domain.PriceQuote, error) {
	if cached, found := g.cache.Get(quoteCacheKey); found {
		return cached.(domain.PriceQuote), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return domain.PriceQuote{}, domain.ExternalServiceError{Service: "price oracle", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.PriceQuote{}, domain.ExternalServiceError{Service: "price oracle", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, domain.ExternalServiceError{
			Service: "price oracle",
			Err:     fmt.Errorf("oracle returned status %d", resp.StatusCode),
		}
	}

	var result struct {
		Price  float64 `json:"Price"`
		Symbol string  `json:"Symbol"`
		Time   string  `json:"Time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.PriceQuote{}, domain.ExternalServiceError{Service: "price oracle", Err: err}
	}

	quote := domain.PriceQuote{
		Price:     result.Price,
		Symbol:    result.Symbol,
		Timestamp: result.Time,
	}
	g.cache.Set(quoteCacheKey, quote, cache.DefaultExpiration)
	return quote, nil
}

var _ usecase.PriceQuoter = (*QuoteGateway)(nil)
