package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/usecase"
)

const tokensQuery = `query RoastTokens($collection: String!, $limit: Int!, $offset: Int!) {
  tokens(
    where: { asset: $collection }
    orderBy: "createdTimestamp"
    orderDirection: "desc"
    limit: $limit
    offset: $offset
  ) {
    id
    tokenId
    formattedTokenId
    name
    description
    createdTimestamp
    attributes {
      key
      value
      attributeType
    }
  }
}`

const profilesQuery = `query Profiles($ids: [String!]!) {
  profiles(where: { id_in: $ids }) {
    id
    name
  }
}`

// IndexerGateway queries the external GraphQL indexer for minted tokens and
// identity display records. Token pages are cached briefly in memcached so a
// busy feed doesn't hammer the indexer; profiles are cached longer in-process
// since display names change rarely.
type IndexerGateway struct {
	endpoint   string
	collection string
	httpClient *http.Client
	mc         *memcache.Client
	profiles   *cache.Cache
}

func NewIndexerGateway(endpoint, collection string, mc *memcache.Client) *IndexerGateway {
	return &IndexerGateway{
		endpoint:   endpoint,
		collection: collection,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		mc:         mc,
		profiles:   cache.New(10*time.Minute, 15*time.Minute),
	}
}

func (g *IndexerGateway) Tokens(ctx context.Context, limit, offset int) ([]domain.Token, error) {
	cacheKey := fmt.Sprintf("roasted:tokens:%016x",
		xxh3.HashString(fmt.Sprintf("%s:%d:%d", g.collection, limit, offset)))

	if g.mc != nil {
		if item, err := g.mc.Get(cacheKey); err == nil {
			var tokens []domain.Token
			if err := json.Unmarshal(item.Value, &tokens); err == nil {
				return tokens, nil
			}
		}
	}

	var result struct {
		Tokens []domain.Token `json:"tokens"`
	}
	err := g.query(ctx, tokensQuery, map[string]any{
		"collection": g.collection,
		"limit":      limit,
		"offset":     offset,
	}, &result)
	if err != nil {
		return nil, domain.ExternalServiceError{Service: "indexer", Err: err}
	}

	if g.mc != nil {
		if payload, err := json.Marshal(result.Tokens); err == nil {
			g.mc.Set(&memcache.Item{Key: cacheKey, Value: payload, Expiration: 30})
		}
	}

	return result.Tokens, nil
}

func (g *IndexerGateway) Profiles(ctx context.Context, addresses []string) ([]domain.Profile, error) {
	resolved := make([]domain.Profile, 0, len(addresses))
	remaining := []string{}

	for _, addr := range addresses {
		if cached, found := g.profiles.Get(addr); found {
			resolved = append(resolved, cached.(domain.Profile))
		} else {
			remaining = append(remaining, addr)
		}
	}

	if len(remaining) == 0 {
		return resolved, nil
	}

	var result struct {
		Profiles []domain.Profile `json:"profiles"`
	}
	err := g.query(ctx, profilesQuery, map[string]any{"ids": remaining}, &result)
	if err != nil {
		return nil, domain.ExternalServiceError{Service: "indexer", Err: err}
	}

	for _, profile := range result.Profiles {
		g.profiles.Set(profile.ID, profile, cache.DefaultExpiration)
		resolved = append(resolved, profile)
	}

	return resolved, nil
}

func (g *IndexerGateway) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "graphql request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("indexer returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "failed to decode graphql response")
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("indexer error: %s", envelope.Errors[0].Message)
	}

	return json.Unmarshal(envelope.Data, out)
}

var _ usecase.FeedSource = (*IndexerGateway)(nil)
