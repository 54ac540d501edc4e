package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

// FeedUsecase resolves pages of the roast feed: a primary fetch of ordered
// tokens, then one batch identity lookup for every wallet referenced by the
// page's attributes, joined back deterministically. Stateless between
// calls; each FetchPage is independent and its two phases are strictly
// sequential.
type FeedUsecase struct {
	source FeedSource
}

func NewFeedUsecase(source FeedSource) *FeedUsecase {
	return &FeedUsecase{source: source}
}

// FetchPage fetches limit tokens starting at offset, newest first, and
// enriches them with resolved handles. HasMore is derived from whether the
// primary fetch returned a full page. A primary failure fails the page; an
// identity-resolution failure degrades to an unjoined page, since handles
// are enrichment, not a required field.
func (uc *FeedUsecase) FetchPage(ctx context.Context, limit, offset int) (domain.FeedPage, error) {
	if limit <= 0 {
		return domain.FeedPage{}, domain.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if offset < 0 {
		return domain.FeedPage{}, domain.ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	tokens, err := uc.source.Tokens(ctx, limit, offset)
	if err != nil {
		return domain.FeedPage{}, err
	}

	items := make([]domain.FeedItem, 0, len(tokens))
	addressSet := make(map[string]struct{})
	for _, token := range tokens {
		item := domain.FeedItem{
			ID:               token.ID,
			TokenID:          token.TokenID,
			Name:             token.Name,
			Description:      token.Description,
			Attributes:       token.Attributes,
			CreatedTimestamp: token.CreatedTimestamp,
		}
		if value, ok := roasted.FindStringAttribute(token.Attributes, roasted.AttrRoaster); ok {
			item.RoasterAddress = strings.ToLower(value)
			addressSet[item.RoasterAddress] = struct{}{}
		}
		if value, ok := roasted.FindStringAttribute(token.Attributes, roasted.AttrRoastee); ok {
			item.RoasteeAddress = strings.ToLower(value)
			addressSet[item.RoasteeAddress] = struct{}{}
		}
		items = append(items, item)
	}

	page := domain.FeedPage{
		Items:   items,
		HasMore: len(tokens) == limit,
	}

	if len(addressSet) == 0 {
		return page, nil
	}

	addresses := make([]string, 0, len(addressSet))
	for addr := range addressSet {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	profiles, err := uc.source.Profiles(ctx, addresses)
	if err != nil {
		slog.Warn("identity resolution failed, returning unjoined page",
			slog.Int("addresses", len(addresses)),
			slog.String("error", err.Error()),
			slog.String("module", "feed"),
		)
		return page, nil
	}

	handles := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		// A profile whose id is not a wallet address cannot match any
		// attribute-derived key; treat it as unresolved.
		id, ok := roasted.NormalizeAddress(profile.ID)
		if !ok {
			continue
		}
		handles[id] = roasted.FormatHandle(profile.Name, id)
	}

	for i := range page.Items {
		if handle, ok := handles[page.Items[i].RoasterAddress]; ok {
			h := handle
			page.Items[i].RoasterHandle = &h
		}
		if handle, ok := handles[page.Items[i].RoasteeAddress]; ok {
			h := handle
			page.Items[i].RoasteeHandle = &h
		}
	}

	return page, nil
}
