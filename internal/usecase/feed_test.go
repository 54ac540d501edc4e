package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

func roastToken(id string, roaster, roastee string) domain.Token {
	return domain.Token{
		ID:      id,
		TokenID: id,
		Name:    "Roast NFT",
		Attributes: []roasted.Attribute{
			{Key: roasted.AttrRoaster, Value: roaster, Type: roasted.AttributeTypeString},
			{Key: roasted.AttrRoastee, Value: roastee, Type: roasted.AttributeTypeString},
			{Key: roasted.AttrRoast, Value: "text", Type: roasted.AttributeTypeString},
		},
	}
}

func TestFeedJoinResolvesKnownLeavesUnknownNil(t *testing.T) {
	addrA := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	source := &mockSource{
		tokens:   []domain.Token{roastToken("1", addrA, addrB)},
		profiles: []domain.Profile{{ID: addrA, Name: "alice"}},
	}
	uc := NewFeedUsecase(source)

	page, err := uc.FetchPage(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, expected 1", len(page.Items))
	}
	item := page.Items[0]
	if item.RoasterHandle == nil {
		t.Fatal("expected roaster handle resolved")
	}
	if want := "alice#aaaa"; *item.RoasterHandle != want {
		t.Errorf("roaster handle = %q, expected %q", *item.RoasterHandle, want)
	}
	if item.RoasteeHandle != nil {
		t.Errorf("roastee handle = %q, expected unresolved nil", *item.RoasteeHandle)
	}
}

func TestFeedDeduplicatesAddressLookups(t *testing.T) {
	addr := "0xCcccCCCCccccCCCCccccCCCCccccCCCCccccCCCC"
	tokens := make([]domain.Token, 5)
	for i := range tokens {
		tokens[i] = roastToken(fmt.Sprint(i), addr, addr)
	}
	source := &mockSource{tokens: tokens}
	uc := NewFeedUsecase(source)

	if _, err := uc.FetchPage(context.Background(), 10, 0); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(source.lookups) != 1 {
		t.Fatalf("profile lookups = %d, expected 1 batch", len(source.lookups))
	}
	if len(source.lookups[0]) != 1 {
		t.Errorf("looked up %v, expected one lowercased address", source.lookups[0])
	}
	if source.lookups[0][0] != "0xcccccccccccccccccccccccccccccccccccccccc" {
		t.Errorf("address not lowercased: %s", source.lookups[0][0])
	}
}

func TestFeedHasMore(t *testing.T) {
	addr := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	full := make([]domain.Token, 10)
	for i := range full {
		full[i] = roastToken(fmt.Sprint(i), addr, addr)
	}
	source := &mockSource{tokens: full}
	uc := NewFeedUsecase(source)

	page, err := uc.FetchPage(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !page.HasMore {
		t.Error("full page of 10 must report hasMore")
	}

	source.tokens = full[:4]
	page, err = uc.FetchPage(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.HasMore {
		t.Error("short page of 4 must not report hasMore")
	}
}

func TestFeedMalformedProfileIDIsJoinMiss(t *testing.T) {
	addrA := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	source := &mockSource{
		tokens: []domain.Token{roastToken("1", addrA, addrB)},
		profiles: []domain.Profile{
			{ID: "0xab", Name: "mallory"},
			{ID: addrA, Name: "alice"},
		},
	}
	uc := NewFeedUsecase(source)

	page, err := uc.FetchPage(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("a malformed profile record must not fail the page: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, expected 1", len(page.Items))
	}
	item := page.Items[0]
	if item.RoasterHandle == nil || *item.RoasterHandle != "alice#aaaa" {
		t.Errorf("well-formed profile must still resolve, got %v", item.RoasterHandle)
	}
	if item.RoasteeHandle != nil {
		t.Errorf("malformed profile id must be a join miss, got %q", *item.RoasteeHandle)
	}
}

func TestFeedProfileFailureDegradesToUnjoined(t *testing.T) {
	addr := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	source := &mockSource{
		tokens:      []domain.Token{roastToken("1", addr, addr)},
		profilesErr: errors.New("indexer unavailable"),
	}
	uc := NewFeedUsecase(source)

	page, err := uc.FetchPage(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("profile failure must not fail the page: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, expected 1", len(page.Items))
	}
	if page.Items[0].RoasterHandle != nil || page.Items[0].RoasteeHandle != nil {
		t.Error("degraded page must carry no resolved handles")
	}
}

func TestFeedTokensFailureFailsPage(t *testing.T) {
	source := &mockSource{tokensErr: errors.New("indexer down")}
	uc := NewFeedUsecase(source)

	if _, err := uc.FetchPage(context.Background(), 10, 0); err == nil {
		t.Fatal("primary fetch failure must fail the page")
	}
}

func TestFeedSkipsProfilePhaseWhenNoAddresses(t *testing.T) {
	source := &mockSource{
		tokens: []domain.Token{{ID: "1", Name: "Roast NFT"}},
	}
	uc := NewFeedUsecase(source)

	if _, err := uc.FetchPage(context.Background(), 10, 0); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(source.lookups) != 0 {
		t.Errorf("profile lookups = %d, expected none for attribute-less page", len(source.lookups))
	}
}

func TestFeedRejectsBadPaging(t *testing.T) {
	uc := NewFeedUsecase(&mockSource{})
	if _, err := uc.FetchPage(context.Background(), 0, 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("limit 0: expected validation error, got %v", err)
	}
	if _, err := uc.FetchPage(context.Background(), 10, -1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("offset -1: expected validation error, got %v", err)
	}
}
