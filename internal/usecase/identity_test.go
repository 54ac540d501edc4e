package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/roastedworld/roasted/internal/domain"
)

func TestIdentityLookupCaseVariantsHitSameRecord(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := NewIdentityUsecase(repo)

	input := SaveIdentityInput{
		WalletAddress:    "0xDdddDDDDddddDDDDddddDDDDddddDDDDddddDDDD",
		ExternalID:       "42",
		ExternalUsername: "dave",
	}
	if err := uc.Save(context.Background(), input); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, variant := range []string{
		"0xDdddDDDDddddDDDDddddDDDDddddDDDDddddDDDD",
		"0xdddddddddddddddddddddddddddddddddddddddd",
		"0xDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDD",
	} {
		lookup, err := uc.Lookup(context.Background(), variant)
		if err != nil {
			t.Fatalf("lookup %s: %v", variant, err)
		}
		if !lookup.Exists {
			t.Errorf("lookup %s: record not found", variant)
		}
	}

	for _, key := range repo.getKeys {
		if key != "0xdddddddddddddddddddddddddddddddddddddddd" {
			t.Errorf("storage accessed with non-normalized key %s", key)
		}
	}
}

func TestIdentityLookupMissingIsAbsentNotError(t *testing.T) {
	uc := NewIdentityUsecase(newMockIdentityRepo())

	lookup, err := uc.Lookup(context.Background(), "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if err != nil {
		t.Fatalf("missing record must not be an error: %v", err)
	}
	if lookup.Exists {
		t.Error("expected absent state")
	}
	if lookup.Record != nil {
		t.Error("absent lookup must carry no record")
	}
}

func TestIdentityLookupRejectsBadAddressBeforeStorage(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := NewIdentityUsecase(repo)

	_, err := uc.Lookup(context.Background(), "0xZZ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.getKeys) != 0 {
		t.Error("invalid address must not reach storage")
	}
}

func TestIdentitySaveDefaults(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := NewIdentityUsecase(repo)

	err := uc.Save(context.Background(), SaveIdentityInput{
		WalletAddress:    "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ExternalID:       "7",
		ExternalUsername: "frank",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	record := repo.records["0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"]
	if record.ExternalHandle != "frank" {
		t.Errorf("handle = %q, expected to default to username", record.ExternalHandle)
	}
	if !record.Roastable {
		t.Error("roastable must default to true")
	}
}

func TestIdentitySaveRequiresIDAndUsername(t *testing.T) {
	uc := NewIdentityUsecase(newMockIdentityRepo())
	err := uc.Save(context.Background(), SaveIdentityInput{
		WalletAddress: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ExternalID:    "7",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing username, got %v", err)
	}
}

func TestIdentitySaveIdempotent(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := NewIdentityUsecase(repo)

	addr := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	price := "0.05"
	input := SaveIdentityInput{
		WalletAddress:    addr,
		ExternalID:       "7",
		ExternalUsername: "frank",
		ExternalHandle:   "frankly",
		ExternalAvatar:   "https://example.com/a.png",
	}

	if err := uc.Save(context.Background(), input); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := uc.SetRoastPrice(context.Background(), addr, price); err != nil {
		t.Fatalf("set price: %v", err)
	}
	first := repo.records[addr]

	// Writing the same fields again must leave the stored state unchanged.
	if err := uc.Save(context.Background(), input); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second := repo.records[addr]

	if first.WalletAddress != second.WalletAddress ||
		first.ExternalID != second.ExternalID ||
		first.ExternalUsername != second.ExternalUsername ||
		first.ExternalHandle != second.ExternalHandle ||
		first.ExternalAvatarURL != second.ExternalAvatarURL ||
		first.Roastable != second.Roastable {
		t.Errorf("repeated save changed the record:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if second.RoastPrice == nil || *second.RoastPrice != price {
		t.Errorf("repeated save clobbered the stored price: %v", second.RoastPrice)
	}
}

func TestIdentitySetRoastPricePreservesLink(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := NewIdentityUsecase(repo)

	addr := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := uc.Save(context.Background(), SaveIdentityInput{
		WalletAddress:    addr,
		ExternalID:       "7",
		ExternalUsername: "frank",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := uc.SetRoastPrice(context.Background(), addr, "0.05"); err != nil {
		t.Fatalf("set price: %v", err)
	}

	record := repo.records[addr]
	if record.RoastPrice == nil || *record.RoastPrice != "0.05" {
		t.Errorf("roast price = %v, expected 0.05", record.RoastPrice)
	}
	if record.ExternalUsername != "frank" {
		t.Error("merge-write must not clobber unrelated link fields")
	}
}
