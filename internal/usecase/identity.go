package usecase

import (
	"context"
	"errors"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

// IdentityUsecase reads and merge-writes wallet-to-identity link records.
type IdentityUsecase struct {
	repo IdentityRepository
}

func NewIdentityUsecase(repo IdentityRepository) *IdentityUsecase {
	return &IdentityUsecase{repo: repo}
}

// Lookup fetches the link record for a wallet. The address is validated
// before any storage access and lowercased so case variants resolve to the
// same record. A missing record is an explicit absent state.
func (uc *IdentityUsecase) Lookup(ctx context.Context, walletAddress string) (domain.IdentityLookup, error) {
	normalized, ok := roasted.NormalizeAddress(walletAddress)
	if !ok {
		return domain.IdentityLookup{}, domain.ValidationError{
			Field:  "address",
			Reason: "invalid wallet address format",
		}
	}

	record, err := uc.repo.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.IdentityLookup{Exists: false}, nil
		}
		return domain.IdentityLookup{}, err
	}

	return domain.IdentityLookup{
		Exists:    true,
		Record:    &record,
		Roastable: record.Roastable,
	}, nil
}

// SaveIdentityInput carries a link write. Roastable defaults to true when
// omitted; Handle defaults to Username.
type SaveIdentityInput struct {
	WalletAddress    string
	ExternalID       string
	ExternalUsername string
	ExternalHandle   string
	ExternalAvatar   string
	Roastable        *bool
}

// Save merge-writes a link record keyed by the lowercased wallet address.
// Unspecified fields of an existing record are preserved.
func (uc *IdentityUsecase) Save(ctx context.Context, input SaveIdentityInput) error {
	normalized, ok := roasted.NormalizeAddress(input.WalletAddress)
	if !ok {
		return domain.ValidationError{Field: "walletAddress", Reason: "invalid wallet address format"}
	}
	if input.ExternalID == "" || input.ExternalUsername == "" {
		return domain.ValidationError{Field: "identity", Reason: "missing required fields"}
	}

	handle := input.ExternalHandle
	if handle == "" {
		handle = input.ExternalUsername
	}
	roastable := true
	if input.Roastable != nil {
		roastable = *input.Roastable
	}

	patch := domain.IdentityPatch{
		WalletAddress:    normalized,
		ExternalID:       &input.ExternalID,
		ExternalUsername: &input.ExternalUsername,
		ExternalHandle:   &handle,
		Roastable:        &roastable,
	}
	if input.ExternalAvatar != "" {
		patch.ExternalAvatarURL = &input.ExternalAvatar
	}

	return uc.repo.Upsert(ctx, patch)
}

// SetRoastPrice merge-writes only the stored roast price, leaving the link
// fields untouched.
func (uc *IdentityUsecase) SetRoastPrice(ctx context.Context, walletAddress, price string) error {
	normalized, ok := roasted.NormalizeAddress(walletAddress)
	if !ok {
		return domain.ValidationError{Field: "walletAddress", Reason: "invalid wallet address format"}
	}
	return uc.repo.Upsert(ctx, domain.IdentityPatch{
		WalletAddress: normalized,
		RoastPrice:    &price,
	})
}
