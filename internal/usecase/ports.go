package usecase

import (
	"context"
	"math/big"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

// IdentityRepository defines persistence/lookup for linked identities.
type IdentityRepository interface {
	Get(ctx context.Context, walletAddress string) (domain.LinkedIdentity, error)
	Upsert(ctx context.Context, patch domain.IdentityPatch) error
}

// ContentAnchor stores a metadata payload and returns a stable content
// reference. Resolution back to bytes is delegated to the external gateway.
type ContentAnchor interface {
	Store(ctx context.Context, payload []byte) (string, error)
}

// ChainCommitter submits writes against the fixed roast contract and awaits
// their confirmation. Every write path shares the same submit/await pair.
type ChainCommitter interface {
	Submit(ctx context.Context, method string, value *big.Int, args ...any) (domain.TxHandle, error)
	AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.Receipt, error)
	ReadBigInt(ctx context.Context, method string, args ...any) (*big.Int, error)
}

// RoastGenerator is the AI completion black box. Single attempt, no retry.
type RoastGenerator interface {
	Generate(ctx context.Context, freeform string, subjectHandle string) (string, error)
}

// PriceQuoter fetches the fiat quote for the chain's native coin.
type PriceQuoter interface {
	Quote(ctx context.Context) (domain.PriceQuote, error)
}

// FeedSource is the external indexing source backing the feed: ordered
// primary records plus batch identity display lookups.
type FeedSource interface {
	Tokens(ctx context.Context, limit, offset int) ([]domain.Token, error)
	Profiles(ctx context.Context, addresses []string) ([]domain.Profile, error)
}

// MintSignal publishes confirmed mints to interested subscribers.
type MintSignal interface {
	PublishMinted(ctx context.Context, ev roasted.MintEvent) error
}

// Notifier surfaces transient, auto-dismissing notices to the user.
type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}
