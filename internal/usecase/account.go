package usecase

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

// Fixed tip attached to every tipRoast call, in wei (0.01 coin).
var tipValue = big.NewInt(10_000_000_000_000_000)

// AccountUsecase serves the grid owner's view: ownership derivation, the
// balance/price aggregate, and the contract write flows (price update,
// withdraw, tip) that share the committer's submit/await primitive.
type AccountUsecase struct {
	chain    ChainCommitter
	quoter   PriceQuoter
	identity IdentityRepository
}

func NewAccountUsecase(chain ChainCommitter, quoter PriceQuoter, identity IdentityRepository) *AccountUsecase {
	return &AccountUsecase{chain: chain, quoter: quoter, identity: identity}
}

// IsOwner reports whether the viewer is the wallet being viewed. Derived by
// case-normalized address equality, not a stored role.
func (uc *AccountUsecase) IsOwner(viewerWallet, subjectWallet string) bool {
	if viewerWallet == "" || subjectWallet == "" {
		return false
	}
	return strings.EqualFold(viewerWallet, subjectWallet)
}

// Refresh aggregates the owner's contract balance and roast price, both
// converted to fiat with the current quote. The two chain reads run
// concurrently and both are awaited; any individual source failing
// contributes zero to the aggregate rather than failing it.
func (uc *AccountUsecase) Refresh(ctx context.Context, ownerWallet string) (domain.AccountSummary, error) {
	owner, ok := roasted.NormalizeAddress(ownerWallet)
	if !ok {
		return domain.AccountSummary{}, domain.ValidationError{
			Field:  "address",
			Reason: "invalid wallet address format",
		}
	}

	var quote float64
	if q, err := uc.quoter.Quote(ctx); err != nil {
		slog.Warn("price quote failed, defaulting to zero",
			slog.String("error", err.Error()),
			slog.String("module", "account"),
		)
	} else {
		quote = q.Price
	}

	var balance, price *big.Int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		balance = uc.readOrZero(ctx, "userBalances", owner)
	}()
	go func() {
		defer wg.Done()
		price = uc.readOrZero(ctx, "roastPrices", owner)
	}()
	wg.Wait()

	return domain.AccountSummary{
		BalanceDisplay: quote * weiToFloat(balance),
		PriceDisplay:   quote * weiToFloat(price),
		Quote:          quote,
	}, nil
}

// UpdateRoastPrice sets the owner's on-chain roast price and mirrors the
// confirmed value into the stored link record.
func (uc *AccountUsecase) UpdateRoastPrice(ctx context.Context, ownerWallet, price string) (domain.Receipt, error) {
	owner, ok := roasted.NormalizeAddress(ownerWallet)
	if !ok {
		return domain.Receipt{}, domain.ValidationError{Field: "address", Reason: "invalid wallet address format"}
	}
	wei, ok := roasted.DecimalToWei(price)
	if !ok {
		return domain.Receipt{}, domain.ValidationError{Field: "price", Reason: "invalid price"}
	}

	receipt, err := uc.submitAndAwait(ctx, "setRoastPrice", nil, wei)
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := uc.identity.Upsert(ctx, domain.IdentityPatch{
		WalletAddress: owner,
		RoastPrice:    &price,
	}); err != nil {
		slog.Warn("stored roast price update failed",
			slog.String("wallet", owner),
			slog.String("error", err.Error()),
			slog.String("module", "account"),
		)
	}

	return receipt, nil
}

// Withdraw pays out the owner's accumulated roast earnings.
func (uc *AccountUsecase) Withdraw(ctx context.Context) (domain.Receipt, error) {
	return uc.submitAndAwait(ctx, "withdraw", nil)
}

// Tip sends the fixed tip to a minted roast.
func (uc *AccountUsecase) Tip(ctx context.Context, tokenID string) (domain.Receipt, error) {
	if tokenID == "" {
		return domain.Receipt{}, domain.ValidationError{Field: "tokenId", Reason: "missing token id"}
	}
	return uc.submitAndAwait(ctx, "tipRoast", tipValue, tokenID)
}

func (uc *AccountUsecase) submitAndAwait(ctx context.Context, method string, value *big.Int, args ...any) (domain.Receipt, error) {
	handle, err := uc.chain.Submit(ctx, method, value, args...)
	if err != nil {
		return domain.Receipt{}, err
	}
	return uc.chain.AwaitConfirmation(ctx, handle)
}

func (uc *AccountUsecase) readOrZero(ctx context.Context, method, owner string) *big.Int {
	value, err := uc.chain.ReadBigInt(ctx, method, owner)
	if err != nil {
		slog.Warn("contract read failed, defaulting to zero",
			slog.String("method", method),
			slog.String("error", err.Error()),
			slog.String("module", "account"),
		)
		return big.NewInt(0)
	}
	return value
}

var weiFloat = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func weiToFloat(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiFloat).Float64()
	return f
}
