package usecase

import (
	"context"
	"math/big"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

type mockIdentityRepo struct {
	records map[string]domain.LinkedIdentity
	getErr  error
	upserts []domain.IdentityPatch
	getKeys []string
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{records: make(map[string]domain.LinkedIdentity)}
}

func (m *mockIdentityRepo) Get(ctx context.Context, walletAddress string) (domain.LinkedIdentity, error) {
	m.getKeys = append(m.getKeys, walletAddress)
	if m.getErr != nil {
		return domain.LinkedIdentity{}, m.getErr
	}
	record, ok := m.records[walletAddress]
	if !ok {
		return domain.LinkedIdentity{}, domain.NotFoundError{Resource: "identity"}
	}
	return record, nil
}

func (m *mockIdentityRepo) Upsert(ctx context.Context, patch domain.IdentityPatch) error {
	m.upserts = append(m.upserts, patch)
	record := m.records[patch.WalletAddress]
	record.WalletAddress = patch.WalletAddress
	if patch.ExternalID != nil {
		record.ExternalID = *patch.ExternalID
	}
	if patch.ExternalUsername != nil {
		record.ExternalUsername = *patch.ExternalUsername
	}
	if patch.ExternalHandle != nil {
		record.ExternalHandle = *patch.ExternalHandle
	}
	if patch.ExternalAvatarURL != nil {
		record.ExternalAvatarURL = *patch.ExternalAvatarURL
	}
	if patch.Roastable != nil {
		record.Roastable = *patch.Roastable
	}
	if patch.RoastPrice != nil {
		record.RoastPrice = patch.RoastPrice
	}
	m.records[patch.WalletAddress] = record
	return nil
}

type mockAnchor struct {
	ref    string
	err    error
	stores int
}

func (m *mockAnchor) Store(ctx context.Context, payload []byte) (string, error) {
	m.stores++
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

type chainCall struct {
	method string
	value  *big.Int
	args   []any
}

type mockChain struct {
	submits    []chainCall
	submitErr  error
	awaitErr   error
	awaited    []domain.TxHandle
	reads      []chainCall
	readValue  *big.Int
	readErr    error
	txHash     string
	awaitBlock uint64
}

func (m *mockChain) Submit(ctx context.Context, method string, value *big.Int, args ...any) (domain.TxHandle, error) {
	m.submits = append(m.submits, chainCall{method: method, value: value, args: args})
	if m.submitErr != nil {
		return "", m.submitErr
	}
	hash := m.txHash
	if hash == "" {
		hash = "0xhash"
	}
	return domain.TxHandle(hash), nil
}

func (m *mockChain) AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.Receipt, error) {
	m.awaited = append(m.awaited, handle)
	if m.awaitErr != nil {
		return domain.Receipt{}, m.awaitErr
	}
	return domain.Receipt{TxHash: string(handle), BlockNumber: m.awaitBlock, Status: 1}, nil
}

func (m *mockChain) ReadBigInt(ctx context.Context, method string, args ...any) (*big.Int, error) {
	m.reads = append(m.reads, chainCall{method: method, args: args})
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.readValue == nil {
		return big.NewInt(0), nil
	}
	return m.readValue, nil
}

type mockGenerator struct {
	text    string
	err     error
	calls   int
	handles []string
}

func (m *mockGenerator) Generate(ctx context.Context, freeform, subjectHandle string) (string, error) {
	m.calls++
	m.handles = append(m.handles, subjectHandle)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

type mockQuoter struct {
	quote domain.PriceQuote
	err   error
}

func (m *mockQuoter) Quote(ctx context.Context) (domain.PriceQuote, error) {
	if m.err != nil {
		return domain.PriceQuote{}, m.err
	}
	return m.quote, nil
}

type mockSource struct {
	tokens      []domain.Token
	tokensErr   error
	profiles    []domain.Profile
	profilesErr error
	lookups     [][]string
}

func (m *mockSource) Tokens(ctx context.Context, limit, offset int) ([]domain.Token, error) {
	if m.tokensErr != nil {
		return nil, m.tokensErr
	}
	return m.tokens, nil
}

func (m *mockSource) Profiles(ctx context.Context, addresses []string) ([]domain.Profile, error) {
	m.lookups = append(m.lookups, addresses)
	if m.profilesErr != nil {
		return nil, m.profilesErr
	}
	return m.profiles, nil
}

type mockSignal struct {
	events []roasted.MintEvent
	err    error
}

func (m *mockSignal) PublishMinted(ctx context.Context, ev roasted.MintEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

type mockNotifier struct {
	notices []domain.Notice
}

func (m *mockNotifier) Notify(ctx context.Context, notice domain.Notice) {
	m.notices = append(m.notices, notice)
}
