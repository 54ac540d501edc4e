package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
)

// ComposerState is the lifecycle state of a roast composition session.
type ComposerState string

const (
	StateIdle            ComposerState = "idle"
	StateChoosingType    ComposerState = "choosingType"
	StateComposingCustom ComposerState = "composingCustom"
	StateComposingAI     ComposerState = "composingAI"
	StateMinting         ComposerState = "minting"
	StateSuccess         ComposerState = "success"
)

// AIPhase is the sub-state of an AI composition: the generate call is
// pending user trigger, or text is available for edit/confirm.
type AIPhase string

const (
	AISuggesting AIPhase = "suggesting"
	AIGenerated  AIPhase = "generated"
)

// Composer drives a roast from content acquisition through metadata
// assembly, content anchoring, and the on-chain mint. One Composer serves
// one composition session; all mutation goes through its methods.
//
// The minting pass is strictly sequential: no step begins before its
// predecessor resolves, exactly one anchor store and one chain submission
// happen per pass, and a failure at any step reverts the session to idle
// with the draft text preserved for retry. An anchored document whose mint
// never confirmed is left in place; there is no compensating delete.
type Composer struct {
	mu      sync.Mutex
	state   ComposerState
	aiPhase AIPhase
	draft   domain.Draft
	result  *domain.Artifact

	identity  IdentityRepository
	anchor    ContentAnchor
	chain     ChainCommitter
	generator RoastGenerator
	signal    MintSignal
	notifier  Notifier
}

func NewComposer(
	identity IdentityRepository,
	anchor ContentAnchor,
	chain ChainCommitter,
	generator RoastGenerator,
	signal MintSignal,
	notifier Notifier,
) *Composer {
	return &Composer{
		state:     StateIdle,
		aiPhase:   AISuggesting,
		identity:  identity,
		anchor:    anchor,
		chain:     chain,
		generator: generator,
		signal:    signal,
		notifier:  notifier,
	}
}

func (c *Composer) State() ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Phase() AIPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aiPhase
}

func (c *Composer) Draft() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Artifact returns the confirmed mint result, nil before success.
func (c *Composer) Artifact() *domain.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Begin starts a composition session for the given author and subject. The
// subject's roast price is quoted here, once: the quoted value rides the
// draft into the mint and is never re-read at commit time. A failed price
// read falls back to zero and surfaces a notice.
func (c *Composer) Begin(ctx context.Context, authorWallet, subjectWallet string) error {
	author, ok := roasted.NormalizeAddress(authorWallet)
	if !ok {
		return domain.ValidationError{Field: "authorWallet", Reason: "invalid wallet address format"}
	}
	subject, ok := roasted.NormalizeAddress(subjectWallet)
	if !ok {
		return domain.ValidationError{Field: "subjectWallet", Reason: "invalid wallet address format"}
	}

	price, err := c.chain.ReadBigInt(ctx, "roastPrices", subject)
	if err != nil {
		slog.Warn("roast price read failed, quoting zero",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
			slog.String("module", "composer"),
		)
		c.notify(ctx, domain.NoticeError, "could not fetch roast price, assuming free")
		price = big.NewInt(0)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateMinting {
		return domain.ValidationError{Field: "state", Reason: "minting in progress"}
	}
	c.state = StateChoosingType
	c.aiPhase = AISuggesting
	c.result = nil
	c.draft = domain.Draft{
		AuthorWallet:  author,
		SubjectWallet: subject,
		PriceQuoted:   price,
	}
	return nil
}

// ChooseCustom selects hand-written composition. Pure UI selection.
func (c *Composer) ChooseCustom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateChoosingType {
		return domain.ValidationError{Field: "state", Reason: "no composition in progress"}
	}
	c.state = StateComposingCustom
	c.draft.Origin = roasted.OriginCustom
	return nil
}

// ChooseAI selects AI-assisted composition.
func (c *Composer) ChooseAI() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateChoosingType {
		return domain.ValidationError{Field: "state", Reason: "no composition in progress"}
	}
	c.state = StateComposingAI
	c.aiPhase = AISuggesting
	c.draft.Origin = roasted.OriginAI
	return nil
}

// SetText updates the draft text. In AI mode the generated text may be
// edited, but only once a suggestion exists.
func (c *Composer) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateComposingCustom:
	case StateComposingAI:
		if c.aiPhase != AIGenerated {
			return domain.ValidationError{Field: "state", Reason: "no suggestion generated yet"}
		}
	default:
		return domain.ValidationError{Field: "state", Reason: "not composing"}
	}
	c.draft.Text = text
	return nil
}

// GenerateSuggestion invokes the AI black box with the user's freeform
// context and the subject's linked handle, falling back to the address-
// derived display handle when no identity is linked. There is no retry
// policy: on failure the sub-state stays at suggesting and the user must
// re-trigger manually.
func (c *Composer) GenerateSuggestion(ctx context.Context, freeform string) error {
	c.mu.Lock()
	if c.state != StateComposingAI {
		c.mu.Unlock()
		return domain.ValidationError{Field: "state", Reason: "not composing with ai"}
	}
	subject := c.draft.SubjectWallet
	c.mu.Unlock()

	handle := roasted.FallbackHandle(subject)
	if record, err := c.identity.Get(ctx, subject); err == nil && record.ExternalHandle != "" {
		handle = record.ExternalHandle
	}

	text, err := c.generator.Generate(ctx, freeform, handle)
	if err != nil {
		c.notify(ctx, domain.NoticeError, "failed to generate roast, please try again")
		return domain.ExternalServiceError{Service: "roast generator", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComposingAI {
		return domain.ValidationError{Field: "state", Reason: "composition abandoned"}
	}
	c.draft.Text = text
	c.draft.AIContext = freeform
	c.aiPhase = AIGenerated
	return nil
}

// AdoptSuggestion resumes an AI composition with a suggestion generated in
// an earlier session, marking it editable without re-invoking the generator.
func (c *Composer) AdoptSuggestion(text, freeform string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComposingAI {
		return domain.ValidationError{Field: "state", Reason: "not composing with ai"}
	}
	c.draft.Text = text
	c.draft.AIContext = freeform
	c.aiPhase = AIGenerated
	return nil
}

// Mint runs the commit pipeline: assemble metadata, anchor it, encode the
// mint payload, submit, and await confirmation. Once the submission has
// been issued the flow runs to confirmation or confirmation-failure; there
// is no mid-flight cancellation.
func (c *Composer) Mint(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateComposingCustom && c.state != StateComposingAI {
		c.mu.Unlock()
		return domain.ValidationError{Field: "state", Reason: "nothing composed"}
	}
	if strings.TrimSpace(c.draft.Text) == "" {
		c.mu.Unlock()
		return domain.ValidationError{Field: "text", Reason: "roast text is empty"}
	}
	if c.draft.AuthorWallet == "" {
		c.mu.Unlock()
		return domain.ValidationError{Field: "authorWallet", Reason: "wallet not connected"}
	}
	c.state = StateMinting
	draft := c.draft
	c.mu.Unlock()

	artifact, err := c.mint(ctx, draft)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Draft text survives so the user can retry; a retry starts a
		// fresh anchor store, never reusing a stale reference.
		c.state = StateIdle
		return err
	}
	c.state = StateSuccess
	c.result = artifact
	return nil
}

func (c *Composer) mint(ctx context.Context, draft domain.Draft) (*domain.Artifact, error) {
	price := draft.PriceQuoted
	if price == nil {
		price = big.NewInt(0)
	}

	doc := roasted.NewRoastMetadata(
		draft.AuthorWallet,
		draft.SubjectWallet,
		draft.Text,
		draft.Origin,
		roasted.WeiToDecimal(price),
	)

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal roast metadata")
	}

	ref, err := c.anchor.Store(ctx, payload)
	if err != nil {
		c.notify(ctx, domain.NoticeError, "failed to store roast metadata")
		return nil, errors.Wrap(err, "content anchor store failed")
	}

	data, err := roasted.EncodeMintPayload(draft.SubjectWallet, doc, ref)
	if err != nil {
		return nil, errors.Wrap(err, "mint payload encoding failed")
	}

	handle, err := c.chain.Submit(ctx, "mint", price, draft.SubjectWallet, true, data)
	if err != nil {
		c.notify(ctx, domain.NoticeError, "failed to mint roast")
		return nil, err
	}

	receipt, err := c.chain.AwaitConfirmation(ctx, handle)
	if err != nil {
		c.notify(ctx, domain.NoticeError, "roast mint did not confirm")
		return nil, err
	}

	artifact := &domain.Artifact{
		TxHash:        receipt.TxHash,
		ContentRef:    ref,
		OwnerWallet:   draft.AuthorWallet,
		SubjectWallet: draft.SubjectWallet,
		MintedAt:      time.Now().UTC(),
	}

	c.notify(ctx, domain.NoticeSuccess, "your roast has been minted")

	if c.signal != nil {
		ev := roasted.MintEvent{
			TxHash:     artifact.TxHash,
			Roaster:    artifact.OwnerWallet,
			Roastee:    artifact.SubjectWallet,
			ContentRef: artifact.ContentRef,
			MintedAt:   artifact.MintedAt,
		}
		if err := c.signal.PublishMinted(ctx, ev); err != nil {
			slog.Warn("mint signal publish failed",
				slog.String("txHash", artifact.TxHash),
				slog.String("error", err.Error()),
				slog.String("module", "composer"),
			)
		}
	}

	return artifact, nil
}

// Again returns from success to idle for another roast, clearing the text,
// AI context, and origin while keeping the session's wallets and quote.
func (c *Composer) Again() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSuccess {
		return domain.ValidationError{Field: "state", Reason: "no completed roast"}
	}
	c.state = StateIdle
	c.aiPhase = AISuggesting
	c.draft.Text = ""
	c.draft.AIContext = ""
	c.draft.Origin = ""
	return nil
}

// Reset abandons the session entirely. A document already anchored by an
// abandoned session stays anchored; that leak is accepted.
func (c *Composer) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateMinting {
		return domain.ValidationError{Field: "state", Reason: "minting in progress"}
	}
	c.state = StateIdle
	c.aiPhase = AISuggesting
	c.draft = domain.Draft{}
	c.result = nil
	return nil
}

func (c *Composer) notify(ctx context.Context, level, message string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ctx, domain.Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now().UTC(),
	})
}
