package domain

import (
	"math/big"
	"time"

	"github.com/roastedworld/roasted"
)

// Draft is the transient, session-scoped roast under composition. It exists
// only between composition start and either promotion into an Artifact or
// abandonment; it is never persisted.
type Draft struct {
	AuthorWallet  string
	SubjectWallet string
	Text          string
	Origin        string
	AIContext     string
	PriceQuoted   *big.Int
}

// TxHandle identifies a pending chain submission. A handle never implies
// eventual success.
type TxHandle string

// Receipt is the confirmation result of a submitted transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// Artifact is the on-chain-confirmed roast. Created only after confirmation,
// immutable thereafter.
type Artifact struct {
	TxHash        string
	ContentRef    string
	OwnerWallet   string
	SubjectWallet string
	MintedAt      time.Time
}

// Token is a primary record fetched from the indexing source.
type Token struct {
	ID               string              `json:"id"`
	TokenID          string              `json:"tokenId"`
	FormattedTokenID string              `json:"formattedTokenId"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Attributes       []roasted.Attribute `json:"attributes"`
	CreatedTimestamp string              `json:"createdTimestamp"`
}

// Profile is an identity display record from the indexing source.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FeedItem is a Token joined with resolved identity handles. Handles are nil
// when the corresponding wallet has no display entry; that is a join miss,
// not an error.
type FeedItem struct {
	ID               string              `json:"id"`
	TokenID          string              `json:"tokenId"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Attributes       []roasted.Attribute `json:"attributes"`
	RoasterAddress   string              `json:"roasterAddress,omitempty"`
	RoasteeAddress   string              `json:"roasteeAddress,omitempty"`
	RoasterHandle    *string             `json:"roaster,omitempty"`
	RoasteeHandle    *string             `json:"roastee,omitempty"`
	CreatedTimestamp string              `json:"createdTimestamp"`
}

// FeedPage is one resolved page of the roast feed.
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	HasMore bool       `json:"hasMore"`
}

// PriceQuote is a fiat quote for the chain's native coin.
type PriceQuote struct {
	Price     float64 `json:"price"`
	Symbol    string  `json:"symbol"`
	Timestamp string  `json:"timestamp"`
}

// AccountSummary is the owner-facing aggregate over contract balance and
// price, both converted to fiat with the current quote. Failed sources
// contribute zero; the aggregate itself never fails.
type AccountSummary struct {
	BalanceDisplay float64 `json:"contractBalance"`
	PriceDisplay   float64 `json:"pricePerRoast"`
	Quote          float64 `json:"quote"`
}

// Notice is a transient, dismissible user-facing message. No notice blocks
// the rest of the application.
type Notice struct {
	ID      string    `json:"id"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)
