package domain

import "time"

// LinkedIdentity maps a wallet to its linked external social identity plus
// the per-wallet roast settings. Keyed by the lowercased wallet address.
type LinkedIdentity struct {
	WalletAddress     string    `json:"walletAddress"`
	ExternalID        string    `json:"externalId"`
	ExternalUsername  string    `json:"externalUsername"`
	ExternalHandle    string    `json:"externalHandle"`
	ExternalAvatarURL string    `json:"externalAvatarUrl,omitempty"`
	Roastable         bool      `json:"canBeRoasted"`
	RoastPrice        *string   `json:"roastPrice,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IdentityPatch is a merge-write: nil fields are preserved in the stored
// record so concurrent partial updates don't clobber unrelated fields.
type IdentityPatch struct {
	WalletAddress     string
	ExternalID        *string
	ExternalUsername  *string
	ExternalHandle    *string
	ExternalAvatarURL *string
	Roastable         *bool
	RoastPrice        *string
}

// IdentityLookup is the result of a wallet identity lookup. A missing record
// is an explicit absent state, not an error.
type IdentityLookup struct {
	Exists    bool
	Record    *LinkedIdentity
	Roastable bool
}
