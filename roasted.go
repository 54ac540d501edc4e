package roasted

import (
	"regexp"
	"strings"
	"time"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsWalletAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsWalletAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lowercases a wallet address. Address case variants denote
// the same entity, so every lookup and storage key goes through this first.
func NormalizeAddress(s string) (string, bool) {
	if !addressPattern.MatchString(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

// FormatHandle renders a resolved display name as "name#ab12", using the
// first 4 hex chars after the 0x prefix as a discriminator. An address too
// short to carry a discriminator yields the bare name.
func FormatHandle(name, address string) string {
	if len(address) < 6 {
		return name
	}
	return name + "#" + address[2:6]
}

// FallbackHandle renders an unlinked address as "@ab12cd".
func FallbackHandle(address string) string {
	if address == "" {
		return "@Unknown"
	}
	trimmed := strings.TrimPrefix(address, "0x")
	if len(trimmed) > 6 {
		trimmed = trimmed[:6]
	}
	return "@" + trimmed
}

// MintEvent is published when a roast mint is confirmed on-chain.
type MintEvent struct {
	TxHash     string    `json:"txHash"`
	Roaster    string    `json:"roaster"`
	Roastee    string    `json:"roastee"`
	ContentRef string    `json:"contentRef"`
	MintedAt   time.Time `json:"mintedAt"`
}
