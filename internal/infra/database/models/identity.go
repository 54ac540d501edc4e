package models

import (
	"time"
)

// Identity is a wallet-to-external-identity link. Keyed by the lowercased
// wallet address; writes are merge-writes so partial updates never clobber
// the other columns.
type Identity struct {
	WalletAddress     string    `json:"walletAddress" gorm:"primaryKey;type:text"`
	ExternalID        string    `json:"externalId" gorm:"type:text;index"`
	ExternalUsername  string    `json:"externalUsername" gorm:"type:text"`
	ExternalHandle    string    `json:"externalHandle" gorm:"type:text"`
	ExternalAvatarURL string    `json:"externalAvatarUrl" gorm:"type:text"`
	Roastable         bool      `json:"canBeRoasted" gorm:"type:boolean;not null;default:true"`
	RoastPrice        *string   `json:"roastPrice" gorm:"type:text"`
	CDate             time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate             time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
