package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/infra/database/models"
)

// IdentityRepository persists wallet-to-identity links in postgres. The
// wallet address is the primary key and arrives already lowercased from the
// usecase layer.
type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Get(ctx context.Context, walletAddress string) (domain.LinkedIdentity, error) {
	var record models.Identity
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LinkedIdentity{}, domain.NotFoundError{Resource: "identity"}
		}
		return domain.LinkedIdentity{}, err
	}

	return domain.LinkedIdentity{
		WalletAddress:     record.WalletAddress,
		ExternalID:        record.ExternalID,
		ExternalUsername:  record.ExternalUsername,
		ExternalHandle:    record.ExternalHandle,
		ExternalAvatarURL: record.ExternalAvatarURL,
		Roastable:         record.Roastable,
		RoastPrice:        record.RoastPrice,
		CreatedAt:         record.CDate,
		UpdatedAt:         record.MDate,
	}, nil
}

// Upsert merge-writes a patch. Only the patch's non-nil fields become
// assignments, so an existing row keeps every column the patch omits.
func (r *IdentityRepository) Upsert(ctx context.Context, patch domain.IdentityPatch) error {
	record := models.Identity{
		WalletAddress: patch.WalletAddress,
		Roastable:     true,
	}
	assignments := map[string]any{
		"m_date": gorm.Expr("clock_timestamp()"),
	}

	if patch.ExternalID != nil {
		record.ExternalID = *patch.ExternalID
		assignments["external_id"] = *patch.ExternalID
	}
	if patch.ExternalUsername != nil {
		record.ExternalUsername = *patch.ExternalUsername
		assignments["external_username"] = *patch.ExternalUsername
	}
	if patch.ExternalHandle != nil {
		record.ExternalHandle = *patch.ExternalHandle
		assignments["external_handle"] = *patch.ExternalHandle
	}
	if patch.ExternalAvatarURL != nil {
		record.ExternalAvatarURL = *patch.ExternalAvatarURL
		assignments["external_avatar_url"] = *patch.ExternalAvatarURL
	}
	if patch.Roastable != nil {
		record.Roastable = *patch.Roastable
		assignments["roastable"] = *patch.Roastable
	}
	if patch.RoastPrice != nil {
		record.RoastPrice = patch.RoastPrice
		assignments["roast_price"] = *patch.RoastPrice
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
}
