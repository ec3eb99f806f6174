package prefs

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/telemart/storefront-gateway/pkg/db/models"
)

// Repository encapsulates preference persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a preference repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads a user's preference row. A missing row is returned as a zero
// record with the id filled in, not an error: every user implicitly starts
// with defaults.
func (r *Repository) Find(ctx context.Context, userID int64) (models.UserPreference, error) {
	var record models.UserPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserPreference{UserID: userID}, nil
	}
	if err != nil {
		return models.UserPreference{}, err
	}
	return record, nil
}

// Upsert writes the preference row, creating it on first touch.
func (r *Repository) Upsert(ctx context.Context, record models.UserPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"write_access_asked", "language_code", "updated_at"}),
		}).
		Create(&record).
		Error
}
