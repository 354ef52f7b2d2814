package local

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, m *AccountModel) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&AccountModel{}).Where("email = ?", m.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrEmailInUse
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*AccountModel, error) {
	var m AccountModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id domain.UserID) (*AccountModel, error) {
	var m AccountModel
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *AccountRepository) UpdateDisplayName(ctx context.Context, id domain.UserID, displayName string) error {
	res := r.db.WithContext(ctx).Model(&AccountModel{}).Where("id = ?", string(id)).Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id domain.UserID) error {
	res := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&AccountModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
