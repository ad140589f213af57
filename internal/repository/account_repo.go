package repository

import (
	"context"
	"time"

	"boozstudio/internal/domain"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	a.Email = domain.NormalizeEmail(a.Email)
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var a domain.Account
	tx := r.db.WithContext(ctx).
		Where("email = ?", domain.NormalizeEmail(email)).
		First(&a)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Count(&cnt).Error
	return cnt > 0, err
}

// List returns accounts ordered by name; an empty role lists everyone.
func (r *AccountRepository) List(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	q := r.db.WithContext(ctx)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	accounts := make([]domain.Account, 0)
	if err := q.Order("name asc").Order("surname asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// AdjustBalance applies credit_balance += delta unless the result would be negative.
// It reports false when the guard rejected the update or the account does not exist.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id string, delta int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ? AND credit_balance + ? >= 0", id, delta).
		Update("credit_balance", gorm.Expr("credit_balance + ?", delta))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *AccountRepository) SetPlan(ctx context.Context, id string, kind domain.PackageRef, name string, expiry time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_active": true,
			"package_kind":        kind,
			"plan_name":           name,
			"plan_expiry":         expiry.UTC(),
		}).Error
}

// UpdateFields writes the given columns and reports how many rows matched.
func (r *AccountRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(fields)
	return tx.RowsAffected, tx.Error
}

func (r *AccountRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Account{})
	return tx.RowsAffected, tx.Error
}

func (r *AccountRepository) ClearPlan(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_active": false,
			"package_kind":        nil,
			"plan_name":           nil,
			"plan_expiry":         nil,
		}).Error
}

// ExpirePlans switches off subscriptions whose expiry has passed. Plan name and
// expiry stay for display.
func (r *AccountRepository) ExpirePlans(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("subscription_active = ? AND plan_expiry IS NOT NULL AND plan_expiry <= ?", true, now.UTC()).
		Update("subscription_active", false)
	return tx.RowsAffected, tx.Error
}
