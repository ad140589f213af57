package repository

import (
	"context"

	"boozstudio/internal/domain"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	entries := make([]domain.LedgerEntry, 0)
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&domain.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *LedgerRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&domain.LedgerEntry{}).Error
}

// PreviousPlanGrant returns the newest PACKAGE entry older than before whose purchase was
// not refunded, or gorm.ErrRecordNotFound.
func (r *LedgerRepository) PreviousPlanGrant(ctx context.Context, accountID string, before *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	refunded := r.db.Model(&domain.LedgerEntry{}).
		Select("session_id").
		Where("account_id = ? AND type = ? AND session_id IS NOT NULL", accountID, domain.LedgerRefund)

	var e domain.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND type = ? AND id <> ? AND created_at <= ?", accountID, domain.LedgerPackage, before.ID, before.CreatedAt).
		Where("(session_id IS NULL OR session_id NOT IN (?))", refunded).
		Order("created_at desc").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// LatestOfType returns the newest entry of typ for the account, or gorm.ErrRecordNotFound.
func (r *LedgerRepository) LatestOfType(ctx context.Context, accountID string, typ domain.LedgerEntryType) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND type = ?", accountID, typ).
		Order("created_at desc").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
