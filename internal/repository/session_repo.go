package repository

import (
	"context"
	"time"

	"boozstudio/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Claim carries the reservation fields written when an open slot is taken.
type Claim struct {
	AccountID     string
	PackageRef    domain.PackageRef
	PaymentMethod domain.PaymentMethod
	AmountCharged int64
	SpotNumber    *int
	SpotKey       *string
	BookedAt      time.Time
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// CreateIgnoringDuplicates inserts the slots and silently skips those whose slot key exists.
func (r *SessionRepository) CreateIgnoringDuplicates(ctx context.Context, sessions []domain.Session) (int64, error) {
	if len(sessions) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sessions)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListBetween returns sessions starting in [from, to). Cancelled reservations are never listed.
func (r *SessionRepository) ListBetween(ctx context.Context, from, to time.Time, includeReserved bool) ([]domain.Session, error) {
	q := r.db.WithContext(ctx).
		Where("scheduled_at >= ? AND scheduled_at < ?", from.UTC(), to.UTC())
	if includeReserved {
		q = q.Where("status <> ?", domain.SessionCancelled)
	} else {
		q = q.Where("user_id IS NULL AND status = ?", domain.SessionOpen)
	}

	sessions := make([]domain.Session, 0)
	if err := q.Order("scheduled_at asc").Order("seat asc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListOpenAt returns the open slots starting exactly at at, optionally filtered by class name.
func (r *SessionRepository) ListOpenAt(ctx context.Context, at time.Time, name string) ([]domain.Session, error) {
	q := r.db.WithContext(ctx).
		Where("scheduled_at = ? AND user_id IS NULL AND status = ?", at.UTC(), domain.SessionOpen)
	if name != "" {
		q = q.Where("name = ?", name)
	}

	var sessions []domain.Session
	if err := q.Order("seat asc").Order("id asc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Claim turns an open slot into a reservation. It reports false when another caller won the slot.
func (r *SessionRepository) Claim(ctx context.Context, id string, c Claim) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id IS NULL AND status = ?", id, domain.SessionOpen).
		Updates(map[string]interface{}{
			"user_id":        c.AccountID,
			"status":         domain.SessionActive,
			"package_ref":    c.PackageRef,
			"payment_method": c.PaymentMethod,
			"amount_charged": c.AmountCharged,
			"spot_number":    c.SpotNumber,
			"spot_key":       c.SpotKey,
			"booked_at":      c.BookedAt.UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *SessionRepository) HasActiveAt(ctx context.Context, accountID string, at time.Time) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND status = ? AND scheduled_at = ?", accountID, domain.SessionActive, at.UTC()).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// CountFreeCreditSince counts the account's active credit reservations booked at or after since
// that cost nothing, i.e. those that rely on the plan held at booking time.
func (r *SessionRepository) CountFreeCreditSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND status = ? AND payment_method = ? AND amount_charged = 0 AND booked_at >= ?",
			accountID, domain.SessionActive, domain.PaymentCredit, since.UTC()).
		Count(&cnt).Error
	return cnt, err
}

// MarkCancelled moves an active reservation to cancelled and releases its unique keys.
// It reports false when the reservation was no longer active.
func (r *SessionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND status = ?", id, domain.SessionActive).
		Updates(map[string]interface{}{
			"status":       domain.SessionCancelled,
			"cancelled_at": at.UTC(),
			"slot_key":     nil,
			"spot_key":     nil,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, accountID string) ([]domain.Session, error) {
	sessions := make([]domain.Session, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", accountID).
		Order("scheduled_at asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// NextUpcoming returns the soonest active reservation after now, or gorm.ErrRecordNotFound.
func (r *SessionRepository) NextUpcoming(ctx context.Context, accountID string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND scheduled_at > ?", accountID, domain.SessionActive, now.UTC()).
		Order("scheduled_at asc").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListReservations returns every session that was ever assigned to a user.
func (r *SessionRepository) ListReservations(ctx context.Context) ([]domain.Session, error) {
	sessions := make([]domain.Session, 0)
	err := r.db.WithContext(ctx).
		Where("user_id IS NOT NULL").
		Order("scheduled_at asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}

func (r *SessionRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}

// ReopenFutureClaims hands the user's future catalog slots back to the calendar.
func (r *SessionRepository) ReopenFutureClaims(ctx context.Context, accountID string, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND status = ? AND seat IS NOT NULL AND scheduled_at > ?", accountID, domain.SessionActive, now.UTC()).
		Updates(map[string]interface{}{
			"user_id":        nil,
			"status":         domain.SessionOpen,
			"package_ref":    gorm.Expr("category"),
			"payment_method": "",
			"amount_charged": 0,
			"spot_number":    nil,
			"spot_key":       nil,
			"booked_at":      nil,
		})
	return tx.RowsAffected, tx.Error
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, accountID string) (int64, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", accountID).Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}
