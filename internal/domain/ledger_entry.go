package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerEntryType string

const (
	LedgerDebit   LedgerEntryType = "DEBIT"
	LedgerRefund  LedgerEntryType = "REFUND"
	LedgerGrant   LedgerEntryType = "GRANT"
	LedgerPackage LedgerEntryType = "PACKAGE"
)

// LedgerEntry records one balance mutation. Amount is signed.
type LedgerEntry struct {
	ID        string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	AccountID string          `json:"account_id" gorm:"type:varchar(36);not null;index"`
	Amount    int64           `json:"amount" gorm:"not null"`
	Type      LedgerEntryType `json:"type" gorm:"type:varchar(16);not null;index"`
	Reason    string          `json:"reason,omitempty"`
	SessionID *string         `json:"session_id,omitempty" gorm:"type:varchar(36);index"`
	// Package is set on PACKAGE entries to the plan they granted.
	Package   *PackageRef     `json:"package,omitempty" gorm:"type:varchar(8)"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
