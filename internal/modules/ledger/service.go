package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
	"boozstudio/internal/repository"
)

// Service owns account balances and plans. Every balance change writes a ledger entry.
type Service struct {
	db       *gorm.DB
	accounts *repository.AccountRepository
	sessions *repository.SessionRepository
	entries  *repository.LedgerRepository
	pricing  *pricing.Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, policy *pricing.Policy, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		sessions: repository.NewSessionRepository(db),
		entries:  repository.NewLedgerRepository(db),
		pricing:  policy,
		log:      log,
		now:      time.Now,
	}
}

// WithTx returns a copy of the service whose reads and writes run on tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	cp := *s
	cp.db = tx
	cp.accounts = repository.NewAccountRepository(tx)
	cp.sessions = repository.NewSessionRepository(tx)
	cp.entries = repository.NewLedgerRepository(tx)
	return &cp
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) GetAccount(ctx context.Context, email string) (*domain.Account, error) {
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Service) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// AdjustBalance adds delta to the balance. A debit that would leave it negative
// fails with ErrInsufficientBalance and changes nothing. Zero deltas are no-ops.
func (s *Service) AdjustBalance(ctx context.Context, accountID string, delta int64, e Entry) error {
	if delta == 0 {
		return nil
	}

	ok, err := s.accounts.AdjustBalance(ctx, accountID, delta)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if !ok {
		if _, err := s.GetAccountByID(ctx, accountID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}

	entry := &domain.LedgerEntry{
		AccountID: accountID,
		Amount:    delta,
		Type:      e.Type,
		Reason:    e.Reason,
		SessionID: e.SessionID,
		Package:   e.Package,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	return nil
}

// GrantOrExtendPackage charges the package price and (re)starts the plan for 30 days from now.
// Remaining days of a previous plan are not carried over.
func (s *Service) GrantOrExtendPackage(ctx context.Context, accountID string, kind domain.PackageRef, sessionID *string) (time.Time, error) {
	if !kind.IsPlan() {
		return time.Time{}, fmt.Errorf("%w: %q is not a plan", ErrInvalidPackage, kind)
	}

	cost := s.pricing.PriceFor(kind)
	name := s.pricing.PlanName(kind)
	err := s.AdjustBalance(ctx, accountID, -cost, Entry{
		Type:      domain.LedgerPackage,
		Reason:    name,
		SessionID: sessionID,
		Package:   &kind,
	})
	if err != nil {
		return time.Time{}, err
	}

	expiry := s.pricing.PlanExpiry(s.now())
	if err := s.accounts.SetPlan(ctx, accountID, kind, name, expiry); err != nil {
		return time.Time{}, fmt.Errorf("set plan: %w", err)
	}
	return expiry, nil
}

// PlanGrantedBy reports whether the account's current plan was bought with the reservation sessionID.
func (s *Service) PlanGrantedBy(ctx context.Context, accountID, sessionID string) (bool, error) {
	last, err := s.entries.LatestOfType(ctx, accountID, domain.LedgerPackage)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("latest package entry: %w", err)
	}
	return last.SessionID != nil && *last.SessionID == sessionID, nil
}

// RevokePackage ends the account's plan when it was granted by the reservation sessionID.
// A plan bought later by other means is left alone. When the revoked purchase had replaced
// a plan that would still be running, that plan is restored. It reports whether the plan changed.
func (s *Service) RevokePackage(ctx context.Context, accountID, sessionID string) (bool, error) {
	last, err := s.entries.LatestOfType(ctx, accountID, domain.LedgerPackage)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("latest package entry: %w", err)
	}
	if last.SessionID == nil || *last.SessionID != sessionID {
		return false, nil
	}

	prev, err := s.entries.PreviousPlanGrant(ctx, accountID, last)
	if err != nil && !repository.IsNotFound(err) {
		return false, fmt.Errorf("previous package entry: %w", err)
	}
	if prev != nil && prev.Package != nil {
		expiry := s.pricing.PlanExpiry(prev.CreatedAt)
		if expiry.After(s.now()) {
			if err := s.accounts.SetPlan(ctx, accountID, *prev.Package, s.pricing.PlanName(*prev.Package), expiry); err != nil {
				return false, fmt.Errorf("restore plan: %w", err)
			}
			return true, nil
		}
	}

	if err := s.accounts.ClearPlan(ctx, accountID); err != nil {
		return false, fmt.Errorf("clear plan: %w", err)
	}
	return true, nil
}

// PurchasePackage buys a plan outside of a reservation.
func (s *Service) PurchasePackage(ctx context.Context, email, pkg string) (*domain.Account, error) {
	kind, ok := domain.ParsePackageRef(pkg)
	if !ok || !kind.IsPlan() {
		return nil, ErrInvalidPackage
	}

	var out *domain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := s.WithTx(tx)

		acc, err := txs.GetAccount(ctx, email)
		if err != nil {
			return err
		}
		if _, err := txs.GrantOrExtendPackage(ctx, acc.ID, kind, nil); err != nil {
			return err
		}
		out, err = txs.GetAccountByID(ctx, acc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", out.Email).Str("package", string(kind)).Int64("balance", out.CreditBalance).Msg("package purchased")
	return out, nil
}

// UpdateProfile edits an account's contact and medical record.
func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*domain.Account, error) {
	if fields := req.fields(); len(fields) > 0 {
		if _, err := s.accounts.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	acc, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("account_id", id).Msg("profile updated")
	return acc, nil
}

// GrantCredit tops up an account on behalf of staff.
func (s *Service) GrantCredit(ctx context.Context, email string, amount int64, reason string) (*domain.Account, error) {
	if amount < MinGrant {
		return nil, fmt.Errorf("%w: at least %d", ErrGrantTooSmall, MinGrant)
	}
	if reason == "" {
		reason = "top-up"
	}

	var out *domain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := s.WithTx(tx)

		acc, err := txs.GetAccount(ctx, email)
		if err != nil {
			return err
		}
		if err := txs.AdjustBalance(ctx, acc.ID, amount, Entry{Type: domain.LedgerGrant, Reason: reason}); err != nil {
			return err
		}
		out, err = txs.GetAccountByID(ctx, acc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", out.Email).Int64("amount", amount).Int64("balance", out.CreditBalance).Msg("credit granted")
	return out, nil
}

func (s *Service) ListAccounts(ctx context.Context, role string) ([]domain.Account, error) {
	r := domain.Role(role)
	if role != "" && !r.Valid() {
		return nil, ErrInvalidRole
	}
	accounts, err := s.accounts.List(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account. Its future catalog reservations go back on the
// calendar; its other sessions and ledger history are removed.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := s.WithTx(tx)

		acc, err := txs.GetAccountByID(ctx, id)
		if err != nil {
			return err
		}

		reopened, err := txs.sessions.ReopenFutureClaims(ctx, acc.ID, s.now())
		if err != nil {
			return fmt.Errorf("reopen sessions: %w", err)
		}
		if _, err := txs.sessions.DeleteByUser(ctx, acc.ID); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := txs.entries.DeleteByAccount(ctx, acc.ID); err != nil {
			return fmt.Errorf("delete ledger: %w", err)
		}
		if _, err := txs.accounts.Delete(ctx, acc.ID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		s.log.Warn().Str("email", acc.Email).Int64("reopened_sessions", reopened).Msg("account deleted")
		return nil
	})
}

// AccountView is the profile page: account, reservations with their derived state, and ledger.
func (s *Service) AccountView(ctx context.Context, email string) (*AccountView, error) {
	acc, err := s.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByUser(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	entries, err := s.entries.ListByAccount(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	now := s.now()
	views := make([]ReservationView, 0, len(sessions))
	for i := range sessions {
		r := &sessions[i]
		status := r.EffectiveStatus(now)
		views = append(views, ReservationView{
			ID:            r.ID,
			Name:          r.Name,
			Topic:         r.Topic,
			ScheduledAt:   r.ScheduledAt,
			PackageRef:    r.PackageRef,
			PaymentMethod: r.PaymentMethod,
			AmountCharged: r.AmountCharged,
			SpotNumber:    r.SpotNumber,
			Status:        status,
			Cancellable:   status == domain.SessionActive && domain.CancellationOpen(r.ScheduledAt, now),
			Refund:        s.pricing.RefundFor(r),
		})
	}

	return &AccountView{
		Account:      acc,
		PlanActive:   acc.HasActivePlan(now),
		Reservations: views,
		Ledger:       entries,
	}, nil
}
