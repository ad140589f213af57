package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"boozstudio/internal/domain"
	"boozstudio/internal/events"
	"boozstudio/internal/metrics"
	"boozstudio/internal/modules/catalog"
	"boozstudio/internal/modules/ledger"
	"boozstudio/internal/modules/pricing"
	"boozstudio/internal/repository"
)

const publishTimeout = 5 * time.Second

// Service is the reservation engine. It composes the calendar and the ledger
// in a single database transaction per operation.
type Service struct {
	db        *gorm.DB
	ledger    *ledger.Service
	pricing   *pricing.Policy
	publisher EventPublisher
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

func NewService(db *gorm.DB, ledgerSvc *ledger.Service, policy *pricing.Policy, publisher EventPublisher, loc *time.Location, log zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:        db,
		ledger:    ledgerSvc,
		pricing:   policy,
		publisher: publisher,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the time source of the engine and its ledger. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.ledger.SetClock(now)
}

func validate(req ReserveRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrMalformedSelection)
	}
	if req.Payment == nil {
		return fmt.Errorf("%w: payment is required", ErrMalformedSelection)
	}
	sel := req.Selection
	if !sel.byID() && (sel.DateKey == "" || sel.Hour == "") {
		return fmt.Errorf("%w: session_id or date_key and hour are required", ErrMalformedSelection)
	}
	if req.SpotNumber != nil && *req.SpotNumber < 1 {
		return ErrInvalidSpot
	}
	return nil
}

// Reserve books one seat for the account behind req.Email and charges it.
// Either the reservation, the balance change and the ledger entry all commit, or nothing does.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	res, err := s.reserve(ctx, req)
	if err != nil {
		metrics.ReservationFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, s.surface(err, "reserve", req.Email)
	}

	metrics.ReservationsTotal.WithLabelValues(string(res.Session.PaymentMethod), string(res.Session.PackageRef)).Inc()
	if res.Charged > 0 {
		metrics.RevenueTotal.WithLabelValues(string(res.Session.PackageRef)).Add(float64(res.Charged))
	}

	s.log.Info().
		Str("reservation_id", res.Session.ID).
		Str("email", res.Account.Email).
		Time("scheduled_at", res.Session.ScheduledAt).
		Str("package_ref", string(res.Session.PackageRef)).
		Str("payment", string(res.Session.PaymentMethod)).
		Int64("charged", res.Charged).
		Int64("balance", res.Account.CreditBalance).
		Msg("reservation created")

	s.publish(events.ReservationCreated, res.Session, res.Account, res.Charged)
	return res, nil
}

func (s *Service) reserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var at time.Time
	if !req.Selection.byID() {
		t, err := domain.ParseLocal(req.Selection.DateKey, req.Selection.Hour, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSelection, err)
		}
		at = t
	}

	acc, err := s.ledger.GetAccount(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	var out Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := repository.NewSessionRepository(tx)
		txLedger := s.ledger.WithTx(tx)
		now := s.now()

		candidates, err := s.candidates(ctx, sessions, req.Selection, at)
		if err != nil {
			return err
		}

		start := candidates[0].ScheduledAt
		startLocal := start.In(s.loc)
		if !start.After(now) {
			return ErrSessionStarted
		}

		busy, err := sessions.HasActiveAt(ctx, acc.ID, start)
		if err != nil {
			return err
		}
		if busy {
			return ErrAlreadyBooked
		}

		var spotKey *string
		if req.SpotNumber != nil {
			if *req.SpotNumber > domain.BedsPerClass(startLocal.Weekday()) {
				return ErrInvalidSpot
			}
			k := domain.SpotKey(start, *req.SpotNumber)
			spotKey = &k
		}

		// plan state must be read inside the transaction
		fresh, err := txLedger.GetAccountByID(ctx, acc.ID)
		if err != nil {
			return err
		}
		ch, err := resolveCharge(req.Payment, s.pricing, fresh, startLocal, now)
		if err != nil {
			return err
		}

		claim := repository.Claim{
			AccountID:     acc.ID,
			PackageRef:    ch.tag,
			PaymentMethod: ch.method,
			AmountCharged: ch.cost,
			SpotNumber:    req.SpotNumber,
			SpotKey:       spotKey,
			BookedAt:      now,
		}

		var won *domain.Session
		for i := range candidates {
			ok, err := sessions.Claim(ctx, candidates[i].ID, claim)
			if err != nil {
				if repository.IsUniqueViolation(err) {
					return ErrSlotAlreadyTaken
				}
				return err
			}
			if ok {
				won = &candidates[i]
				break
			}
			if req.Selection.byID() {
				return ErrSlotAlreadyTaken
			}
		}
		if won == nil {
			return ErrClassFull
		}

		if ch.grant {
			if _, err := txLedger.GrantOrExtendPackage(ctx, acc.ID, ch.tag, &won.ID); err != nil {
				return err
			}
		} else {
			err := txLedger.AdjustBalance(ctx, acc.ID, -ch.cost, ledger.Entry{
				Type:      domain.LedgerDebit,
				Reason:    fmt.Sprintf("%s %s", ch.method, won.Name),
				SessionID: &won.ID,
			})
			if err != nil {
				return err
			}
		}

		booked, err := sessions.GetByID(ctx, won.ID)
		if err != nil {
			return err
		}
		updated, err := txLedger.GetAccountByID(ctx, acc.ID)
		if err != nil {
			return err
		}

		out = Reservation{Session: booked, Account: updated, Charged: ch.cost}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// candidates returns the slots a selection may claim, best first.
func (s *Service) candidates(ctx context.Context, sessions *repository.SessionRepository, sel Selection, at time.Time) ([]domain.Session, error) {
	if sel.byID() {
		ses, err := sessions.GetByID(ctx, sel.SessionID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if ses.Status == domain.SessionCancelled {
			return nil, ErrSessionNotFound
		}
		if ses.UserID != nil || ses.Status != domain.SessionOpen {
			return nil, ErrSlotAlreadyTaken
		}
		return []domain.Session{*ses}, nil
	}

	open, err := sessions.ListOpenAt(ctx, at, strings.TrimSpace(sel.ClassName))
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return open, nil
	}

	all, err := sessions.ListBetween(ctx, at, at.Add(time.Minute), true)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrSessionNotFound
	}
	return nil, ErrClassFull
}

// Cancel cancels the caller's reservation and refunds it, provided the class
// starts more than 24 hours from now. Catalog slots return to the calendar.
func (s *Service) Cancel(ctx context.Context, reservationID, email string) (*Cancellation, error) {
	res, err := s.cancel(ctx, reservationID, email)
	if err != nil {
		return nil, s.surface(err, "cancel", email)
	}

	metrics.CancellationsTotal.WithLabelValues(string(res.Session.PackageRef)).Inc()
	metrics.RefundsTotal.Add(float64(res.Refund))

	s.log.Info().
		Str("reservation_id", res.Session.ID).
		Str("email", res.Account.Email).
		Int64("refund", res.Refund).
		Int64("balance", res.Account.CreditBalance).
		Msg("reservation cancelled")

	s.publish(events.ReservationCancelled, res.Session, res.Account, -res.Refund)
	return res, nil
}

func (s *Service) cancel(ctx context.Context, reservationID, email string) (*Cancellation, error) {
	if strings.TrimSpace(reservationID) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: reservation_id and email are required", ErrMalformedSelection)
	}

	acc, err := s.ledger.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	var out Cancellation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := repository.NewSessionRepository(tx)
		txLedger := s.ledger.WithTx(tx)
		now := s.now()

		ses, err := sessions.GetByID(ctx, reservationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrReservationNotFound
			}
			return err
		}
		if ses.UserID == nil || *ses.UserID != acc.ID {
			return ErrReservationNotFound
		}
		if ses.Status == domain.SessionCancelled {
			return ErrAlreadyCancelled
		}
		if !domain.CancellationOpen(ses.ScheduledAt, now) {
			return ErrCancellationWindowClosed
		}
		if ses.PaymentMethod == domain.PaymentPackage {
			if err := packageReleasable(ctx, sessions, txLedger, acc.ID, ses); err != nil {
				return err
			}
		}

		ok, err := sessions.MarkCancelled(ctx, ses.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyCancelled
		}

		refund := s.pricing.RefundFor(ses)
		err = txLedger.AdjustBalance(ctx, acc.ID, refund, ledger.Entry{
			Type:      domain.LedgerRefund,
			Reason:    "cancel " + ses.Name,
			SessionID: &ses.ID,
		})
		if err != nil {
			return err
		}

		if ses.PaymentMethod == domain.PaymentPackage {
			if _, err := txLedger.RevokePackage(ctx, acc.ID, ses.ID); err != nil {
				return err
			}
		}

		if ses.Seat != nil {
			if _, err := sessions.CreateIgnoringDuplicates(ctx, []domain.Session{catalog.OpenClone(ses)}); err != nil {
				return err
			}
		}

		cancelled, err := sessions.GetByID(ctx, ses.ID)
		if err != nil {
			return err
		}
		updated, err := txLedger.GetAccountByID(ctx, acc.ID)
		if err != nil {
			return err
		}

		out = Cancellation{Session: cancelled, Account: updated, Refund: refund}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// packageReleasable refuses to refund a plan that free credit bookings were made against.
func packageReleasable(ctx context.Context, sessions *repository.SessionRepository, l *ledger.Service, accountID string, ses *domain.Session) error {
	current, err := l.PlanGrantedBy(ctx, accountID, ses.ID)
	if err != nil || !current || ses.BookedAt == nil {
		return err
	}
	n, err := sessions.CountFreeCreditSince(ctx, accountID, *ses.BookedAt)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrPackageInUse
	}
	return nil
}

// ListUpcoming returns the account's next active reservation, or nil when there is none.
func (s *Service) ListUpcoming(ctx context.Context, email string) (*domain.Session, error) {
	acc, err := s.ledger.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	ses, err := repository.NewSessionRepository(s.db).NextUpcoming(ctx, acc.ID, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("next upcoming: %w", err)
	}
	return ses, nil
}

// surface passes domain errors through and hides persistence detail behind ErrTransactionFailed.
func (s *Service) surface(err error, op, email string) error {
	if isKnown(err) {
		return err
	}
	s.log.Error().Err(err).Str("op", op).Str("email", email).Msg("booking transaction failed")
	return fmt.Errorf("%w: %s", ErrTransactionFailed, op)
}

func (s *Service) publish(kind string, ses *domain.Session, acc *domain.Account, amount int64) {
	ev := events.ReservationEvent{
		ReservationID: ses.ID,
		AccountID:     acc.ID,
		Email:         acc.Email,
		ClassName:     ses.Name,
		ScheduledAt:   ses.ScheduledAt,
		PackageRef:    string(ses.PackageRef),
		PaymentMethod: string(ses.PaymentMethod),
		Amount:        amount,
		Balance:       acc.CreditBalance,
		OccurredAt:    s.now().UTC(),
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, kind, ev); err != nil {
			s.log.Warn().Err(err).Str("event", kind).Str("reservation_id", ev.ReservationID).Msg("event publish failed")
		}
	}()
}

// Drain waits for pending event publishes, or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrClassFull):
		return "class_full"
	case errors.Is(err, ErrSlotAlreadyTaken):
		return "slot_taken"
	case errors.Is(err, ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, ErrNoActivePlan):
		return "no_active_plan"
	case errors.Is(err, ErrSessionStarted):
		return "session_started"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case isKnown(err):
		return "invalid"
	default:
		return "transaction_failed"
	}
}
