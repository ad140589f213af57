package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
	"boozstudio/internal/repository"
)

const (
	// HorizonDays is how far ahead a recurring pattern is materialised.
	HorizonDays  = 28
	DefaultColor = "#8FD9FB"
)

type Service struct {
	sessions SessionRepository
	pricing  *pricing.Policy
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(sessions SessionRepository, policy *pricing.Policy, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		pricing:  policy,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.loc }

// ListOpenSessions returns bookable slots in [from, to), ascending.
func (s *Service) ListOpenSessions(ctx context.Context, from, to time.Time) ([]domain.Session, error) {
	return s.ListSessions(ctx, from, to, false)
}

// ListSessions is the calendar view; includeReserved adds active and completed reservations.
func (s *Service) ListSessions(ctx context.Context, from, to time.Time, includeReserved bool) ([]domain.Session, error) {
	if !to.After(from) {
		return []domain.Session{}, nil
	}
	sessions, err := s.sessions.ListBetween(ctx, from, to, includeReserved)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DayAvailability groups the sessions of one local calendar day by start time.
func (s *Service) DayAvailability(ctx context.Context, day time.Time) ([]SlotAvailability, error) {
	from := domain.StartOfDay(day, s.loc)
	to := from.AddDate(0, 0, 1)

	sessions, err := s.sessions.ListBetween(ctx, from, to, true)
	if err != nil {
		return nil, fmt.Errorf("day availability: %w", err)
	}

	now := s.now()
	byStart := make(map[time.Time]*SlotAvailability)
	order := make([]time.Time, 0)

	for i := range sessions {
		ses := &sessions[i]
		at := ses.ScheduledAt.In(s.loc)
		key := at.UTC()

		slot, ok := byStart[key]
		if !ok {
			slot = &SlotAvailability{
				Hour:       at.Format(domain.HourLayout),
				StartsAt:   at,
				Name:       ses.Name,
				Category:   ses.Category,
				Beds:       domain.BedsPerClass(at.Weekday()),
				TakenBeds:  make([]int, 0),
				Sample:     s.pricing.IsSampleSlot(at),
				HasStarted: !at.After(now),
			}
			byStart[key] = slot
			order = append(order, key)
		}

		slot.Total++
		if ses.Status == domain.SessionOpen && ses.UserID == nil {
			slot.Open++
		}
		if ses.Status == domain.SessionActive && ses.SpotNumber != nil {
			slot.TakenBeds = append(slot.TakenBeds, *ses.SpotNumber)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]SlotAvailability, 0, len(order))
	for _, key := range order {
		slot := byStart[key]
		sort.Ints(slot.TakenBeds)
		slot.Status = occupancy(slot.Open, slot.Total)
		out = append(out, *slot)
	}
	return out, nil
}

// CreateRecurringSessions materialises the pattern and returns how many slots were added.
// Slots that already exist are skipped, so repeating a call is harmless.
func (s *Service) CreateRecurringSessions(ctx context.Context, p RecurringPattern) (int64, error) {
	ref, ok := domain.ParsePackageRef(p.PackageRef)
	if !ok || !ref.IsPlan() {
		return 0, fmt.Errorf("%w: package_ref must be LMV or MJ", ErrInvalidPattern)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidPattern)
	}
	start, err := domain.ParseLocal(p.StartDate, p.Hour, s.loc)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	var sessions []domain.Session
	for d := 0; d < HorizonDays; d++ {
		at := start.AddDate(0, 0, d)
		if !ref.Covers(at.Weekday()) {
			continue
		}
		for seat := 1; seat <= seatsFor(p.Seats, at.Weekday()); seat++ {
			sessions = append(sessions, newOpenSlot(name, p.Topic, p.Description, ref, at, seat, p.Color, p.ImageURL))
		}
	}

	created, err := s.sessions.CreateIgnoringDuplicates(ctx, sessions)
	if err != nil {
		return 0, fmt.Errorf("create recurring sessions: %w", err)
	}

	s.log.Info().
		Str("name", name).
		Str("package_ref", string(ref)).
		Str("hour", p.Hour).
		Int("generated", len(sessions)).
		Int64("created", created).
		Msg("recurring sessions created")

	return created, nil
}

// CreateSingleSession adds an open drop-in class and returns its first seat.
func (s *Service) CreateSingleSession(ctx context.Context, spec SingleSpec) (*domain.Session, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSession)
	}
	at, err := domain.ParseLocal(spec.Date, spec.Hour, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	seats := seatsFor(spec.Seats, at.Weekday())
	ses := newOpenSlot(name, spec.Topic, spec.Description, domain.PackageSuelta, at, 1, spec.Color, spec.ImageURL)
	if err := s.sessions.Create(ctx, &ses); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	rest := make([]domain.Session, 0, seats-1)
	for seat := 2; seat <= seats; seat++ {
		rest = append(rest, newOpenSlot(name, spec.Topic, spec.Description, domain.PackageSuelta, at, seat, spec.Color, spec.ImageURL))
	}
	if _, err := s.sessions.CreateIgnoringDuplicates(ctx, rest); err != nil {
		return nil, fmt.Errorf("create session seats: %w", err)
	}
	return &ses, nil
}

// seatsFor defaults to one seat per bed of that day.
func seatsFor(requested int, d time.Weekday) int {
	if requested > 0 {
		return requested
	}
	return domain.BedsPerClass(d)
}

// DeleteSession removes a slot. Active reservations must be cancelled first so the refund happens.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	ses, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if ses.Status == domain.SessionActive {
		return ErrSessionReserved
	}

	n, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteAllSessions wipes the whole calendar, reservations included.
func (s *Service) DeleteAllSessions(ctx context.Context, confirm string) (int64, error) {
	if confirm != ResetPhrase {
		return 0, ErrConfirmation
	}
	n, err := s.sessions.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}
	s.log.Warn().Int64("deleted", n).Msg("calendar reset")
	return n, nil
}

func newOpenSlot(name, topic, description string, ref domain.PackageRef, at time.Time, seat int, color, image string) domain.Session {
	at = at.UTC()
	key := domain.SlotKey(name, ref, at, seat)
	seatNo := seat
	if color == "" {
		color = DefaultColor
	}
	return domain.Session{
		Name:        name,
		Topic:       topic,
		Description: description,
		ScheduledAt: at,
		Category:    ref,
		PackageRef:  ref,
		Status:      domain.SessionOpen,
		Seat:        &seatNo,
		SlotKey:     &key,
		Color:       color,
		ImageURL:    image,
	}
}

// OpenClone returns a fresh open slot equivalent to the catalog slot behind a reservation.
func OpenClone(r *domain.Session) domain.Session {
	seat := 1
	if r.Seat != nil {
		seat = *r.Seat
	}
	return newOpenSlot(r.Name, r.Topic, r.Description, r.Category, r.ScheduledAt, seat, r.Color, r.ImageURL)
}
