package catalog

import (
	"time"

	"boozstudio/internal/domain"
)

// ResetPhrase must be sent verbatim to wipe the calendar.
const ResetPhrase = "RESET CALENDAR"

// RecurringPattern describes a weekly class generated over the next 28 days.
type RecurringPattern struct {
	Name        string `json:"name" binding:"required"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	PackageRef  string `json:"package_ref" binding:"required"`
	Hour        string `json:"hour" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	Seats       int    `json:"seats" binding:"omitempty,min=1,max=20"`
	Color       string `json:"color"`
	ImageURL    string `json:"image_url"`
}

// SingleSpec describes one drop-in class.
type SingleSpec struct {
	Name        string `json:"name" binding:"required"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	Hour        string `json:"hour" binding:"required"`
	Seats       int    `json:"seats" binding:"omitempty,min=1,max=20"`
	Color       string `json:"color"`
	ImageURL    string `json:"image_url"`
}

type ResetRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

type SessionResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Topic       string               `json:"topic"`
	Description string               `json:"description,omitempty"`
	ScheduledAt time.Time            `json:"scheduled_at"`
	Category    domain.PackageRef    `json:"category"`
	PackageRef  domain.PackageRef    `json:"package_ref"`
	Status      domain.SessionStatus `json:"status"`
	Reserved    bool                 `json:"reserved"`
	Seat        *int                 `json:"seat,omitempty"`
	SpotNumber  *int                 `json:"spot_number,omitempty"`
	Color       string               `json:"color"`
	ImageURL    string               `json:"image_url,omitempty"`
}

func toSessionResponse(s *domain.Session, now time.Time) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Topic:       s.Topic,
		Description: s.Description,
		ScheduledAt: s.ScheduledAt,
		Category:    s.Category,
		PackageRef:  s.PackageRef,
		Status:      s.EffectiveStatus(now),
		Reserved:    s.IsReservation(),
		Seat:        s.Seat,
		SpotNumber:  s.SpotNumber,
		Color:       s.Color,
		ImageURL:    s.ImageURL,
	}
}

type Occupancy string

const (
	OccupancyFull Occupancy = "full"
	OccupancyLow  Occupancy = "low"
	OccupancyOK   Occupancy = "ok"
)

// SlotAvailability summarises one start time of a day.
type SlotAvailability struct {
	Hour       string            `json:"hour"`
	StartsAt   time.Time         `json:"starts_at"`
	Name       string            `json:"name"`
	Category   domain.PackageRef `json:"category"`
	Total      int               `json:"total"`
	Open       int               `json:"open"`
	Status     Occupancy         `json:"status"`
	Beds       int               `json:"beds"`
	TakenBeds  []int             `json:"taken_beds"`
	Sample     bool              `json:"sample"`
	HasStarted bool              `json:"has_started"`
}

func occupancy(open, total int) Occupancy {
	switch {
	case open == 0:
		return OccupancyFull
	case open*4 <= total:
		return OccupancyLow
	default:
		return OccupancyOK
	}
}
