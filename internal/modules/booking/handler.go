package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"boozstudio/internal/cache"
	"boozstudio/internal/domain"
	"boozstudio/internal/metrics"
	"boozstudio/internal/middleware"
	"boozstudio/internal/pkg/response"
	"boozstudio/internal/pkg/validator"
)

const idempotencyHeader = "Idempotency-Key"

type Handler struct {
	service     *Service
	idempotency IdempotencyStore
	log         zerolog.Logger
}

// NewHandler wires the reservation routes. idem may be nil, which disables Idempotency-Key handling.
func NewHandler(service *Service, idem IdempotencyStore, log zerolog.Logger) *Handler {
	return &Handler{service: service, idempotency: idem, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations", h.Reserve)
	rg.POST("/reservations/cancel", h.Cancel)
	rg.GET("/reservations/upcoming", h.Upcoming)
}

// paymentFrom maps the wire fields onto a Payment. Without payment_method the
// package id decides: LMV and MJ buy the plan, anything else is a drop-in class.
func paymentFrom(body ReserveBody) (Payment, error) {
	method := strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	ref, refOK := domain.ParsePackageRef(body.PackageID)

	switch domain.PaymentMethod(method) {
	case domain.PaymentPackage:
		if !refOK {
			return nil, ErrMalformedSelection
		}
		return PackagePurchase{Kind: ref}, nil
	case domain.PaymentSingle:
		return SingleSession{}, nil
	case domain.PaymentSample:
		return SingleSession{Sample: true}, nil
	case domain.PaymentCredit:
		return CreditUse{}, nil
	case "":
		if refOK && ref.IsPlan() {
			return PackagePurchase{Kind: ref}, nil
		}
		return SingleSession{}, nil
	default:
		return nil, ErrMalformedSelection
	}
}

// Reserve handles POST /reservations
func (h *Handler) Reserve(c *gin.Context) {
	var body ReserveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}
	if !middleware.CanActFor(c, body.Email) {
		response.Forbidden(c, "You can only book for your own account")
		return
	}

	payment, err := paymentFrom(body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	scope := domain.NormalizeEmail(body.Email)
	if key != "" && h.idempotency != nil {
		cached, err := h.idempotency.Begin(c.Request.Context(), scope, key)
		switch {
		case errors.Is(err, cache.ErrInProgress):
			response.Error(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is still running")
			return
		case err != nil:
			// Redis trouble must not block bookings.
			h.log.Warn().Err(err).Msg("idempotency store unavailable")
			key = ""
		case cached != nil:
			metrics.IdempotencyTotal.WithLabelValues("hit").Inc()
			c.Header("Idempotent-Replayed", "true")
			c.Data(http.StatusCreated, "application/json; charset=utf-8", cached)
			return
		default:
			metrics.IdempotencyTotal.WithLabelValues("miss").Inc()
		}
	} else {
		key = ""
	}

	res, err := h.service.Reserve(c.Request.Context(), ReserveRequest{
		Email:      body.Email,
		Selection:  body.Selection,
		SpotNumber: body.SpotNumber,
		Payment:    payment,
	})
	if err != nil {
		if key != "" {
			if aerr := h.idempotency.Abort(c.Request.Context(), scope, key); aerr != nil {
				h.log.Warn().Err(aerr).Msg("idempotency abort failed")
			}
		}
		h.handleError(c, err)
		return
	}

	payload, err := json.Marshal(gin.H{
		"success": true,
		"data": gin.H{
			"user_updated": res.Account,
			"reservation":  toReservationResponse(res.Session, time.Now()),
		},
	})
	if err != nil {
		_ = c.Error(err)
		response.Internal(c, "An internal error occurred")
		return
	}

	if key != "" {
		if err := h.idempotency.Finish(c.Request.Context(), scope, key, payload); err != nil {
			h.log.Warn().Err(err).Msg("idempotency finish failed")
		}
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", payload)
}

// Cancel handles POST /reservations/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var body CancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}
	if !middleware.CanActFor(c, body.UserEmail) {
		response.Forbidden(c, "You can only cancel your own reservations")
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), body.ReservationID, body.UserEmail)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "Reservation cancelled and credit returned",
		"refund":       res.Refund,
		"user_updated": res.Account,
	})
}

// Upcoming handles GET /reservations/upcoming?email=
func (h *Handler) Upcoming(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		email = middleware.Email(c)
	}
	if !middleware.CanActFor(c, email) {
		response.Forbidden(c, "You can only view your own reservations")
		return
	}

	ses, err := h.service.ListUpcoming(c.Request.Context(), email)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var next *ReservationResponse
	if ses != nil {
		r := toReservationResponse(ses, time.Now())
		next = &r
	}
	response.Success(c, http.StatusOK, gin.H{"next": next})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		response.NotFound(c, "Account not found")
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(c, "Session not found")
	case errors.Is(err, ErrReservationNotFound):
		response.NotFound(c, "Reservation not found")
	case errors.Is(err, ErrMalformedSelection), errors.Is(err, ErrInvalidSpot), errors.Is(err, ErrNotSampleSlot):
		response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, ErrInsufficientBalance):
		response.Error(c, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE", "Insufficient balance")
	case errors.Is(err, ErrCancellationWindowClosed):
		response.Error(c, http.StatusConflict, "CANCELLATION_WINDOW_CLOSED", "Reservations can only be cancelled more than 24 hours before the class")
	case errors.Is(err, ErrSlotAlreadyTaken):
		response.Error(c, http.StatusConflict, "SLOT_ALREADY_TAKEN", "This spot was just taken, pick another one")
	case errors.Is(err, ErrClassFull):
		response.Error(c, http.StatusConflict, "CLASS_FULL", "This class is full")
	case errors.Is(err, ErrAlreadyBooked):
		response.Error(c, http.StatusConflict, "ALREADY_BOOKED", "You already have a reservation at this time")
	case errors.Is(err, ErrNoActivePlan):
		response.Error(c, http.StatusConflict, "NO_ACTIVE_PLAN", "No active package covers this class")
	case errors.Is(err, ErrSessionStarted):
		response.Error(c, http.StatusConflict, "SESSION_STARTED", "This class has already started")
	case errors.Is(err, ErrPackageInUse):
		response.Error(c, http.StatusConflict, "PACKAGE_IN_USE", "Cancel the classes booked with this package first")
	case errors.Is(err, ErrAlreadyCancelled):
		response.Error(c, http.StatusConflict, "ALREADY_CANCELLED", "Reservation was already cancelled")
	default:
		_ = c.Error(err)
		response.Internal(c, "Failed to process reservation")
	}
}
