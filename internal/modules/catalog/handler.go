package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"boozstudio/internal/domain"
	"boozstudio/internal/pkg/response"
	"boozstudio/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public calendar.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions", h.ListSessions)
	rg.GET("/sessions/availability", h.DayAvailability)
}

// RegisterStaffRoutes mounts calendar authoring; the group must require coach or admin.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/catalog/recurring", h.CreateRecurring)
	rg.POST("/catalog/single", h.CreateSingle)
	rg.DELETE("/catalog/sessions/:id", h.DeleteSession)
}

// RegisterAdminRoutes mounts the calendar reset.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/catalog/sessions", h.DeleteAll)
}

// ListSessions handles GET /sessions?from=YYYY-MM-DD&to=YYYY-MM-DD&include_reserved=true
func (h *Handler) ListSessions(c *gin.Context) {
	loc := h.service.Location()

	from := domain.StartOfDay(time.Now(), loc)
	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(domain.DateLayout, v, loc)
		if err != nil {
			response.ValidationError(c, "from must be YYYY-MM-DD", nil)
			return
		}
		from = t
	}

	to := from.AddDate(0, 0, HorizonDays)
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(domain.DateLayout, v, loc)
		if err != nil {
			response.ValidationError(c, "to must be YYYY-MM-DD", nil)
			return
		}
		// inclusive day in the query, exclusive bound internally
		to = t.AddDate(0, 0, 1)
	}

	includeReserved, _ := strconv.ParseBool(c.Query("include_reserved"))

	sessions, err := h.service.ListSessions(c.Request.Context(), from, to, includeReserved)
	if err != nil {
		handleError(c, err)
		return
	}

	now := time.Now()
	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i], now))
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": out})
}

// DayAvailability handles GET /sessions/availability?date=YYYY-MM-DD
func (h *Handler) DayAvailability(c *gin.Context) {
	day, err := time.ParseInLocation(domain.DateLayout, c.Query("date"), h.service.Location())
	if err != nil {
		response.ValidationError(c, "date must be YYYY-MM-DD", nil)
		return
	}

	slots, err := h.service.DayAvailability(c.Request.Context(), day)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"date":  day.Format(domain.DateLayout),
		"slots": slots,
	})
}

func (h *Handler) CreateRecurring(c *gin.Context) {
	var req RecurringPattern
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}

	created, err := h.service.CreateRecurringSessions(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": created})
}

func (h *Handler) CreateSingle(c *gin.Context) {
	var req SingleSpec
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}

	ses, err := h.service.CreateSingleSession(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": toSessionResponse(ses, time.Now())})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.service.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) DeleteAll(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Confirmation phrase is required", validator.Fields(err))
		return
	}

	n, err := h.service.DeleteAllSessions(c.Request.Context(), req.Confirm)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(c, "Session not found")
	case errors.Is(err, ErrInvalidPattern), errors.Is(err, ErrInvalidSession):
		response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, ErrConfirmation):
		response.ValidationError(c, "Type "+ResetPhrase+" to confirm", nil)
	case errors.Is(err, ErrSessionReserved):
		response.Error(c, http.StatusConflict, "SESSION_RESERVED", "Cancel the reservation before deleting this session")
	case errors.Is(err, ErrDuplicateSession):
		response.Error(c, http.StatusConflict, "SESSION_EXISTS", "A session with that name already exists at this time")
	default:
		_ = c.Error(err)
		response.Internal(c, "An internal error occurred")
	}
}
