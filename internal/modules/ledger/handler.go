package ledger

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"boozstudio/internal/middleware"
	"boozstudio/internal/pkg/response"
	"boozstudio/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts routes for any authenticated caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/accounts/:email", h.GetAccount)
	rg.POST("/accounts/packages", h.PurchasePackage)
}

// RegisterStaffRoutes mounts coach/admin account management.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/accounts", h.ListAccounts)
	rg.POST("/accounts/:email/credits", h.GrantCredit)
	rg.PATCH("/accounts/:id", h.UpdateProfile)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/accounts/:id", h.DeleteAccount)
}

func (h *Handler) GetAccount(c *gin.Context) {
	email := c.Param("email")
	if !middleware.CanActFor(c, email) {
		response.Forbidden(c, "You can only view your own account")
		return
	}

	view, err := h.service.AccountView(c.Request.Context(), email)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) PurchasePackage(c *gin.Context) {
	var req PurchasePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}
	if !middleware.CanActFor(c, req.Email) {
		response.Forbidden(c, "You can only buy packages for your own account")
		return
	}

	acc, err := h.service.PurchasePackage(c.Request.Context(), req.Email, req.Package)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_updated": acc})
}

func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.service.ListAccounts(c.Request.Context(), c.Query("role"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"accounts": accounts})
}

func (h *Handler) GrantCredit(c *gin.Context) {
	var req GrantCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}

	acc, err := h.service.GrantCredit(c.Request.Context(), c.Param("email"), req.Amount, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_updated": acc})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", validator.Fields(err))
		return
	}

	acc, err := h.service.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_updated": acc})
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")
	if id == middleware.AccountID(c) {
		response.ValidationError(c, "You cannot delete your own account", nil)
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		response.NotFound(c, "Account not found")
	case errors.Is(err, ErrInsufficientBalance):
		response.Error(c, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE", "Insufficient balance")
	case errors.Is(err, ErrInvalidPackage), errors.Is(err, ErrGrantTooSmall), errors.Is(err, ErrInvalidRole):
		response.ValidationError(c, err.Error(), nil)
	default:
		_ = c.Error(err)
		response.Internal(c, "An internal error occurred")
	}
}
