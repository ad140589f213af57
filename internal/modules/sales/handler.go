package sales

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boozstudio/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts the report; the group must require admin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/sales/summary", h.Summary)
}

// Summary handles GET /sales/summary
func (h *Handler) Summary(c *gin.Context) {
	sum, err := h.service.Summary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Internal(c, "Failed to compute sales summary")
		return
	}
	response.Success(c, http.StatusOK, sum)
}
