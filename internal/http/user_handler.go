package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"overseas-housing/internal/domain"
	"overseas-housing/internal/service"
)

// UserHandler expone el directorio de usuarios por rol.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService) *UserHandler {
	return &UserHandler{logger: logger, userServ: userServ}
}

// ListConsultants maneja GET /api/users/consultants.
func (h *UserHandler) ListConsultants(c *gin.Context) {
	h.listRole(c, string(domain.RoleConsultant))
}

// ListRepresentatives maneja GET /api/users/representatives.
func (h *UserHandler) ListRepresentatives(c *gin.Context) {
	h.listRole(c, string(domain.RoleRepresentative))
}

// ListByRole maneja GET /api/users?role=.
func (h *UserHandler) ListByRole(c *gin.Context) {
	h.listRole(c, c.Query("role"))
}

func (h *UserHandler) listRole(c *gin.Context, role string) {
	users, err := h.userServ.ListByRole(c.Request.Context(), role)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Invalid role")
			return
		}
		writeServiceError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
