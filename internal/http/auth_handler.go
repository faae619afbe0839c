package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"overseas-housing/internal/domain"
	"overseas-housing/internal/service"
)

// AuthHandler mantiene dependencias para registro, login y tokens.
type AuthHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
}

func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
	}
}

type authResponse struct {
	User domain.User `json:"user"`
	service.TokenPair
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Missing required fields")
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Missing required fields")
		case errors.Is(err, service.ErrInvalidRole):
			abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Invalid role")
		case errors.Is(err, service.ErrEmailTaken):
			abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Email is already registered")
		default:
			writeServiceError(c, h.logger, "register", err)
		}
		return
	}

	h.respondWithTokens(c, http.StatusCreated, user)
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Missing credentials")
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "Missing credentials")
		case errors.Is(err, service.ErrInvalidCredentials):
			abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrRateLimited):
			abortWithError(c, http.StatusTooManyRequests, codeRateLimited, "Too many login attempts, try again later")
		default:
			writeServiceError(c, h.logger, "login", err)
		}
		return
	}

	h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh maneja POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "refreshToken is required")
		return
	}
	tokens, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgInvalidToken)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Logout maneja POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, "refreshToken is required")
		return
	}
	if err := h.jwtServ.RevokeRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Warn("refresh revoke failed", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// LogoutAll maneja POST /api/auth/logout-all: cierra todas las sesiones del usuario.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	n, err := h.jwtServ.RevokeAllRefresh(c.Request.Context(), id.ID)
	if err != nil {
		h.logger.Error("refresh revoke all failed", zap.String("user_id", id.ID), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, codeInternal, "could not revoke sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": n})
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, user domain.User) {
	tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, codeInternal, "could not issue tokens")
		return
	}
	c.JSON(status, authResponse{User: user, TokenPair: tokens})
}
