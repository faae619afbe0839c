package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"overseas-housing/internal/service"
)

// Códigos estables del campo "error"; "message" lleva el texto para el usuario.
const (
	codeUnauthorized    = "unauthorized"
	codeForbidden       = "forbidden"
	codeNotFound        = "not_found"
	codeInvalidArgument = "invalid_argument"
	codeRateLimited     = "rate_limited"
	codeInternal        = "internal"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: message})
}

// classifyError traduce errores de servicio a status HTTP, código y mensaje.
func classifyError(err error) (int, string, string) {
	message := "Internal server error"
	var chatErr *service.ChatError
	if errors.As(err, &chatErr) {
		message = chatErr.Message
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized, orDefault(chatErr, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, codeForbidden, orDefault(chatErr, "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound, orDefault(chatErr, "Not found")
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, codeInvalidArgument, orDefault(chatErr, "Invalid request")
	}
	return http.StatusInternalServerError, codeInternal, message
}

func orDefault(chatErr *service.ChatError, fallback string) string {
	if chatErr != nil && chatErr.Message != "" {
		return chatErr.Message
	}
	return fallback
}

// writeServiceError responde con el error traducido; los 5xx se loguean con detalle.
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, code, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	}
	abortWithError(c, status, code, message)
}
