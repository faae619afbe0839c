package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"overseas-housing/internal/service"
)

const authIdentityKey = "auth_identity"

const (
	msgUnauthorized = "Unauthorized"
	msgInvalidToken = "Invalid or expired token"
)

// JWTAuthMiddleware valida el access token y guarda la identidad en el contexto.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			abortWithError(c, http.StatusInternalServerError, codeInternal, "jwt not configured")
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgUnauthorized)
			return
		}
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgInvalidToken)
			return
		}

		c.Set(authIdentityKey, claims.Identity())
		c.Next()
	}
}

// bearerToken extrae el token de "Bearer <token>". El esquema no distingue mayúsculas.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetIdentity obtiene la identidad autenticada desde el contexto.
func GetIdentity(c *gin.Context) (service.Identity, bool) {
	val, ok := c.Get(authIdentityKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := val.(service.Identity)
	return id, ok && id.ID != ""
}

func mustIdentity(c *gin.Context) (service.Identity, bool) {
	id, ok := GetIdentity(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgUnauthorized)
	}
	return id, ok
}
