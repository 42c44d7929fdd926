package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
	ctxUserID           = "userId"
)

// userIdMiddleware guards /api/v1: every bridge read and control route
// requires a bearer token issued by /auth/sign-in.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader(authorizationHeader))
	if !ok {
		h.abortUnauthorized(c, "bearer token required")
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("token_rejected", "err", err)
		}
		h.abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

// bearerToken extracts the credential from an "Authorization: Bearer x"
// header. Any other scheme, or an empty credential, is rejected.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

func (h *Handler) abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
