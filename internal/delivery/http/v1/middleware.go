package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/projectpulse/backend/internal/models"
)

const currentUserCtxKey = "current_user"

// HandleAuthMiddleware is the sole authorization boundary: it resolves
// the bearer token to a full user record and stores it in the request
// context. A subject whose user row no longer exists is reported the
// same way as a bad token.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Warn().Msg("authorization header required")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Warn().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	subject, err := h.tokens.Parse(parts[1])
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to parse access token")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	user, err := h.users.GetByUsername(c, subject)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("subject", subject).
			Msg("failed to resolve token subject")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	c.Set(currentUserCtxKey, user)
	c.Next()
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
