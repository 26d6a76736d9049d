package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/session"
)

const (
	sessionIDCtxKey = "session_id"
	userIDCtxKey    = "user_id"
)

// SessionMiddleware resolves the session cookie into a request-scoped user
// reference. Visitors without a valid session get a fresh anonymous one so
// flash notices always have a home.
func SessionMiddleware(store *session.Store, cookieName string, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID int
		id, err := c.Cookie(cookieName)
		ok := false
		if err == nil {
			userID, ok = store.Lookup(id)
		}
		if !ok {
			id, err = store.Create(0)
			if err != nil {
				logger.Error("Failed to create session", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			SetSessionCookie(c, cookieName, id, ttl)
			userID = 0
		}

		c.Set(sessionIDCtxKey, id)
		if userID > 0 {
			c.Set(userIDCtxKey, userID)
		}
		c.Next()
	}
}

// RequireAuthenticated passes only requests carrying a user reference;
// everyone else is redirected to the login page with a notice.
func RequireAuthenticated(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			store.AddFlash(SessionID(c), "Please log in to view this resource")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnonymous blocks signed-in users from re-visiting the auth pages.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); ok {
			c.Redirect(http.StatusFound, "/read")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id from the request context.
func CurrentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get(userIDCtxKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// SessionID returns the current session id, authenticated or not.
func SessionID(c *gin.Context) string {
	v, exists := c.Get(sessionIDCtxKey)
	if !exists {
		return ""
	}
	id, _ := v.(string)
	return id
}

func SetSessionCookie(c *gin.Context, name, id string, ttl time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(name, id, int(ttl.Seconds()), "/", "", secure, httpOnly)
}
