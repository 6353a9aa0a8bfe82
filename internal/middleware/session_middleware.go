package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avolkov/gardenshop-backend/internal/app/service"
)

const (
	sessionCookieName = "cart_session"
	sessionCookieAge  = 60 * 60 * 24 * 30 // 30 days
	SessionKeyKey     = "session_key"
)

// SessionMiddleware issues an anonymous cart session cookie for guests. The
// cookie identifies the guest cart until the customer logs in.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(sessionCookieName)
		if err != nil || key == "" {
			key = uuid.New().String()
			c.SetCookie(sessionCookieName, key, sessionCookieAge, "/", "", false, true)
		}
		c.Set(SessionKeyKey, key)
		c.Next()
	}
}

// GetCartIdentity builds the cart owner identity for the request: the
// authenticated customer when present, the session cookie otherwise.
func GetCartIdentity(c *gin.Context) service.CartIdentity {
	if userID, ok := GetUserID(c); ok {
		return service.CartIdentity{UserID: &userID}
	}
	key := c.GetString(SessionKeyKey)
	if key == "" {
		return service.CartIdentity{}
	}
	return service.CartIdentity{SessionKey: &key}
}
