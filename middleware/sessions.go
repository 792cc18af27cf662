package middleware

import (
	"net/http"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/auth"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionContextKey = "session"

// CookieConfig controls the signed session cookie.
type CookieConfig struct {
	Name   string
	Secret string
	Secure bool
	MaxAge time.Duration
	Now    func() time.Time
}

// Sessions attaches the browser session to the request, creating one when the
// cookie is missing, expired or signed with another secret. The cookie is
// re-signed on every request, so MaxAge counts from the last visit.
func Sessions(mgr *session.Manager, cc CookieConfig, log *zap.Logger) gin.HandlerFunc {
	if cc.Now == nil {
		cc.Now = time.Now
	}
	return func(c *gin.Context) {
		now := cc.Now()
		var s *session.Session
		if value, err := c.Cookie(cc.Name); err == nil && value != "" {
			if sid, err := auth.ParseSessionIDAt(cc.Secret, value, now); err == nil {
				s = mgr.Get(sid)
			} else {
				log.Debug("discarding session cookie", zap.Error(err))
			}
		}

		if s == nil {
			s = mgr.New()
		}

		value, err := auth.SignSessionIDAt(cc.Secret, s.ID(), cc.MaxAge, now)
		if err != nil {
			log.Error("sign session cookie", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		// The web clients embed the app in a cross-site iframe.
		if cc.Secure {
			c.SetSameSite(http.SameSiteNoneMode)
		} else {
			c.SetSameSite(http.SameSiteLaxMode)
		}
		c.SetCookie(cc.Name, value, int(cc.MaxAge.Seconds()), "/", "", cc.Secure, true)

		s.Start()
		c.Set(sessionContextKey, s)
		c.Next()
	}
}

// CurrentSession returns the session attached by Sessions.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
