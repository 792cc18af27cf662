package middleware

import (
	"net/http"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/gin-gonic/gin"
)

const (
	LoginPath       = "/partner/login"
	partnerCtxKey   = "partner"
	loadingTemplate = "loading.html"
)

// Decision is the outcome of the route guard.
type Decision int

const (
	Wait Decision = iota
	Redirect
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decide maps a session snapshot to a guard decision. While the session is
// still loading nothing is decided yet.
func Decide(snap session.Snapshot) Decision {
	switch {
	case snap.Loading:
		return Wait
	case snap.Partner == nil:
		return Redirect
	}
	return Allow
}

// RequireAuth guards partner pages. It waits up to wait for the session to
// settle; a session still loading after that gets the loading page, which
// refreshes itself.
func RequireAuth(wait time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if s == nil {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		snap := s.Await(c.Request.Context(), wait)
		switch Decide(snap) {
		case Wait:
			c.Header("Cache-Control", "no-store")
			c.HTML(http.StatusOK, loadingTemplate, gin.H{"Title": "Loading"})
			c.Abort()
		case Redirect:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		default:
			c.Set(partnerCtxKey, snap.Partner)
			c.Next()
		}
	}
}

// CurrentPartner returns the partner snapshot the guard admitted.
func CurrentPartner(c *gin.Context) *models.Partner {
	if v, ok := c.Get(partnerCtxKey); ok {
		if p, ok := v.(*models.Partner); ok {
			return p
		}
	}
	return nil
}
