package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the portal. sessions attaches the browser session, guard
// protects partner pages and loginLimit throttles sign-in attempts.
func (p *Portal) Register(r *gin.Engine, sessions, guard, loginLimit gin.HandlerFunc) {
	r.GET("/healthz", p.Healthz)

	portal := r.Group("/", sessions)
	{
		portal.GET("/", redirectTo(dashboardPath))
		portal.GET("/partner", redirectTo(dashboardPath))
		portal.GET("/partner/login", p.LoginPage)
		portal.POST("/partner/login", loginLimit, p.Login)
		portal.POST("/partner/logout", p.Logout)
	}

	partner := r.Group("/partner", sessions, guard)
	{
		partner.GET("/welcome", p.Welcome)
		partner.GET("/dashboard", p.Dashboard)
		partner.GET("/profile", p.Profile)
		partner.GET("/packages", p.Packages)
		partner.POST("/packages/purchase", p.Purchase)
		partner.GET("/payments", p.Payments)
		partner.GET("/users", p.Users)
		partner.GET("/users/:id", p.UserDetail)
		partner.POST("/users/:id/renew", p.Renew)
	}

	r.NoRoute(sessions, p.NotFound)
}

// LoginThrottled answers a rate-limited sign-in attempt.
func (p *Portal) LoginThrottled(c *gin.Context) {
	p.render(c, http.StatusTooManyRequests, "login.html", gin.H{
		"Title":   "Partner Login",
		"Partner": nil,
		"Error":   "Too many login attempts. Please wait a minute and try again.",
	})
}

func redirectTo(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, path)
	}
}
