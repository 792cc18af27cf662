package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (p *Portal) Welcome(c *gin.Context) {
	p.render(c, http.StatusOK, "welcome.html", gin.H{"Title": "Welcome"})
}

// Dashboard shows credit pools, referral details and counters.
func (p *Portal) Dashboard(c *gin.Context) {
	data := gin.H{"Title": "Dashboard", "Active": "dashboard"}

	stats, err := currentSession(c).API().Dashboard(c.Request.Context())
	if err != nil {
		p.fail(c, err, "dashboard.html", "Failed to load dashboard", data)
		return
	}
	data["Stats"] = stats
	p.render(c, http.StatusOK, "dashboard.html", data)
}

// Profile re-reads the partner and refreshes the session's copy with it.
func (p *Portal) Profile(c *gin.Context) {
	data := gin.H{"Title": "Profile", "Active": "profile"}

	s := currentSession(c)
	profile, err := s.API().Profile(c.Request.Context())
	if err != nil {
		p.fail(c, err, "profile.html", "Failed to load profile", data)
		return
	}
	s.UpdatePartner(*profile)
	data["Profile"] = profile
	data["Partner"] = profile
	p.render(c, http.StatusOK, "profile.html", data)
}
