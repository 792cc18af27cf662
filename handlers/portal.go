package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/config"
	"github.com/HARIOM-JHA01/addmy-partner/middleware"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	dashboardPath = "/partner/dashboard"
	welcomePath   = "/partner/welcome"
	packagesPath  = "/partner/packages"
	usersPath     = "/partner/users"
	paymentsPath  = "/partner/payments"
)

// Portal serves the partner pages. All partner data is fetched from the
// backend per request through the caller's session.
type Portal struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

func NewPortal(cfg *config.Config, log *zap.Logger) *Portal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Portal{cfg: cfg, log: log.Named("handlers"), now: time.Now}
}

// render fills the keys every layout expects and writes the page.
func (p *Portal) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Active"]; !ok {
		data["Active"] = ""
	}
	s := middleware.CurrentSession(c)
	if _, ok := data["Partner"]; !ok {
		partner := middleware.CurrentPartner(c)
		if partner == nil && s != nil {
			partner = s.Snapshot().Partner
		}
		data["Partner"] = partner
	}
	if s != nil {
		data["Flashes"] = s.PopFlashes()
	}
	data["DevMode"] = p.cfg.TelegramDevMode
	c.HTML(status, name, data)
}

// fail renders a page with its inline error banner. An expired token has
// already signed the session out, so the caller is sent to login instead.
func (p *Portal) fail(c *gin.Context, err error, name, fallback string, data gin.H) {
	if isUnauthorized(err) {
		p.expired(c)
		return
	}
	p.log.Warn("backend call failed", zap.String("page", name), zap.Error(err))
	if data == nil {
		data = gin.H{}
	}
	data["Error"] = apiclient.MessageOf(err, fallback)
	p.render(c, http.StatusOK, name, data)
}

func (p *Portal) expired(c *gin.Context) {
	if s := middleware.CurrentSession(c); s != nil {
		s.AddFlash("error", "Your session has expired. Please log in again.")
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

func isUnauthorized(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized)
}

func currentSession(c *gin.Context) *session.Session {
	return middleware.CurrentSession(c)
}

// Healthz reports liveness for probes.
func (p *Portal) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": p.now().UTC().Format(time.RFC3339)})
}

func (p *Portal) NotFound(c *gin.Context) {
	p.render(c, http.StatusNotFound, "404.html", gin.H{"Title": "Not Found"})
}
