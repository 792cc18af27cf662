package handlers

import (
	"errors"
	"net/http"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/middleware"
	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/HARIOM-JHA01/addmy-partner/telegram"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgNoTelegramUser = "Unable to get Telegram user data. Please try again."
	msgLoginFailed    = "Login failed. Please try again."
)

// LoginPage shows the Telegram sign-in button, or sends an already signed-in
// partner to the dashboard.
func (p *Portal) LoginPage(c *gin.Context) {
	s := currentSession(c)
	snap := s.Await(c.Request.Context(), p.cfg.SessionInitWait)
	if snap.Authenticated() {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}
	p.render(c, http.StatusOK, "login.html", gin.H{"Title": "Partner Login", "Partner": nil})
}

// Login verifies the Telegram identity and signs the partner in, creating the
// partner on first use.
func (p *Portal) Login(c *gin.Context) {
	s := currentSession(c)

	identity, err := p.identify(c.PostForm("initData"))
	if err != nil {
		p.log.Warn("rejected telegram identity", zap.Error(err), zap.String("ip", c.ClientIP()))
		monitoring.LoginsTotal.WithLabelValues("invalid_identity").Inc()
		p.render(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title": "Partner Login", "Partner": nil, "Error": msgNoTelegramUser,
		})
		return
	}

	resp, err := s.Login(c.Request.Context(), session.Claim{
		ExternalID:  identity.IDString(),
		DisplayName: identity.DisplayName(),
		Handle:      identity.Handle(),
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		p.log.Warn("partner login failed", zap.Int64("tgid", identity.ID), zap.Error(err))
		monitoring.LoginsTotal.WithLabelValues("failed").Inc()
		status := http.StatusBadGateway
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusUnauthorized
		}
		p.render(c, status, "login.html", gin.H{
			"Title": "Partner Login", "Partner": nil, "Error": apiclient.MessageOf(err, msgLoginFailed),
		})
		return
	}

	outcome := classifyLogin(resp.Raw, resp.Partner)
	monitoring.LoginsTotal.WithLabelValues(outcome.String()).Inc()
	p.log.Info("partner signed in", zap.String("partner", resp.Partner.ID), zap.Stringer("outcome", outcome))

	if outcome == newPartner {
		c.Redirect(http.StatusFound, welcomePath)
		return
	}
	c.Redirect(http.StatusFound, dashboardPath)
}

func (p *Portal) identify(initData string) (*telegram.Identity, error) {
	if initData == "" {
		if p.cfg.TelegramDevMode {
			return &telegram.Identity{ID: p.cfg.DevTelegramID, FirstName: "Dev", LastName: "Partner"}, nil
		}
		return nil, telegram.ErrNoUser
	}
	return telegram.ValidateInitData(initData, p.cfg.TelegramBotToken, p.cfg.InitDataMaxAge, p.now())
}

// Logout signs the session out from any state.
func (p *Portal) Logout(c *gin.Context) {
	currentSession(c).Logout(c.Request.Context())
	c.Redirect(http.StatusFound, middleware.LoginPath)
}
