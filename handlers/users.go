package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"github.com/HARIOM-JHA01/addmy-partner/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const msgRenewFailed = "Failed to renew membership"

var userStatuses = []models.UserStatus{models.UserStatusAll, models.UserStatusActive, models.UserStatusExpired}

// Users lists referred users. Filter links carry no page, so changing the
// filter always starts again from the first page.
func (p *Portal) Users(c *gin.Context) {
	status := models.ParseUserStatus(c.Query("status"))
	page := pageParam(c)

	params := url.Values{}
	if status != models.UserStatusAll {
		params.Set("status", string(status))
	}
	data := gin.H{
		"Title":    "Users",
		"Active":   "users",
		"Status":   status,
		"Statuses": userStatuses,
		"Pager":    views.NewPager(models.DefaultPagination(p.cfg.PageSize), usersPath, params),
	}

	result, err := currentSession(c).API().Users(c.Request.Context(), page, p.cfg.PageSize, status)
	if err != nil {
		p.fail(c, err, "users.html", "Failed to load users", data)
		return
	}
	data["Users"] = result.Users
	data["Pager"] = views.NewPager(result.Pagination, usersPath, params)
	p.render(c, http.StatusOK, "users.html", data)
}

// UserDetail loads one referred user together with the renewal price list.
// ?months= picks the renewal period whose cost is shown for confirmation.
func (p *Portal) UserDetail(c *gin.Context) {
	months, _ := strconv.Atoi(c.Query("months"))
	p.renderUserDetail(c, http.StatusOK, c.Param("id"), months, "")
}

// Renew extends a referred user's membership. A backend answer flagged
// requiresPayment sends the partner to buy renewal credits instead.
func (p *Portal) Renew(c *gin.Context) {
	id := c.Param("id")
	s := currentSession(c)

	months, err := strconv.Atoi(c.PostForm("months"))
	if err != nil || months <= 0 {
		monitoring.RenewalsTotal.WithLabelValues("incomplete").Inc()
		p.renderUserDetail(c, http.StatusBadRequest, id, 0, "Please select a renewal period.")
		return
	}

	env, err := s.API().RenewMembership(c.Request.Context(), apiclient.RenewRequest{PartnerUserID: id, Months: months})
	if err != nil {
		switch {
		case isUnauthorized(err):
			monitoring.RenewalsTotal.WithLabelValues("failed").Inc()
			p.expired(c)
		case apiclient.RequiresPayment(err):
			monitoring.RenewalsTotal.WithLabelValues("requires_payment").Inc()
			s.AddFlash("error", apiclient.MessageOf(err, msgRenewFailed))
			c.Redirect(http.StatusSeeOther, packagesURL(string(models.PackageRenewalCredits), ""))
		default:
			monitoring.RenewalsTotal.WithLabelValues("failed").Inc()
			p.log.Warn("renewal rejected", zap.String("user", id), zap.Int("months", months), zap.Error(err))
			s.AddFlash("error", apiclient.MessageOf(err, msgRenewFailed))
			p.renderUserDetail(c, http.StatusOK, id, months, "")
		}
		return
	}

	monitoring.RenewalsTotal.WithLabelValues("renewed").Inc()
	msg := env.Message
	if msg == "" {
		msg = "Membership renewed successfully!"
	}
	s.AddFlash("success", msg)
	c.Redirect(http.StatusSeeOther, usersPath+"/"+url.PathEscape(id))
}

func (p *Portal) renderUserDetail(c *gin.Context, status int, id string, months int, errMsg string) {
	api := currentSession(c).API()
	data := gin.H{"Title": "User Details", "Active": "users", "Months": months}

	var (
		detail *models.UserDetail
		prices []models.RenewalPrice
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		detail, err = api.UserDetail(ctx, id)
		return err
	})
	g.Go(func() error {
		// The page still works without prices; failures are only logged.
		var err error
		prices, err = api.RenewalPrices(ctx)
		if err != nil {
			p.log.Warn("failed to load renewal prices", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		p.fail(c, err, "user_detail.html", "Failed to load user details", data)
		return
	}

	prices = models.ActiveRenewalPrices(prices)
	data["Detail"] = detail
	data["Prices"] = prices
	if rp, ok := models.FindRenewalPrice(prices, months); ok {
		data["SelectedPrice"] = rp
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	p.render(c, status, "user_detail.html", data)
}
