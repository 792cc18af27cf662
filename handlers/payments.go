package handlers

import (
	"net/http"
	"strconv"

	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/HARIOM-JHA01/addmy-partner/views"
	"github.com/gin-gonic/gin"
)

// Payments lists the partner's payment history one page at a time.
func (p *Portal) Payments(c *gin.Context) {
	page := pageParam(c)
	data := gin.H{
		"Title":  "Payment History",
		"Active": "payments",
		"Pager":  views.NewPager(models.DefaultPagination(p.cfg.PageSize), paymentsPath, nil),
	}

	result, err := currentSession(c).API().PaymentHistory(c.Request.Context(), page, p.cfg.PageSize)
	if err != nil {
		p.fail(c, err, "payments.html", "Failed to load payment history", data)
		return
	}
	data["Payments"] = result.Payments
	data["Pager"] = views.NewPager(result.Pagination, paymentsPath, nil)
	p.render(c, http.StatusOK, "payments.html", data)
}

// pageParam reads ?page=, defaulting to the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
