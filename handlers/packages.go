package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/models"
	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"github.com/HARIOM-JHA01/addmy-partner/views"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgPurchaseSubmitted = "Payment submitted successfully! Waiting for admin approval."
	msgPurchaseFailed    = "Failed to submit payment"
	msgPurchaseFields    = "Please enter both the transaction ID and your wallet address."
)

type purchaseForm struct {
	TransactionID  string
	WalletAddress  string
	IdempotencyKey string
}

// Ready reports whether the form may be submitted.
func (f purchaseForm) Ready() bool {
	return f.TransactionID != "" && f.WalletAddress != ""
}

var packageTypes = []models.PackageType{models.PackageUserCredits, models.PackageRenewalCredits}

// Packages lists active packages, optionally narrowed to one type. ?buy=<id>
// opens the purchase dialog for that package.
func (p *Portal) Packages(c *gin.Context) {
	filter := normalizeFilter(c.Query("type"))
	form := purchaseForm{IdempotencyKey: uuid.NewString()}
	p.renderPackages(c, http.StatusOK, filter, c.Query("buy"), form, "")
}

// Purchase submits a manual payment for the selected package. Nothing is sent
// to the backend unless both form fields are filled in.
func (p *Portal) Purchase(c *gin.Context) {
	filter := normalizeFilter(c.PostForm("type"))
	packageID := c.PostForm("packageId")
	form := purchaseForm{
		TransactionID:  c.PostForm("transactionId"),
		WalletAddress:  c.PostForm("walletAddress"),
		IdempotencyKey: c.PostForm("idempotencyKey"),
	}
	if form.IdempotencyKey == "" {
		form.IdempotencyKey = uuid.NewString()
	}

	if packageID == "" || !form.Ready() {
		monitoring.PurchasesTotal.WithLabelValues("incomplete").Inc()
		p.renderPackages(c, http.StatusBadRequest, filter, packageID, form, msgPurchaseFields)
		return
	}

	s := currentSession(c)
	_, err := s.API().PurchasePackage(c.Request.Context(), apiclient.PurchaseRequest{
		PackageID:     packageID,
		TransactionID: form.TransactionID,
		WalletAddress: form.WalletAddress,
	}, form.IdempotencyKey)
	if err != nil {
		monitoring.PurchasesTotal.WithLabelValues("failed").Inc()
		p.log.Warn("purchase rejected", zap.String("package", packageID), zap.Error(err))
		if isUnauthorized(err) {
			p.expired(c)
			return
		}
		p.renderPackages(c, http.StatusOK, filter, packageID, form, apiclient.MessageOf(err, msgPurchaseFailed))
		return
	}

	monitoring.PurchasesTotal.WithLabelValues("submitted").Inc()
	p.log.Info("purchase submitted", zap.String("package", packageID))

	if delay := p.cfg.PurchaseRedirectDelay; delay > 0 {
		p.render(c, http.StatusOK, "purchase_submitted.html", gin.H{
			"Title":        "Payment submitted",
			"Active":       "packages",
			"Message":      msgPurchaseSubmitted,
			"DelaySeconds": int((delay + time.Second - 1) / time.Second),
		})
		return
	}
	s.AddFlash("success", msgPurchaseSubmitted)
	c.Redirect(http.StatusSeeOther, packagesURL(filter, ""))
}

func (p *Portal) renderPackages(c *gin.Context, status int, filter, buyID string, form purchaseForm, modalErr string) {
	data := gin.H{
		"Title":          "Packages",
		"Active":         "packages",
		"Filter":         filter,
		"Types":          packageTypes,
		"Form":           form,
		"DepositWallet":  p.cfg.DepositWalletAddress,
		"DepositNetwork": p.cfg.DepositNetwork,
	}

	pkgs, err := currentSession(c).API().Packages(c.Request.Context())
	if err != nil {
		p.fail(c, err, "packages.html", "Failed to load packages", data)
		return
	}
	data["Packages"] = models.FilterPackages(pkgs, filter)

	if buyID != "" {
		if pkg, ok := models.FindPackage(models.FilterPackages(pkgs, ""), buyID); ok {
			data["Selected"] = &pkg
			data["Modal"] = views.Modal{Title: "Purchase Package", CloseURL: packagesURL(filter, "")}
			data["ModalError"] = modalErr
		} else if modalErr != "" {
			data["Error"] = modalErr
		}
	}
	p.render(c, status, "packages.html", data)
}

// normalizeFilter maps anything but a known package type to "" (All).
func normalizeFilter(raw string) string {
	if t, ok := models.ParsePackageType(raw); ok {
		return string(t)
	}
	return ""
}

func packagesURL(filter, buy string) string {
	q := url.Values{}
	if filter != "" {
		q.Set("type", filter)
	}
	if buy != "" {
		q.Set("buy", buy)
	}
	if len(q) == 0 {
		return packagesPath
	}
	return packagesPath + "?" + q.Encode()
}
