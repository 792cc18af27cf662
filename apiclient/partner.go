package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HARIOM-JHA01/addmy-partner/models"
)

// LoginRequest is the combined login-or-register payload.
type LoginRequest struct {
	TGID             string `json:"tgid"`
	Name             string `json:"name"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	TelegramUsername string `json:"telegram_username"`
	Country          string `json:"country"`
	CountryCode      string `json:"countryCode"`
}

// LoginResponse keeps the raw body next to the decoded token and partner;
// callers inspect the raw body to tell new registrations from returning partners.
type LoginResponse struct {
	Token   string
	Partner models.Partner
	Message string
	Raw     []byte
}

type PurchaseRequest struct {
	PackageID     string `json:"packageId"`
	TransactionID string `json:"transactionId"`
	WalletAddress string `json:"walletAddress"`
}

type RenewRequest struct {
	PartnerUserID string `json:"partnerUserId"`
	Months        int    `json:"months"`
}

func (a *API) TelegramLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	env, err := a.Post(ctx, "/partner/telegram-login", req, nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Token   string         `json:"token"`
		Partner models.Partner `json:"partner"`
	}
	if err := env.Decode(&data); err != nil {
		return nil, err
	}
	return &LoginResponse{Token: data.Token, Partner: data.Partner, Message: env.Message, Raw: env.Raw}, nil
}

func (a *API) Profile(ctx context.Context) (*models.Partner, error) {
	env, err := a.Get(ctx, "/partner/profile", nil)
	if err != nil {
		return nil, err
	}
	var p models.Partner
	if err := env.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	env, err := a.Get(ctx, "/partner/dashboard", nil)
	if err != nil {
		return nil, err
	}
	var stats models.DashboardStats
	if err := env.Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Packages returns every package the backend lists, active or not.
func (a *API) Packages(ctx context.Context) ([]models.Package, error) {
	env, err := a.Get(ctx, "/partner/packages", nil)
	if err != nil {
		return nil, err
	}
	var pkgs []models.Package
	if err := env.Decode(&pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// PurchasePackage submits a manual transfer for approval. The resulting
// payment is pending until an admin acts on it. idempotencyKey may be empty.
func (a *API) PurchasePackage(ctx context.Context, req PurchaseRequest, idempotencyKey string) (*Envelope, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"X-Idempotency-Key": idempotencyKey}
	}
	return a.Post(ctx, "/partner/purchase-package", req, headers)
}

func (a *API) PaymentHistory(ctx context.Context, page, limit int) (*models.PaymentPage, error) {
	env, err := a.Get(ctx, "/partner/payment-history", pageQuery(page, limit))
	if err != nil {
		return nil, err
	}
	var out models.PaymentPage
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Users(ctx context.Context, page, limit int, status models.UserStatus) (*models.UserPage, error) {
	q := pageQuery(page, limit)
	if status != "" && status != models.UserStatusAll {
		q.Set("status", string(status))
	}
	env, err := a.Get(ctx, "/partner/users", q)
	if err != nil {
		return nil, err
	}
	var out models.UserPage
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UserDetail(ctx context.Context, id string) (*models.UserDetail, error) {
	env, err := a.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/partner/users/:id",
		path:     "/partner/users/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}
	var out models.UserDetail
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenewalPrices returns every tier the backend lists, active or not.
func (a *API) RenewalPrices(ctx context.Context) ([]models.RenewalPrice, error) {
	env, err := a.Get(ctx, "/renewal-prices", nil)
	if err != nil {
		return nil, err
	}
	var prices []models.RenewalPrice
	if err := env.Decode(&prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// RenewMembership asks the backend to extend a referred user's membership.
// A failure with RequiresPayment means the partner lacks renewal credits.
func (a *API) RenewMembership(ctx context.Context, req RenewRequest) (*Envelope, error) {
	return a.Post(ctx, "/renew-membership", req, nil)
}

func pageQuery(page, limit int) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
