// Package geo resolves a caller's country for the login payload. Lookups are
// advisory and callers must tolerate failure.
package geo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Location struct {
	Country     string
	CountryCode string
}

type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// IPAPI looks addresses up against an ipapi.co compatible service.
type IPAPI struct {
	baseURL    string
	httpClient *http.Client
}

func NewIPAPI(baseURL string, timeout time.Duration) *IPAPI {
	return &IPAPI{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *IPAPI) Locate(ctx context.Context, ip string) (Location, error) {
	target := g.baseURL + "/json/"
	if public(ip) {
		target = g.baseURL + "/" + ip + "/json/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Location{}, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geo lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo lookup: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Location{}, fmt.Errorf("geo lookup: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("geo lookup: invalid json")
	}
	if gjson.GetBytes(body, "error").Bool() {
		return Location{}, fmt.Errorf("geo lookup: %s", gjson.GetBytes(body, "reason").String())
	}
	return parse(body), nil
}

func parse(body []byte) Location {
	res := gjson.GetManyBytes(body, "country_name", "country", "country_code", "country_code_iso3")
	return Location{
		Country:     firstNonEmpty(res[0].String(), res[1].String()),
		CountryCode: firstNonEmpty(res[2].String(), res[3].String()),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// public reports whether ip is routable; private callers are looked up by the
// service's own view of the request.
func public(ip string) bool {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast())
}
