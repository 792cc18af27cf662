package models

import "math"

type PackageType string

const (
	PackageUserCredits    PackageType = "USER_CREDITS"
	PackageRenewalCredits PackageType = "RENEWAL_CREDITS"
)

// ParsePackageType returns the package type named by s. Anything other than
// the two known variants yields ok == false, which callers treat as "All".
func ParsePackageType(s string) (PackageType, bool) {
	switch PackageType(s) {
	case PackageUserCredits, PackageRenewalCredits:
		return PackageType(s), true
	}
	return "", false
}

func (t PackageType) Label() string {
	switch t {
	case PackageUserCredits:
		return "User Credits"
	case PackageRenewalCredits:
		return "Renewal Credits"
	}
	return string(t)
}

// Short is the compact label used in the payment history table.
func (t PackageType) Short() string {
	if t == PackageUserCredits {
		return "User"
	}
	return "Renewal"
}

// Package is a purchasable credit offer. Discount and FinalPrice are computed
// by the backend and only displayed here.
type Package struct {
	ID            string      `json:"_id"`
	Name          string      `json:"name"`
	Type          PackageType `json:"type"`
	Credits       int         `json:"credits"`
	RenewalMonths int         `json:"renewalMonths,omitempty"`
	Price         float64     `json:"price"`
	Discount      float64     `json:"discount"`
	FinalPrice    float64     `json:"finalPrice"`
	Description   string      `json:"description"`
	Status        int         `json:"status"`
}

func (p Package) Active() bool { return p.Status == 1 }

func (p Package) Discounted() bool { return p.Discount > 0 }

// OriginalPrice reverses the discount to show the undiscounted price. Display only.
func (p Package) OriginalPrice() float64 {
	if p.Discount <= 0 || p.Discount >= 100 {
		return p.Price
	}
	return math.Round(p.Price/(1-p.Discount/100)*100) / 100
}

// FilterPackages keeps active packages and, when filter names a known type,
// only packages of that type.
func FilterPackages(pkgs []Package, filter string) []Package {
	want, typed := ParsePackageType(filter)
	out := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		if !p.Active() {
			continue
		}
		if typed && p.Type != want {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindPackage looks a package up by id.
func FindPackage(pkgs []Package, id string) (Package, bool) {
	for _, p := range pkgs {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
