package models

import "time"

// UserStatus filters the referred users list.
type UserStatus string

const (
	UserStatusAll     UserStatus = "all"
	UserStatusActive  UserStatus = "active"
	UserStatusExpired UserStatus = "expired"
)

// ParseUserStatus maps unknown values to UserStatusAll.
func ParseUserStatus(s string) UserStatus {
	switch UserStatus(s) {
	case UserStatusActive, UserStatusExpired:
		return UserStatus(s)
	}
	return UserStatusAll
}

// PartnerUser is a referred user as listed on the users page. Expiry fields
// are computed by the backend.
type PartnerUser struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	Username             string     `json:"username"`
	Name                 string     `json:"name"`
	TGID                 string     `json:"tgid"`
	JoinDate             time.Time  `json:"joinDate"`
	MembershipExpiryDate time.Time  `json:"membershipExpiryDate"`
	IsExpired            bool       `json:"isExpired"`
	DaysUntilExpiry      int        `json:"daysUntilExpiry"`
	RenewalCount         int        `json:"renewalCount"`
	LastRenewalDate      *time.Time `json:"lastRenewalDate,omitempty"`
}

type UserPage struct {
	Users      []PartnerUser `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

type UserProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	NameEnglish string `json:"nameEnglish"`
	NameChinese string `json:"nameChinese"`
	TGID        string `json:"tgid"`
	Email       string `json:"email,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

// UserDetail is one referred user's membership snapshot.
type UserDetail struct {
	ID                   string      `json:"id"`
	User                 UserProfile `json:"user"`
	JoinDate             time.Time   `json:"joinDate"`
	MembershipExpiryDate time.Time   `json:"membershipExpiryDate"`
	IsExpired            bool        `json:"isExpired"`
	DaysUntilExpiry      int         `json:"daysUntilExpiry"`
	RenewalCount         int         `json:"renewalCount"`
	LastRenewalDate      *time.Time  `json:"lastRenewalDate,omitempty"`
	LastRenewalBy        string      `json:"lastRenewalBy,omitempty"`
}

// ExpiryClass colours the days-until-expiry figure.
func (u *UserDetail) ExpiryClass() string {
	switch {
	case u.IsExpired:
		return "text-danger"
	case u.DaysUntilExpiry < 30:
		return "text-warning"
	}
	return "text-success"
}

// RenewalPrice maps a membership period to its credit cost.
type RenewalPrice struct {
	ID               string `json:"_id"`
	MembershipMonths int    `json:"membershipMonths"`
	CreditCost       int    `json:"creditCost"`
	Description      string `json:"description"`
	Status           int    `json:"status"`
}

func (r RenewalPrice) Active() bool { return r.Status == 1 }

// ActiveRenewalPrices drops disabled tiers.
func ActiveRenewalPrices(prices []RenewalPrice) []RenewalPrice {
	out := make([]RenewalPrice, 0, len(prices))
	for _, rp := range prices {
		if rp.Active() {
			out = append(out, rp)
		}
	}
	return out
}

func FindRenewalPrice(prices []RenewalPrice, months int) (RenewalPrice, bool) {
	for _, rp := range prices {
		if rp.MembershipMonths == months {
			return rp, true
		}
	}
	return RenewalPrice{}, false
}
