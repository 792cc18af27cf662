package models

import "time"

// Partner is the authenticated partner's profile together with a snapshot of
// both credit pools. Available counts are maintained by the backend.
type Partner struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	TGID                    string     `json:"tgid"`
	Username                string     `json:"username"`
	Email                   string     `json:"email,omitempty"`
	ReferralCode            string     `json:"referralCode"`
	ReferralURL             string     `json:"referralUrl"`
	UserCredits             int        `json:"userCredits"`
	UsedUserCredits         int        `json:"usedUserCredits"`
	AvailableUserCredits    int        `json:"availableUserCredits"`
	RenewalCredits          int        `json:"renewalCredits"`
	UsedRenewalCredits      int        `json:"usedRenewalCredits"`
	AvailableRenewalCredits int        `json:"availableRenewalCredits"`
	IsReferralActive        bool       `json:"isReferralActive"`
	JoinDate                *time.Time `json:"joinDate,omitempty"`
	LastActive              *time.Time `json:"lastActive,omitempty"`
}

// HasNoCredits reports whether the partner never received credits in either pool.
func (p *Partner) HasNoCredits() bool {
	return p.UserCredits == 0 && p.RenewalCredits == 0
}

type CreditSummary struct {
	UserCredits             int `json:"userCredits"`
	UsedUserCredits         int `json:"usedUserCredits"`
	AvailableUserCredits    int `json:"availableUserCredits"`
	RenewalCredits          int `json:"renewalCredits"`
	UsedRenewalCredits      int `json:"usedRenewalCredits"`
	AvailableRenewalCredits int `json:"availableRenewalCredits"`
}

type ReferralInfo struct {
	ReferralCode string `json:"referralCode"`
	ReferralURL  string `json:"referralUrl"`
	IsActive     bool   `json:"isActive"`
}

type UserCounts struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Expired         int `json:"expired"`
	JoinedThisMonth int `json:"joinedThisMonth"`
}

// DashboardStats is the aggregate returned by the dashboard endpoint.
type DashboardStats struct {
	Credits  CreditSummary `json:"credits"`
	Referral ReferralInfo  `json:"referral"`
	Users    UserCounts    `json:"users"`
	Renewals struct {
		Total int `json:"total"`
	} `json:"renewals"`
	Payments struct {
		Pending int `json:"pending"`
	} `json:"payments"`
}

// ReferralDisabled is true while the partner has no user credits left; new
// users cannot join through the referral link in that state.
func (s *DashboardStats) ReferralDisabled() bool {
	return s.Credits.AvailableUserCredits == 0
}
