package models

import "time"

// PaymentStatus is owned by the backend; the portal only creates pending payments.
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentApproved
	PaymentRejected
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentApproved:
		return "Approved"
	case PaymentRejected:
		return "Rejected"
	}
	return "Unknown"
}

// Badge is the CSS modifier used for the status pill.
func (s PaymentStatus) Badge() string {
	switch s {
	case PaymentPending:
		return "badge-pending"
	case PaymentApproved:
		return "badge-approved"
	case PaymentRejected:
		return "badge-rejected"
	}
	return "badge-unknown"
}

type PaymentPackage struct {
	ID      string      `json:"_id"`
	Name    string      `json:"name"`
	Type    PackageType `json:"type"`
	Credits int         `json:"credits"`
}

type Payment struct {
	ID            string         `json:"_id"`
	Package       PaymentPackage `json:"package"`
	Amount        float64        `json:"amount"`
	Credits       int            `json:"credits"`
	TransactionID string         `json:"transactionId"`
	WalletAddress string         `json:"walletAddress"`
	Status        PaymentStatus  `json:"status"`
	PaymentStatus int            `json:"paymentStatus"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type PaymentPage struct {
	Payments   []Payment  `json:"payments"`
	Pagination Pagination `json:"pagination"`
}
