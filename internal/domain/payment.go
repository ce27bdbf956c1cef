package domain

// PaymentMode selects how the customer pays.
type PaymentMode string

const (
	PaymentModeCash        PaymentMode = "CASH"
	PaymentModeCard        PaymentMode = "CARD"
	PaymentModeMobileMoney PaymentMode = "MOBILE_MONEY"
)

// MobileMoneyType is the regional wallet settled via the hosted payment page.
type MobileMoneyType string

const (
	MobileMoneyOrange MobileMoneyType = "ORANGE"
	MobileMoneyMTN    MobileMoneyType = "MTN"
	MobileMoneyMoov   MobileMoneyType = "MOOV"
	MobileMoneyWave   MobileMoneyType = "WAVE"
)

func (m MobileMoneyType) Valid() bool {
	switch m {
	case MobileMoneyOrange, MobileMoneyMTN, MobileMoneyMoov, MobileMoneyWave:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment is the server-owned payment record. For mobile-money modes the
// backend returns a hosted page URL; the actual authorization happens there
// and the client only mirrors id, status and reference.
type Payment struct {
	ID              string          `json:"id"`
	Amount          float64         `json:"amount"`
	Mode            PaymentMode     `json:"mode"`
	MobileMoneyType MobileMoneyType `json:"mobile_money_type,omitempty"`
	Status          PaymentStatus   `json:"status"`
	Reference       string          `json:"reference,omitempty"`
	URL             string          `json:"url,omitempty"`
}

// CreatePayment is the paiement-creation payload.
type CreatePayment struct {
	Amount          float64         `json:"amount"`
	Mode            PaymentMode     `json:"mode"`
	MobileMoneyType MobileMoneyType `json:"mobile_money_type,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	CustomerID      string          `json:"customer_id,omitempty"`
}
