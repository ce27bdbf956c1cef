package httpx

import (
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/geocode"
)

type CheckoutRequest struct {
	Type            string `json:"type"`
	PaymentMode     string `json:"payment_mode,omitempty"`
	MobileMoneyType string `json:"mobile_money_type,omitempty"`
	PaymentPhone    string `json:"payment_phone,omitempty"`
	PaymentID       string `json:"payment_id,omitempty"`
	PromoCode       string `json:"promo_code,omitempty"`
}

type CheckoutResponse struct {
	CheckoutID string `json:"checkout_id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
}

type CheckoutStateResponse struct {
	CheckoutID  string `json:"checkout_id"`
	Status      string `json:"status"`
	CurrentStep string `json:"current_step,omitempty"`
	Errors      string `json:"errors,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type CartItemRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Price       float64             `json:"price"`
	Quantity    int                 `json:"quantity"`
	Image       string              `json:"image,omitempty"`
	Description string              `json:"description,omitempty"`
	Supplements []domain.Supplement `json:"supplements,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items       []domain.CartItem `json:"items"`
	TotalAmount float64           `json:"total_amount"`
}

type OrdersResponse struct {
	Active    []domain.Order `json:"active"`
	Completed []domain.Order `json:"completed"`
	Cancelled []domain.Order `json:"cancelled"`
}

type PaymentRequest struct {
	MobileMoneyType string `json:"mobile_money_type"`
	Phone           string `json:"phone"`
}

type PaymentCompletionResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	Succeeded     bool   `json:"succeeded"`
}

type SuggestionsResponse struct {
	Suggestions []geocode.Suggestion `json:"suggestions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
