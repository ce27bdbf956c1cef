package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderType is the fulfillment mode chosen by the customer.
type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypePickup   OrderType = "PICKUP"
	OrderTypeTable    OrderType = "TABLE"
)

// Valid reports whether t is one of the three known fulfillment modes.
// Values arriving from outside (navigation params, persisted state) must be
// checked before use.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDelivery, OrderTypePickup, OrderTypeTable:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusPickedUp   OrderStatus = "PICKED_UP"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCollected  OrderStatus = "COLLECTED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Completed reports whether the order reached a terminal success state.
func (s OrderStatus) Completed() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCollected, OrderStatusCompleted:
		return true
	}
	return false
}

// Cancelled reports whether the order was cancelled.
func (s OrderStatus) Cancelled() bool { return s == OrderStatusCancelled }

// Active reports whether the order is still in flight.
func (s OrderStatus) Active() bool { return !s.Completed() && !s.Cancelled() }

// OrderItem is one line of an order-creation payload.
type OrderItem struct {
	DishID         string   `json:"dish_id"`
	Quantity       int      `json:"quantity"`
	SupplementsIDs []string `json:"supplements_ids,omitempty"`
}

// Order is the server-owned order entity. The client only holds a cache copy
// fetched from the backend; there is no local ledger.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customer_id"`
	Type        OrderType   `json:"type"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items,omitempty"`
	Amount      float64     `json:"amount"`
	Address     *Address    `json:"address,omitempty"`
	PaymentID   string      `json:"paiement_id,omitempty"`
	Reference   string      `json:"reference,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CancelledBy string      `json:"cancelled_by,omitempty"`
}

// PartitionOrders splits a fetched order list into the three buckets the
// orders screen renders.
func PartitionOrders(orders []Order) (active, completed, cancelled []Order) {
	for _, o := range orders {
		switch {
		case o.Status.Cancelled():
			cancelled = append(cancelled, o)
		case o.Status.Completed():
			completed = append(completed, o)
		default:
			active = append(active, o)
		}
	}
	return active, completed, cancelled
}

// CreateOrder is the order-creation payload. One constructor exists per
// fulfillment mode so every variant carries exactly the fields its mode
// requires; building one by hand skips those checks.
type CreateOrder struct {
	Type       OrderType   `json:"type"`
	CustomerID string      `json:"customer_id"`
	Phone      string      `json:"phone"`
	Items      []OrderItem `json:"items"`
	PaymentID  string      `json:"paiement_id,omitempty"`
	PromoCode  string      `json:"promo_code,omitempty"`

	// Delivery only.
	Address *Address `json:"address,omitempty"`

	// Pickup and table only.
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`

	// Table only.
	TableType string `json:"table_type,omitempty"`
	Places    int    `json:"places,omitempty"`
}

var (
	ErrNoItems          = errors.New("order has no items")
	ErrNoCustomer       = errors.New("order has no customer")
	ErrNoPhone          = errors.New("order has no phone number")
	ErrNoAddress        = errors.New("delivery order has no address")
	ErrNoReservation    = errors.New("reservation date or time missing")
	ErrNoTableType      = errors.New("table order has no table type")
	ErrInvalidOrderType = errors.New("invalid order type")
)

// NewDeliveryOrder builds a DELIVERY payload. The address is mandatory.
func NewDeliveryOrder(customerID, phone string, items []OrderItem, addr *Address) (CreateOrder, error) {
	co := CreateOrder{
		Type:       OrderTypeDelivery,
		CustomerID: customerID,
		Phone:      phone,
		Items:      items,
		Address:    addr,
	}
	if addr == nil {
		return CreateOrder{}, ErrNoAddress
	}
	return co, co.validateCommon()
}

// NewPickupOrder builds a PICKUP payload with the collection date and time.
func NewPickupOrder(customerID, phone string, items []OrderItem, date, timeOfDay string) (CreateOrder, error) {
	co := CreateOrder{
		Type:       OrderTypePickup,
		CustomerID: customerID,
		Phone:      phone,
		Items:      items,
		Date:       date,
		Time:       timeOfDay,
	}
	if date == "" || timeOfDay == "" {
		return CreateOrder{}, ErrNoReservation
	}
	return co, co.validateCommon()
}

// NewTableOrder builds a TABLE payload with the full reservation.
func NewTableOrder(customerID, phone string, items []OrderItem, date, timeOfDay, tableType string, places int) (CreateOrder, error) {
	co := CreateOrder{
		Type:       OrderTypeTable,
		CustomerID: customerID,
		Phone:      phone,
		Items:      items,
		Date:       date,
		Time:       timeOfDay,
		TableType:  tableType,
		Places:     places,
	}
	if date == "" || timeOfDay == "" {
		return CreateOrder{}, ErrNoReservation
	}
	if tableType == "" {
		return CreateOrder{}, ErrNoTableType
	}
	return co, co.validateCommon()
}

func (co CreateOrder) validateCommon() error {
	switch {
	case len(co.Items) == 0:
		return ErrNoItems
	case co.CustomerID == "":
		return ErrNoCustomer
	case co.Phone == "":
		return ErrNoPhone
	}
	return nil
}

// FilterSupplementIDs keeps only well-formed UUID ids. The backend rejects
// payloads containing placeholder ids the catalog sometimes ships.
func FilterSupplementIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
