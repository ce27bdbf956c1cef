package backend

import (
	"context"
	"net/http"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

// Customer fetches the authenticated customer's profile.
func (c *Client) Customer(ctx context.Context) (*domain.Customer, error) {
	var out domain.Customer
	if err := c.do(ctx, http.MethodGet, "/v1/customer", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomerPatch carries the mutable profile fields; nil fields are omitted.
type CustomerPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Image     *string `json:"image,omitempty"`
}

// UpdateCustomer patches the profile and returns the updated copy.
func (c *Client) UpdateCustomer(ctx context.Context, patch CustomerPatch) (*domain.Customer, error) {
	var out domain.Customer
	if err := c.do(ctx, http.MethodPatch, "/v1/customer", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Addresses lists the saved addresses for a customer.
func (c *Client) Addresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	var out []domain.Address
	if err := c.do(ctx, http.MethodGet, "/v1/addresses/customer/"+customerID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAddress saves a new address; the backend assigns the id.
func (c *Client) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	var out domain.Address
	if err := c.do(ctx, http.MethodPost, "/v1/addresses", addr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
