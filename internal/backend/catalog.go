package backend

import (
	"context"
	"net/http"
)

// Category is a menu category as served by the catalog.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Restaurant is a pickup/table location.
type Restaurant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"phone,omitempty"`
	Open      bool    `json:"open"`
}

// Categories lists the menu categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Restaurants lists the restaurants.
func (c *Client) Restaurants(ctx context.Context) ([]Restaurant, error) {
	var out []Restaurant
	if err := c.do(ctx, http.MethodGet, "/v1/restaurants", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
