package backend

import (
	"context"
	"net/http"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

// Login starts the phone login flow; the backend sends an OTP by SMS.
func (c *Client) Login(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	return c.do(ctx, http.MethodPost, "/v1/auth/customer/login", body, nil, withoutAuth())
}

// RequestOTP asks for a fresh code for a number already in the login flow.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	return c.do(ctx, http.MethodPost, "/v1/auth/customer/otp", body, nil, withoutAuth())
}

// VerifyOTP exchanges the SMS code for a token pair and the profile.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (domain.Tokens, *domain.Customer, error) {
	body := map[string]string{"phone": phone, "otp": code}
	var res struct {
		AccessToken  string           `json:"accessToken"`
		RefreshToken string           `json:"refreshToken"`
		Customer     *domain.Customer `json:"customer"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/auth/customer/verify-otp", body, &res, withoutAuth())
	if err != nil {
		return domain.Tokens{}, nil, err
	}
	return domain.Tokens{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, res.Customer, nil
}
