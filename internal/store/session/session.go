// Package session holds the authenticated customer and the bearer token
// pair. It implements the token source the backend client reads on every
// request, and drives the phone/OTP login flow through an injected API.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/phone"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/kv"
)

const (
	tokensKey   = "session/tokens"
	customerKey = "session/customer"
)

// AuthAPI is the slice of the backend the login flow needs.
type AuthAPI interface {
	Login(ctx context.Context, phone string) error
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (domain.Tokens, *domain.Customer, error)
}

// Store is the session state, persisted through the key/value store.
// kv may be nil — persistence is skipped in that case (tests).
type Store struct {
	mu       sync.RWMutex
	kv       *kv.Store
	tokens   domain.Tokens
	customer *domain.Customer

	// In-flight login state.
	pendingPhone string
	code         string
	lastError    string
}

// New builds a session store, loading persisted tokens and profile.
func New(ctx context.Context, store *kv.Store) (*Store, error) {
	s := &Store{kv: store}
	if store != nil {
		if _, err := store.Get(ctx, tokensKey, &s.tokens); err != nil {
			return nil, fmt.Errorf("session: load tokens: %w", err)
		}
		var c domain.Customer
		ok, err := store.Get(ctx, customerKey, &c)
		if err != nil {
			return nil, fmt.Errorf("session: load customer: %w", err)
		}
		if ok {
			s.customer = &c
		}
	}
	return s, nil
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

// UpdateTokens stores a fresh token pair. Called by the backend client after
// a refresh round-trip.
func (s *Store) UpdateTokens(ctx context.Context, access, refresh string) {
	s.mu.Lock()
	s.tokens = domain.Tokens{AccessToken: access, RefreshToken: refresh}
	s.mu.Unlock()
	s.persistTokens(ctx)
}

// Customer returns the cached profile, nil when logged out.
func (s *Store) Customer() *domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customer
}

// SetCustomer replaces the cached profile (after a GET/PATCH customer call).
func (s *Store) SetCustomer(ctx context.Context, c *domain.Customer) error {
	s.mu.Lock()
	s.customer = c
	s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	if c == nil {
		return s.kv.Delete(ctx, customerKey)
	}
	return s.kv.Put(ctx, customerKey, c)
}

// Authenticated reports whether a token pair is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken != ""
}

// BeginLogin normalises the phone number and asks the backend to send an
// OTP. The number is kept for the verification step.
func (s *Store) BeginLogin(ctx context.Context, api AuthAPI, rawPhone string) error {
	formatted, err := phone.Format(rawPhone)
	if err != nil {
		s.setError(err.Error())
		return err
	}
	if err := api.Login(ctx, formatted); err != nil {
		s.setError(err.Error())
		return fmt.Errorf("session: login: %w", err)
	}
	s.mu.Lock()
	s.pendingPhone = formatted
	s.code = ""
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// ResendOTP asks for a fresh code for the pending number.
func (s *Store) ResendOTP(ctx context.Context, api AuthAPI) error {
	s.mu.RLock()
	p := s.pendingPhone
	s.mu.RUnlock()
	if p == "" {
		return fmt.Errorf("session: no login in progress")
	}
	if err := api.RequestOTP(ctx, p); err != nil {
		s.setError(err.Error())
		return fmt.Errorf("session: resend otp: %w", err)
	}
	return nil
}

// SetCode records the code typed so far.
func (s *Store) SetCode(code string) {
	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
}

// Code returns the code currently typed.
func (s *Store) Code() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

// Verify submits the typed code. On success the token pair and profile are
// stored and the login state cleared. On failure the code field is reset to
// empty and the backend message kept for the UI.
func (s *Store) Verify(ctx context.Context, api AuthAPI) error {
	s.mu.RLock()
	p, code := s.pendingPhone, s.code
	s.mu.RUnlock()

	if p == "" || code == "" {
		err := fmt.Errorf("session: no code to verify")
		s.setError(err.Error())
		return err
	}

	tokens, customer, err := api.VerifyOTP(ctx, p, code)
	if err != nil {
		s.mu.Lock()
		s.code = ""
		s.lastError = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("session: verify otp: %w", err)
	}

	s.mu.Lock()
	s.tokens = tokens
	s.customer = customer
	s.pendingPhone = ""
	s.code = ""
	s.lastError = ""
	s.mu.Unlock()
	s.persistTokens(ctx)
	if s.kv != nil && customer != nil {
		_ = s.kv.Put(ctx, customerKey, customer)
	}
	return nil
}

// Logout drops tokens and profile, locally and from persistent storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = domain.Tokens{}
	s.customer = nil
	s.pendingPhone = ""
	s.code = ""
	s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	if err := s.kv.Delete(ctx, tokensKey); err != nil {
		return err
	}
	return s.kv.Delete(ctx, customerKey)
}

// LastError returns the most recent auth error message for the UI.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// persistTokens writes the pair through kv. The session stays usable on a
// write failure; the error is logged so a token pair that will not survive a
// restart is at least visible.
func (s *Store) persistTokens(ctx context.Context) {
	if s.kv == nil {
		return
	}
	s.mu.RLock()
	t := s.tokens
	s.mu.RUnlock()
	if err := s.kv.Put(ctx, tokensKey, t); err != nil {
		slog.ErrorContext(ctx, "failed to persist session tokens", "error", err)
	}
}
