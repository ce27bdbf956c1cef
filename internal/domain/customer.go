package domain

// Address is created via manual entry or a map pin. Once saved it is owned
// by the backend; the location store only caches a copy.
type Address struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Address    string  `json:"address"`
	Street     string  `json:"street,omitempty"`
	City       string  `json:"city,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CustomerID string  `json:"customer_id,omitempty"`
}

// Customer is the authenticated user's profile as returned by the backend.
type Customer struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email,omitempty"`
	Image     string   `json:"image,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

// Tokens is the bearer credential pair issued at OTP verification.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
