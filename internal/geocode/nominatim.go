// Package geocode wraps the two third-party geocoding services the address
// screens use: OpenStreetMap Nominatim for reverse geocoding a map pin and
// Google Places for address autocomplete.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultNominatimBase = "https://nominatim.openstreetmap.org"

// Place is a resolved location.
type Place struct {
	DisplayName string  `json:"display_name"`
	Road        string  `json:"road,omitempty"`
	City        string  `json:"city,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Nominatim is the OpenStreetMap reverse-geocoding client.
type Nominatim struct {
	base      string
	userAgent string
	http      *http.Client
}

// NewNominatim builds a client. base may be empty to use the public
// instance; userAgent is required by Nominatim's usage policy.
func NewNominatim(base, userAgent string) *Nominatim {
	if base == "" {
		base = defaultNominatimBase
	}
	return &Nominatim{
		base:      base,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Reverse resolves coordinates into a formatted address.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	res, err := n.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: reverse: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: reverse: status %d", res.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			Road string `json:"road"`
			City string `json:"city"`
			Town string `json:"town"`
		} `json:"address"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode: decode reverse: %w", err)
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	return &Place{
		DisplayName: body.DisplayName,
		Road:        body.Address.Road,
		City:        city,
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}
