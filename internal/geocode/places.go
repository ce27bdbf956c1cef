package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultPlacesBase = "https://maps.googleapis.com/maps/api/place"

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Places is the Google Places autocomplete/details client.
type Places struct {
	base   string
	apiKey string
	http   *http.Client
}

func NewPlaces(apiKey string) *Places {
	return &Places{
		base:   defaultPlacesBase,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Autocomplete returns predictions for a partial address, biased to CI.
func (p *Places) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	q := url.Values{}
	q.Set("input", input)
	q.Set("key", p.apiKey)
	q.Set("components", "country:ci")

	var body struct {
		Status      string       `json:"status"`
		Predictions []Suggestion `json:"predictions"`
	}
	if err := p.get(ctx, "/autocomplete/json?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Status != "OK" && body.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("geocode: places autocomplete: status %s", body.Status)
	}
	return body.Predictions, nil
}

// Details resolves a prediction into coordinates and a formatted address.
func (p *Places) Details(ctx context.Context, placeID string) (*Place, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("key", p.apiKey)
	q.Set("fields", "formatted_address,geometry")

	var body struct {
		Status string `json:"status"`
		Result struct {
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	if err := p.get(ctx, "/details/json?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("geocode: places details: status %s", body.Status)
	}
	return &Place{
		DisplayName: body.Result.FormattedAddress,
		Latitude:    body.Result.Geometry.Location.Lat,
		Longitude:   body.Result.Geometry.Location.Lng,
	}, nil
}

func (p *Places) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return fmt.Errorf("geocode: build request: %w", err)
	}
	res, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocode: places: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: places: status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("geocode: decode places: %w", err)
	}
	return nil
}
