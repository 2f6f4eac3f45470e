// Package weather looks up current conditions for a free-text location
// using the weatherapi.com service. It is the signal provider behind the
// activity-based recommendation flow: a failed or unresolvable lookup
// aborts that flow for the request, there is no retry.
//
// Network calls go through the provided http.Client so tests can
// substitute a local server via BaseURL.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrUnavailable indicates the location could not be resolved or the
// upstream call failed.
var ErrUnavailable = errors.New("weather unavailable")

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Report holds the conditions for one resolved location.
type Report struct {
	Location  string  `json:"location"`
	Region    string  `json:"region,omitempty"`
	TempF     float64 `json:"temp_f"`
	Condition string  `json:"condition"`
}

// Client queries the weatherapi.com current-conditions endpoint.
type Client struct {
	Key     string
	BaseURL string
	Client  *http.Client
}

// Current resolves location and returns its conditions. Any non-2xx
// response, transport failure or malformed body is reported as
// ErrUnavailable so callers can treat all of them as one outcome.
func (c *Client) Current(ctx context.Context, location string) (Report, error) {
	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	params := url.Values{
		"key": {c.Key},
		"q":   {location},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/current.json?"+params.Encode(), nil)
	if err != nil {
		return Report{}, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	var body struct {
		Location struct {
			Name   string `json:"name"`
			Region string `json:"region"`
		} `json:"location"`
		Current struct {
			TempF     float64 `json:"temp_f"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Location.Name == "" {
		return Report{}, fmt.Errorf("%w: location not resolved", ErrUnavailable)
	}
	return Report{
		Location:  body.Location.Name,
		Region:    body.Location.Region,
		TempF:     body.Current.TempF,
		Condition: body.Current.Condition.Text,
	}, nil
}
