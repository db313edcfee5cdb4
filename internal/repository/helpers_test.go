package repository

import (
	"io"
	"net/http"
	"strings"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: RoundTripperFunc(fn)}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// delhiBody is a trimmed real OpenWeatherMap current-weather payload.
const delhiBody = `{
  "coord": {"lon": 77.2167, "lat": 28.6667},
  "weather": [{"id": 721, "main": "Haze", "description": "haze", "icon": "50d"}],
  "base": "stations",
  "main": {"temp": 25.4, "feels_like": 25.1, "temp_min": 24.05, "temp_max": 26.8,
           "pressure": 1012, "humidity": 47, "sea_level": 1012, "grnd_level": 987},
  "visibility": 3500,
  "wind": {"speed": 2.06, "deg": 300, "gust": 4.1},
  "clouds": {"all": 20},
  "dt": 1760860800,
  "sys": {"type": 1, "id": 9165, "country": "IN", "sunrise": 1760835240, "sunset": 1760876400},
  "timezone": 19800,
  "id": 1273294,
  "name": "Delhi",
  "cod": 200
}`

// londonBody lacks the optional sea_level, grnd_level, gust and timezone members.
const londonBody = `{
  "coord": {"lon": -0.1257, "lat": 51.5085},
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04n"}],
  "main": {"temp": 9.6, "feels_like": 7.9, "temp_min": 8.3, "temp_max": 10.7,
           "pressure": 1020, "humidity": 81},
  "visibility": 10000,
  "wind": {"speed": 3.6, "deg": 360},
  "clouds": {"all": 75},
  "dt": 1760900000,
  "sys": {"country": "GB", "sunrise": 1760855000, "sunset": 1760892000},
  "name": "London"
}`
