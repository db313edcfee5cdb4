package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
)

const testAPIURL = "https://api.openweathermap.org/data/2.5/weather"

func TestNewWeatherRepository(t *testing.T) {
	repo := NewWeatherRepository(testAPIURL, "key")
	require.NotNil(t, repo)
	assert.Equal(t, http.DefaultClient, repo.(*weatherRepository).httpClient)

	custom := &http.Client{}
	repo = NewWeatherRepository(testAPIURL, "key", custom)
	assert.Same(t, custom, repo.(*weatherRepository).httpClient)
}

func TestNewWeatherRepositoryFromConfig(t *testing.T) {
	repo := NewWeatherRepositoryFromConfig(config.Config{APIURL: testAPIURL, APIKey: "k", HTTPTimeout: 3 * time.Second})
	r := repo.(*weatherRepository)
	assert.Equal(t, 3*time.Second, r.httpClient.Timeout)
	assert.Equal(t, "k", r.apiKey)
}

func TestFetchWeather_BuildsQuery(t *testing.T) {
	var got *http.Request
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(http.StatusOK, delhiBody), nil
	})
	repo := NewWeatherRepository(testAPIURL, "s3cr3t", client)

	_, err := repo.FetchWeather(context.Background(), "New Delhi")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "api.openweathermap.org", got.URL.Host)
	assert.Equal(t, "/data/2.5/weather", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "New Delhi", q.Get("q"))
	assert.Equal(t, "s3cr3t", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
}

func TestFetchWeather_MapsSnapshot(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, delhiBody), nil
	})
	repo := NewWeatherRepository(testAPIURL, "key", client)

	snap, err := repo.FetchWeather(context.Background(), "Delhi")
	require.NoError(t, err)

	assert.Equal(t, "Delhi", snap.Location.Name)
	assert.Equal(t, "IN", snap.Location.CountryCode)
	assert.Equal(t, 28.6667, snap.Location.Latitude)
	assert.Equal(t, 77.2167, snap.Location.Longitude)
	require.NotNil(t, snap.Location.TimezoneOffsetSeconds)
	assert.Equal(t, 19800, *snap.Location.TimezoneOffsetSeconds)
	assert.Equal(t, int64(1760860800), snap.ObservedAtEpochSeconds)

	assert.Equal(t, model.ConditionOther, snap.Condition.MainCategory)
	assert.Equal(t, "haze", snap.Condition.Description)
	assert.Equal(t, "50d", snap.Condition.IconCode)

	assert.Equal(t, 25.4, snap.Temperature.CurrentC)
	assert.Equal(t, 25.1, snap.Temperature.FeelsLikeC)
	assert.Equal(t, 24.05, snap.Temperature.MinC)
	assert.Equal(t, 26.8, snap.Temperature.MaxC)

	assert.Equal(t, 47, snap.Atmosphere.HumidityPct)
	assert.Equal(t, 1012, snap.Atmosphere.PressureHpa)
	require.NotNil(t, snap.Atmosphere.GroundLevelHpa)
	assert.Equal(t, 987, *snap.Atmosphere.GroundLevelHpa)
	require.NotNil(t, snap.Atmosphere.SeaLevelHpa)
	assert.Equal(t, 1012, *snap.Atmosphere.SeaLevelHpa)

	assert.Equal(t, 2.06, snap.Wind.SpeedMs)
	assert.Equal(t, 300.0, snap.Wind.DirectionDeg)
	require.NotNil(t, snap.Wind.GustMs)
	assert.Equal(t, 4.1, *snap.Wind.GustMs)

	assert.Equal(t, 20, snap.CloudCoveragePct)
	assert.Equal(t, 3500, snap.VisibilityMeters)
	assert.Equal(t, int64(1760835240), snap.Sun.SunriseEpochSeconds)
	assert.Equal(t, int64(1760876400), snap.Sun.SunsetEpochSeconds)
}

func TestFetchWeather_OptionalFieldsAbsent(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, londonBody), nil
	})
	repo := NewWeatherRepository(testAPIURL, "key", client)

	snap, err := repo.FetchWeather(context.Background(), "London")
	require.NoError(t, err)

	assert.Nil(t, snap.Wind.GustMs)
	assert.Nil(t, snap.Atmosphere.GroundLevelHpa)
	assert.Nil(t, snap.Atmosphere.SeaLevelHpa)
	assert.Nil(t, snap.Location.TimezoneOffsetSeconds)
	assert.Equal(t, model.ConditionClouds, snap.Condition.MainCategory)
	// 360 is folded back into [0, 360)
	assert.Equal(t, 0.0, snap.Wind.DirectionDeg)
}

func TestFetchWeather_Idempotent(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, delhiBody), nil
	})
	repo := NewWeatherRepository(testAPIURL, "key", client)

	first, err := repo.FetchWeather(context.Background(), "Delhi")
	require.NoError(t, err)
	second, err := repo.FetchWeather(context.Background(), "Delhi")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFetchWeather_ProviderRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "city not found",
			status:  http.StatusNotFound,
			body:    `{"cod":"404","message":"city not found"}`,
			message: "City not found. Please check the spelling and try again.",
		},
		{
			name:    "invalid key",
			status:  http.StatusUnauthorized,
			body:    `{"cod":401,"message":"Invalid API key."}`,
			message: "The weather service rejected the API key.",
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"cod":429}`,
			message: "Too many requests to the weather service. Please try again later.",
		},
		{
			name:    "server error with provider message",
			status:  http.StatusBadGateway,
			body:    `{"cod":"502","message":"upstream unavailable"}`,
			message: "The weather service returned 502: upstream unavailable.",
		},
		{
			name:    "server error without body",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			message: "The weather service returned 500 Internal Server Error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			repo := NewWeatherRepository(testAPIURL, "key", client)

			_, err := repo.FetchWeather(context.Background(), "Atlantis")
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrProviderRejected)

			var detail *model.ErrorDetail
			require.True(t, errors.As(err, &detail))
			assert.Equal(t, tt.message, detail.Message)
			assert.Equal(t, tt.status, detail.StatusCode)
		})
	}
}

func TestFetchWeather_TransportFailure(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	repo := NewWeatherRepository(testAPIURL, "topsecret", client)

	_, err := repo.FetchWeather(context.Background(), "Delhi")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransportFailure)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestFetchWeather_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	repo := NewWeatherRepository(srv.URL, "key", &http.Client{Timeout: 50 * time.Millisecond})

	_, err := repo.FetchWeather(context.Background(), "Delhi")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransportFailure)
	assert.Contains(t, err.Error(), "did not respond in time")
}

func TestFetchWeather_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	})
	repo := NewWeatherRepository(testAPIURL, "key", client)

	_, err := repo.FetchWeather(ctx, "Delhi")
	assert.ErrorIs(t, err, model.ErrTransportFailure)
}

func TestFetchWeather_InvalidAPIURL(t *testing.T) {
	repo := NewWeatherRepository("not a url", "key")
	_, err := repo.FetchWeather(context.Background(), "Delhi")
	assert.ErrorIs(t, err, model.ErrTransportFailure)
}

func TestFetchWeather_MalformedResponse(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name: "not json",
			body: "<html>gateway</html>",
		},
		{
			name:   "empty object",
			body:   "{}",
			fields: []string{"name", "main", "wind", "weather"},
		},
		{
			name:   "missing temp",
			body:   strings.Replace(delhiBody, `"temp": 25.4, `, "", 1),
			fields: []string{"main.temp"},
		},
		{
			name:   "missing wind deg",
			body:   strings.Replace(delhiBody, `"deg": 300, `, "", 1),
			fields: []string{"wind.deg"},
		},
		{
			name:   "empty weather list",
			body:   strings.Replace(delhiBody, `[{"id": 721, "main": "Haze", "description": "haze", "icon": "50d"}]`, "[]", 1),
			fields: []string{"weather"},
		},
		{
			name:   "humidity out of range",
			body:   strings.Replace(delhiBody, `"humidity": 47`, `"humidity": 140`, 1),
			fields: []string{"main.humidity"},
		},
		{
			name:   "clouds out of range",
			body:   strings.Replace(delhiBody, `"all": 20`, `"all": -1`, 1),
			fields: []string{"clouds.all"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, tt.body), nil
			})
			repo := NewWeatherRepository(testAPIURL, "key", client)

			_, err := repo.FetchWeather(context.Background(), "Delhi")
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrMalformedResponse)
			for _, f := range tt.fields {
				assert.Contains(t, err.Error(), f)
			}
		})
	}
}

func TestFetchWeather_AgainstHTTPTestServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "London" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(londonBody))
	}))
	defer srv.Close()

	repo := NewWeatherRepository(srv.URL, "key", srv.Client())

	snap, err := repo.FetchWeather(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "GB", snap.Location.CountryCode)

	_, err = repo.FetchWeather(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, model.ErrProviderRejected)
}

func TestRedact(t *testing.T) {
	r := NewWeatherRepository(testAPIURL, "s3cr3t").(*weatherRepository)
	u, err := r.buildURL("Delhi")
	require.NoError(t, err)

	out := redact(u)
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "appid=REDACTED")
	// input URL is left as is
	assert.Equal(t, "s3cr3t", u.Query().Get("appid"))
}

func TestNormalizeDegrees(t *testing.T) {
	assert.Equal(t, 0.0, normalizeDegrees(0))
	assert.Equal(t, 0.0, normalizeDegrees(360))
	assert.Equal(t, 10.0, normalizeDegrees(370))
	assert.Equal(t, 350.0, normalizeDegrees(-10))
	assert.Equal(t, 359.5, normalizeDegrees(359.5))
}
