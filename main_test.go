package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/service"
)

const delhiPayload = `{
  "coord": {"lon": 77.2167, "lat": 28.6667},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "main": {"temp": 25.4, "feels_like": 25.1, "temp_min": 24.05, "temp_max": 26.8,
           "pressure": 1012, "humidity": 47},
  "visibility": 3500,
  "wind": {"speed": 2.06, "deg": 300},
  "clouds": {"all": 0},
  "dt": 1760860800,
  "sys": {"country": "IN", "sunrise": 1760835240, "sunset": 1760876400},
  "name": "Delhi"
}`

// setupProvider points the configuration at a fake provider that knows only Delhi.
func setupProvider(t *testing.T) *atomic.Int32 {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if strings.EqualFold(r.URL.Query().Get("q"), "Delhi") {
			_, _ = io.WriteString(w, delhiPayload)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENWEATHERMAP_API_KEY", "test_api_key")
	t.Setenv("OPENWEATHERMAP_API_URL", srv.URL)
	config.ReloadConfigForTest()
	return &hits
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "serve by default", args: nil, want: options{}},
		{name: "once", args: []string{"--once"}, want: options{once: true}},
		{name: "once with city", args: []string{"--once", "--city", "Paris"}, want: options{once: true, city: "Paris"}},
		{name: "watch", args: []string{"--watch", "--city=Oslo"}, want: options{watch: true, city: "Oslo"}},
		{name: "city is trimmed", args: []string{"--once", "--city", "  Paris "}, want: options{once: true, city: "Paris"}},
		{name: "blank city", args: []string{"--once", "--city", "   "}, wantErr: true},
		{name: "empty city", args: []string{"--city="}, wantErr: true},
		{name: "overlong city", args: []string{"--city", strings.Repeat("x", 101)}, wantErr: true},
		{name: "exclusive modes", args: []string{"--once", "--watch"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestRun_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "")
	err := run(context.Background(), options{once: true}, io.Discard)
	assert.ErrorIs(t, err, config.ErrAPIKeyMissing)
}

func TestRun_Once(t *testing.T) {
	hits := setupProvider(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), options{once: true}, &out))

	card := out.String()
	assert.Contains(t, card, "Delhi, IN")
	assert.Contains(t, card, "25°")
	assert.Contains(t, card, "Clear Sky")
	assert.Contains(t, card, "Powered by OpenWeatherMap API")
	assert.Equal(t, int32(1), hits.Load())
}

func TestRun_OnceFailure(t *testing.T) {
	setupProvider(t)
	var out bytes.Buffer

	err := run(context.Background(), options{once: true, city: "Atlantis"}, &out)
	assert.ErrorIs(t, err, errFetchFailed)
	assert.Contains(t, out.String(), "Oops! Something went wrong")
	assert.Contains(t, out.String(), "City not found. Please check the spelling and try again.")
}

func TestRun_OnceBlankCity(t *testing.T) {
	hits := setupProvider(t)
	var out bytes.Buffer

	err := run(context.Background(), options{once: true, city: "   "}, &out)
	assert.ErrorIs(t, err, service.ErrEmptyCity)
	assert.Contains(t, err.Error(), "invalid --city")
	assert.Equal(t, int32(0), hits.Load())
	assert.Empty(t, out.String())
}

func TestRun_OnceTrimsCity(t *testing.T) {
	hits := setupProvider(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), options{once: true, city: "  delhi  "}, &out))
	assert.Contains(t, out.String(), "Delhi, IN")
	assert.Equal(t, int32(1), hits.Load())
}

func TestRun_Watch(t *testing.T) {
	setupProvider(t)
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 1300*time.Millisecond)
	defer cancel()
	require.NoError(t, run(ctx, options{watch: true}, &out))

	frames := out.String()
	assert.GreaterOrEqual(t, strings.Count(frames, "Powered by OpenWeatherMap API"), 2)
	assert.Contains(t, frames, "Delhi, IN")
}

func TestRun_Serve(t *testing.T) {
	hits := setupProvider(t)
	t.Setenv("SERVER_PORT", "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, options{}, io.Discard) }()

	assert.Eventually(t, func() bool { return hits.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
