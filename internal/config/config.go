package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// ZoneLocal formats times in the process's local zone.
	ZoneLocal = "Local"
	// ZoneLocation formats times in the observed location's own UTC offset.
	ZoneLocation = "location"
)

var (
	ErrAPIKeyMissing = errors.New("OPENWEATHERMAP_API_KEY is not set")

	supportedLocales = map[string]bool{"en-IN": true, "en-US": true}
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// Config is the process-wide configuration. It is resolved once by Load and passed by
// value afterwards.
type Config struct {
	APIURL      string
	APIKey      string
	DefaultCity string
	Units       string
	HTTPTimeout time.Duration

	Server      ServerConfig
	Display     DisplayConfig
	RateLimiter RateLimiterConfig

	// RefreshSchedule is a cron spec with a seconds field; empty disables auto refresh.
	RefreshSchedule string
}

type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

type DisplayConfig struct {
	// Timezone is ZoneLocal, ZoneLocation or an IANA zone name.
	Timezone string
	Locale   string
}

type RateLimiterConfig struct {
	GlobalRate     float64
	GlobalBurst    int
	ParamRate      float64
	ParamBurst     int
	CleanupTimeout time.Duration
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("weather.default_city", "Delhi")
	viper.SetDefault("weather.units", "metric")
	viper.SetDefault("http_client.timeout", "10s")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("display.timezone", ZoneLocal)
	viper.SetDefault("display.locale", "en-IN")
	viper.SetDefault("refresh.schedule", "")
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Warnw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetOpenWeatherApiUrl() string {
	initConfig()
	return viper.GetString("openweathermap.api_url")
}

// GetOpenWeatherMapAPIKey reads the key from the environment, loading .env first.
func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetDefaultCity() string {
	initConfig()
	return strings.TrimSpace(viper.GetString("weather.default_city"))
}

func GetUnits() string {
	initConfig()
	return viper.GetString("weather.units")
}

func GetHTTPClientTimeout() string {
	initConfig()
	return viper.GetString("http_client.timeout")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

func GetDisplayTimezone() string {
	initConfig()
	return viper.GetString("display.timezone")
}

func GetDisplayLocale() string {
	initConfig()
	return viper.GetString("display.locale")
}

func GetRefreshSchedule() string {
	initConfig()
	return strings.TrimSpace(viper.GetString("refresh.schedule"))
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns requests per minute and burst for the per-IP limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns requests per minute and burst for the per-city limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}

// Load resolves the whole configuration once. Callers keep the returned value for the
// process lifetime.
func Load() (Config, error) {
	cfg := Config{
		APIURL:          GetOpenWeatherApiUrl(),
		APIKey:          GetOpenWeatherMapAPIKey(),
		DefaultCity:     GetDefaultCity(),
		Units:           GetUnits(),
		RefreshSchedule: GetRefreshSchedule(),
		Display: DisplayConfig{
			Timezone: GetDisplayTimezone(),
			Locale:   GetDisplayLocale(),
		},
	}
	if cfg.APIKey == "" {
		return Config{}, ErrAPIKeyMissing
	}
	if cfg.APIURL == "" {
		return Config{}, errors.New("openweathermap.api_url is empty")
	}
	if cfg.DefaultCity == "" {
		return Config{}, errors.New("weather.default_city is empty")
	}
	if cfg.Units != "metric" {
		return Config{}, fmt.Errorf("unsupported weather.units %q: only metric is supported", cfg.Units)
	}
	if !supportedLocales[cfg.Display.Locale] {
		return Config{}, fmt.Errorf("unsupported display.locale %q", cfg.Display.Locale)
	}
	if _, err := ResolveZone(cfg.Display.Timezone); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration("http_client.timeout", GetHTTPClientTimeout()); err != nil {
		return Config{}, err
	}

	cfg.Server.Port = GetServerPort()
	timeouts := map[string]*time.Duration{
		"read_header_timeout": &cfg.Server.ReadHeaderTimeout,
		"read_timeout":        &cfg.Server.ReadTimeout,
		"write_timeout":       &cfg.Server.WriteTimeout,
		"idle_timeout":        &cfg.Server.IdleTimeout,
	}
	for key, dst := range timeouts {
		if *dst, err = parseDuration("server."+key, GetServerTimeout(key)); err != nil {
			return Config{}, err
		}
	}

	// A search waits up to HTTPTimeout for the provider before its redirect is written.
	if cfg.Server.WriteTimeout <= cfg.HTTPTimeout {
		return Config{}, fmt.Errorf("server.write_timeout (%s) must exceed http_client.timeout (%s)",
			cfg.Server.WriteTimeout, cfg.HTTPTimeout)
	}

	cfg.RateLimiter.GlobalRate, cfg.RateLimiter.GlobalBurst = GetGlobalRateLimiterConfig()
	cfg.RateLimiter.ParamRate, cfg.RateLimiter.ParamBurst = GetParamRateLimiterConfig()
	cfg.RateLimiter.CleanupTimeout = GetRateLimiterCleanupTimeout()

	return cfg, nil
}

// ResolveZone maps a display.timezone value to a *time.Location. ZoneLocation resolves to
// nil: the caller substitutes the snapshot's own offset.
func ResolveZone(name string) (*time.Location, error) {
	switch name {
	case "", ZoneLocal:
		return time.Local, nil
	case ZoneLocation:
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid display.timezone %q: %w", name, err)
	}
	return loc, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
