package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
)

const (
	unitsMetric = "metric"
	// maxErrorBody caps how much of a rejected response is read for its message.
	maxErrorBody = 64 << 10
)

// WeatherRepository issues current-weather requests to the provider.
type WeatherRepository interface {
	FetchWeather(ctx context.Context, city string) (model.WeatherSnapshot, error)
}

// weatherRepository implements WeatherRepository against the OpenWeatherMap API.
type weatherRepository struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	validate   *validator.Validate
	logger     *zap.SugaredLogger
}

// NewWeatherRepository creates a repository for the given endpoint and credential.
// The optional client replaces http.DefaultClient.
func NewWeatherRepository(apiURL, apiKey string, httpClient ...*http.Client) WeatherRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		httpClient: client,
		apiURL:     apiURL,
		apiKey:     apiKey,
		validate:   newResponseValidator(),
		logger:     config.GetLogger(),
	}
}

// NewWeatherRepositoryFromConfig wires the repository with an http.Client bounded by
// the configured timeout.
func NewWeatherRepositoryFromConfig(cfg config.Config) WeatherRepository {
	return NewWeatherRepository(cfg.APIURL, cfg.APIKey, &http.Client{Timeout: cfg.HTTPTimeout})
}

// newResponseValidator reports field paths using their JSON names, e.g. "main.temp".
func newResponseValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FetchWeather performs exactly one GET for city and maps the body into a snapshot.
// Every failure is returned as a *model.ErrorDetail.
func (r *weatherRepository) FetchWeather(ctx context.Context, city string) (model.WeatherSnapshot, error) {
	reqURL, err := r.buildURL(city)
	if err != nil {
		return model.WeatherSnapshot{}, model.NewErrorDetail(model.ErrorKindTransportFailure, "invalid provider URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return model.WeatherSnapshot{}, model.NewErrorDetail(model.ErrorKindTransportFailure, "could not build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	r.logger.Debugw("Requesting current weather", "city", city, "url", redact(reqURL))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return model.WeatherSnapshot{}, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.WeatherSnapshot{}, rejectedError(resp)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return model.WeatherSnapshot{}, model.NewErrorDetail(model.ErrorKindMalformedResponse, "weather data could not be read: %v", err)
	}
	if err := r.validate.Struct(&data); err != nil {
		return model.WeatherSnapshot{}, malformedError(err)
	}

	return toSnapshot(&data), nil
}

func (r *weatherRepository) buildURL(city string) (*url.URL, error) {
	u, err := url.Parse(r.apiURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not absolute", r.apiURL)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("appid", r.apiKey)
	q.Set("units", unitsMetric)
	u.RawQuery = q.Encode()
	return u, nil
}

// redact returns the URL with the credential masked, for logging.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func transportError(err error) *model.ErrorDetail {
	timedOut := errors.Is(err, context.DeadlineExceeded)
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		timedOut = timedOut || urlErr.Timeout()
		// url.Error embeds the full request URL, credential included.
		err = urlErr.Err
	}
	if timedOut {
		return model.NewErrorDetail(model.ErrorKindTransportFailure, "The weather service did not respond in time. Please try again.")
	}
	return model.NewErrorDetail(model.ErrorKindTransportFailure, "Could not reach the weather service: %v", err)
}

func rejectedError(resp *http.Response) *model.ErrorDetail {
	var providerMsg string
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload model.OpenWeatherMapError
	if json.Unmarshal(body, &payload) == nil {
		providerMsg = payload.Message
	}

	var msg string
	switch resp.StatusCode {
	case http.StatusNotFound:
		msg = "City not found. Please check the spelling and try again."
	case http.StatusUnauthorized:
		msg = "The weather service rejected the API key."
	case http.StatusTooManyRequests:
		msg = "Too many requests to the weather service. Please try again later."
	default:
		msg = fmt.Sprintf("The weather service returned %d %s.", resp.StatusCode, http.StatusText(resp.StatusCode))
		if providerMsg != "" {
			msg = fmt.Sprintf("The weather service returned %d: %s.", resp.StatusCode, providerMsg)
		}
	}
	return &model.ErrorDetail{
		Kind:       model.ErrorKindProviderRejected,
		Message:    msg,
		StatusCode: resp.StatusCode,
	}
}

func malformedError(err error) *model.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewErrorDetail(model.ErrorKindMalformedResponse, "weather data is incomplete: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return model.NewErrorDetail(model.ErrorKindMalformedResponse, "weather data is incomplete: missing or invalid %s", strings.Join(fields, ", "))
}

// toSnapshot maps a validated payload field by field. Required pointers are non-nil here.
func toSnapshot(data *model.OpenWeatherMapResponse) model.WeatherSnapshot {
	w := data.Weather[0]
	return model.WeatherSnapshot{
		Location: model.Location{
			Name:                  *data.Name,
			CountryCode:           *data.Sys.Country,
			Latitude:              *data.Coord.Lat,
			Longitude:             *data.Coord.Lon,
			TimezoneOffsetSeconds: data.Timezone,
		},
		ObservedAtEpochSeconds: *data.Dt,
		Condition: model.ConditionInfo{
			MainCategory: model.ParseCondition(*w.Main),
			Description:  *w.Description,
			IconCode:     *w.Icon,
		},
		Temperature: model.Temperature{
			CurrentC:   *data.Main.Temp,
			FeelsLikeC: *data.Main.FeelsLike,
			MinC:       *data.Main.TempMin,
			MaxC:       *data.Main.TempMax,
		},
		Atmosphere: model.Atmosphere{
			HumidityPct:    *data.Main.Humidity,
			PressureHpa:    *data.Main.Pressure,
			GroundLevelHpa: data.Main.GrndLevel,
			SeaLevelHpa:    data.Main.SeaLevel,
		},
		Wind: model.Wind{
			SpeedMs:      *data.Wind.Speed,
			DirectionDeg: normalizeDegrees(*data.Wind.Deg),
			GustMs:       data.Wind.Gust,
		},
		CloudCoveragePct: *data.Clouds.All,
		VisibilityMeters: *data.Visibility,
		Sun: model.Sun{
			SunriseEpochSeconds: *data.Sys.Sunrise,
			SunsetEpochSeconds:  *data.Sys.Sunset,
		},
	}
}

// normalizeDegrees folds a bearing into [0, 360).
func normalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
