package render

import (
	"strconv"
	"time"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/derive"
	"github.com/fakhrymubarak/weather-pro/internal/model"
)

// View is everything a surface needs to draw one frame. It is derived from a
// RequestState and the viewer's wall clock, and carries no behaviour.
type View struct {
	Status      string          `json:"status"`
	City        string          `json:"city,omitempty"`
	DefaultCity string          `json:"default_city"`
	Theme       derive.ThemeTag `json:"theme"`
	Clock       string          `json:"clock"`
	Locale      derive.Locale   `json:"locale"`
	// ClockEpochMs and ClockOffsetSeconds let the page keep advancing Clock in the
	// same zone and layout.
	ClockEpochMs       int64  `json:"clock_epoch_ms"`
	ClockOffsetSeconds int    `json:"clock_offset_seconds"`
	Date               string `json:"date,omitempty"`
	// Notice is a transient message about the request itself, such as a rate limit.
	Notice  string       `json:"notice,omitempty"`
	Error   *ErrorView   `json:"error,omitempty"`
	Weather *WeatherView `json:"weather,omitempty"`
}

type ErrorView struct {
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

type WeatherView struct {
	Name        string                 `json:"name"`
	Country     string                 `json:"country"`
	Coordinates string                 `json:"coordinates"`
	Icon        derive.IconTag         `json:"icon"`
	Description string                 `json:"description"`
	TempC       int                    `json:"temp_c"`
	FeelsLikeC  int                    `json:"feels_like_c"`
	MaxC        int                    `json:"max_c"`
	MinC        int                    `json:"min_c"`
	Band        derive.TemperatureBand `json:"band"`

	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`

	HumidityPct  int     `json:"humidity_pct"`
	WindSpeedMs  string  `json:"wind_speed_ms"`
	WindDeg      float64 `json:"wind_deg"`
	WindCompass  string  `json:"wind_compass"`
	GustMs       string  `json:"gust_ms,omitempty"`
	PressureHpa  int     `json:"pressure_hpa"`
	VisibilityKm string  `json:"visibility_km"`

	CloudPct   int    `json:"cloud_pct"`
	CloudLabel string `json:"cloud_label"`

	GroundLevelHpa *int   `json:"ground_level_hpa,omitempty"`
	SeaLevelHpa    *int   `json:"sea_level_hpa,omitempty"`
	LastUpdated    string `json:"last_updated"`
}

// Renderer turns states into views using the configured zone and locale.
type Renderer struct {
	zone        *time.Location
	locale      derive.Locale
	defaultCity string
}

// NewRenderer resolves the display settings once.
func NewRenderer(display config.DisplayConfig, defaultCity string) (*Renderer, error) {
	zone, err := config.ResolveZone(display.Timezone)
	if err != nil {
		return nil, err
	}
	return &Renderer{zone: zone, locale: derive.Locale(display.Locale), defaultCity: defaultCity}, nil
}

// Build projects state onto a View. now is the viewer's wall clock; it drives the clock
// and the day/night theme only. Both are shown in the display zone.
func (r *Renderer) Build(state model.RequestState, now time.Time) View {
	snap, hasSnap := state.Snapshot()
	zone := r.zone
	if hasSnap {
		zone = r.zoneFor(snap)
	} else if zone == nil {
		zone = time.Local
	}
	now = now.In(zone)
	_, offset := now.Zone()

	v := View{
		Status:             state.Kind().String(),
		City:               state.City(),
		DefaultCity:        r.defaultCity,
		Theme:              derive.ThemeGradient(state, now.Hour()),
		Clock:              derive.FormatClock(now, r.locale),
		Locale:             r.locale,
		ClockEpochMs:       now.UnixMilli(),
		ClockOffsetSeconds: offset,
	}
	if detail, ok := state.Err(); ok {
		v.Error = &ErrorView{Kind: detail.Kind, Message: detail.Message}
	}
	if hasSnap {
		v.Date = derive.FormatLocalDate(snap.ObservedAtEpochSeconds, zone, r.locale)
		v.Weather = r.weatherView(snap, zone)
	}
	return v
}

func (r *Renderer) zoneFor(snap model.WeatherSnapshot) *time.Location {
	if r.zone != nil {
		return r.zone
	}
	if off := snap.Location.TimezoneOffsetSeconds; off != nil {
		return derive.OffsetZone(*off)
	}
	return time.Local
}

func (r *Renderer) weatherView(snap model.WeatherSnapshot, zone *time.Location) *WeatherView {
	w := &WeatherView{
		Name:        snap.Location.Name,
		Country:     snap.Location.CountryCode,
		Coordinates: formatFloat(snap.Location.Latitude) + "°N, " + formatFloat(snap.Location.Longitude) + "°E",
		Icon:        derive.IconCategory(snap.Condition.MainCategory),
		Description: derive.Capitalize(snap.Condition.Description),
		TempC:       derive.RoundHalfUp(snap.Temperature.CurrentC),
		FeelsLikeC:  derive.RoundHalfUp(snap.Temperature.FeelsLikeC),
		MaxC:        derive.RoundHalfUp(snap.Temperature.MaxC),
		MinC:        derive.RoundHalfUp(snap.Temperature.MinC),
		Band:        derive.TemperatureColorBand(snap.Temperature.CurrentC),

		Sunrise: derive.FormatLocalTime(snap.Sun.SunriseEpochSeconds, zone, r.locale),
		Sunset:  derive.FormatLocalTime(snap.Sun.SunsetEpochSeconds, zone, r.locale),

		HumidityPct:  snap.Atmosphere.HumidityPct,
		WindSpeedMs:  formatFloat(snap.Wind.SpeedMs),
		WindDeg:      snap.Wind.DirectionDeg,
		WindCompass:  derive.WindCompassLabel(snap.Wind.DirectionDeg),
		PressureHpa:  snap.Atmosphere.PressureHpa,
		VisibilityKm: formatFloat(derive.VisibilityKm(snap.VisibilityMeters)),

		CloudPct:   snap.CloudCoveragePct,
		CloudLabel: string(derive.CloudLabel(snap.CloudCoveragePct)),

		GroundLevelHpa: snap.Atmosphere.GroundLevelHpa,
		SeaLevelHpa:    snap.Atmosphere.SeaLevelHpa,
		LastUpdated:    derive.FormatLocalTime(snap.ObservedAtEpochSeconds, zone, r.locale),
	}
	if snap.Wind.GustMs != nil {
		w.GustMs = formatFloat(*snap.Wind.GustMs)
	}
	return w
}

// formatFloat prints the shortest exact decimal, e.g. 3.5 or 10.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
