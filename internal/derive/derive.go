package derive

import (
	"math"

	"github.com/fakhrymubarak/weather-pro/internal/model"
)

// IconTag names the pictogram shown next to the temperature.
type IconTag string

const (
	IconSun       IconTag = "sun"
	IconCloud     IconTag = "cloud"
	IconCloudRain IconTag = "cloud-rain"
	IconCloudSnow IconTag = "cloud-snow"
	IconZap       IconTag = "zap"
)

// IconCategory maps a condition to its icon. Unrecognised conditions get the cloud.
func IconCategory(c model.Condition) IconTag {
	switch c {
	case model.ConditionClear:
		return IconSun
	case model.ConditionClouds:
		return IconCloud
	case model.ConditionRain:
		return IconCloudRain
	case model.ConditionSnow:
		return IconCloudSnow
	case model.ConditionThunderstorm:
		return IconZap
	default:
		return IconCloud
	}
}

// ThemeTag names one of the six background palettes.
type ThemeTag string

const (
	ThemeClearDay     ThemeTag = "clear-day"
	ThemeNight        ThemeTag = "night"
	ThemeClouds       ThemeTag = "clouds"
	ThemeRain         ThemeTag = "rain"
	ThemeSnow         ThemeTag = "snow"
	ThemeThunderstorm ThemeTag = "thunderstorm"
)

// DefaultTheme is used whenever there is no snapshot to show.
const DefaultTheme = ThemeNight

// ThemeGradient picks the palette for the state. localHour is the viewer's wall-clock
// hour, not the observed location's.
func ThemeGradient(state model.RequestState, localHour int) ThemeTag {
	snap, ok := state.Snapshot()
	if !ok {
		return DefaultTheme
	}
	return ThemeForCondition(snap.Condition.MainCategory, localHour)
}

// ThemeForCondition is ThemeGradient for a known condition.
func ThemeForCondition(c model.Condition, localHour int) ThemeTag {
	switch c {
	case model.ConditionClear:
		if localHour >= 6 && localHour < 18 {
			return ThemeClearDay
		}
		return ThemeNight
	case model.ConditionClouds:
		return ThemeClouds
	case model.ConditionRain:
		return ThemeRain
	case model.ConditionSnow:
		return ThemeSnow
	case model.ConditionThunderstorm:
		return ThemeThunderstorm
	default:
		return DefaultTheme
	}
}

// CompassLabels are the 16 points, clockwise from north.
var CompassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindCompassLabel returns the 22.5° sector centred on directionDeg.
// The index is round-half-up(deg/22.5) mod 16, so 11.25 is NNE and 348.75 wraps to N.
func WindCompassLabel(directionDeg float64) string {
	idx := RoundHalfUp(directionDeg/22.5) % 16
	if idx < 0 {
		idx += 16
	}
	return CompassLabels[idx]
}

// TemperatureBand is the colour band for a temperature.
type TemperatureBand string

const (
	BandHot  TemperatureBand = "hot"
	BandWarm TemperatureBand = "warm"
	BandMild TemperatureBand = "mild"
	BandCold TemperatureBand = "cold"
)

// TemperatureColorBand bands with strict thresholds: >30 hot, >20 warm, >10 mild.
func TemperatureColorBand(tempC float64) TemperatureBand {
	switch {
	case tempC > 30:
		return BandHot
	case tempC > 20:
		return BandWarm
	case tempC > 10:
		return BandMild
	default:
		return BandCold
	}
}

// CloudCover is the qualitative reading of a coverage percentage.
type CloudCover string

const (
	VeryCloudy   CloudCover = "Very Cloudy"
	PartlyCloudy CloudCover = "Partly Cloudy"
	FewClouds    CloudCover = "Few Clouds"
	ClearSky     CloudCover = "Clear Sky"
)

// CloudLabel bands with strict thresholds: >80, >50, >20.
func CloudLabel(pct int) CloudCover {
	switch {
	case pct > 80:
		return VeryCloudy
	case pct > 50:
		return PartlyCloudy
	case pct > 20:
		return FewClouds
	default:
		return ClearSky
	}
}

// RoundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so 25.5 is 26 and -2.5 is -2.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// VisibilityKm converts the provider's meters to kilometres.
func VisibilityKm(meters int) float64 {
	return float64(meters) / 1000
}
