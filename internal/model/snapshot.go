package model

// Condition is the provider's top-level weather group, narrowed to the groups the
// client distinguishes. Anything else is ConditionOther.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionOther        Condition = "Other"
)

// ParseCondition maps weather[0].main onto a Condition.
func ParseCondition(main string) Condition {
	switch Condition(main) {
	case ConditionClear, ConditionClouds, ConditionRain, ConditionSnow, ConditionThunderstorm:
		return Condition(main)
	default:
		return ConditionOther
	}
}

type Location struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	// TimezoneOffsetSeconds is the shift from UTC reported by the provider, nil when absent.
	TimezoneOffsetSeconds *int `json:"timezone_offset_seconds,omitempty"`
}

type ConditionInfo struct {
	MainCategory Condition `json:"main_category"`
	Description  string    `json:"description"`
	IconCode     string    `json:"icon_code"`
}

type Temperature struct {
	CurrentC   float64 `json:"current_c"`
	FeelsLikeC float64 `json:"feels_like_c"`
	MinC       float64 `json:"min_c"`
	MaxC       float64 `json:"max_c"`
}

type Atmosphere struct {
	HumidityPct    int  `json:"humidity_pct"`
	PressureHpa    int  `json:"pressure_hpa"`
	GroundLevelHpa *int `json:"ground_level_hpa,omitempty"`
	SeaLevelHpa    *int `json:"sea_level_hpa,omitempty"`
}

type Wind struct {
	SpeedMs      float64  `json:"speed_ms"`
	DirectionDeg float64  `json:"direction_deg"`
	GustMs       *float64 `json:"gust_ms,omitempty"`
}

type Sun struct {
	SunriseEpochSeconds int64 `json:"sunrise_epoch_seconds"`
	SunsetEpochSeconds  int64 `json:"sunset_epoch_seconds"`
}

// WeatherSnapshot is one complete observation for one location. It is built once per
// successful fetch and never modified afterwards; a newer fetch replaces it wholesale.
type WeatherSnapshot struct {
	Location               Location      `json:"location"`
	ObservedAtEpochSeconds int64         `json:"observed_at_epoch_seconds"`
	Condition              ConditionInfo `json:"condition"`
	Temperature            Temperature   `json:"temperature"`
	Atmosphere             Atmosphere    `json:"atmosphere"`
	Wind                   Wind          `json:"wind"`
	CloudCoveragePct       int           `json:"cloud_coverage_pct"`
	VisibilityMeters       int           `json:"visibility_meters"`
	Sun                    Sun           `json:"sun"`
}
