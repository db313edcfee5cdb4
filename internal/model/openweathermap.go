package model

// OpenWeatherMapResponse is the subset of the current-weather payload the client consumes.
// Required members are pointers so that an absent field can be told apart from a zero value.
type OpenWeatherMapResponse struct {
	Name       *string           `json:"name" validate:"required"`
	Dt         *int64            `json:"dt" validate:"required"`
	Timezone   *int              `json:"timezone"`
	Visibility *int              `json:"visibility" validate:"required,gte=0"`
	Coord      *OWMCoord         `json:"coord" validate:"required"`
	Sys        *OWMSys           `json:"sys" validate:"required"`
	Main       *OWMMain          `json:"main" validate:"required"`
	Wind       *OWMWind          `json:"wind" validate:"required"`
	Clouds     *OWMClouds        `json:"clouds" validate:"required"`
	Weather    []OWMWeatherEntry `json:"weather" validate:"required,min=1,dive"`
}

type OWMCoord struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type OWMSys struct {
	Country *string `json:"country" validate:"required"`
	Sunrise *int64  `json:"sunrise" validate:"required"`
	Sunset  *int64  `json:"sunset" validate:"required"`
}

type OWMMain struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like" validate:"required"`
	TempMin   *float64 `json:"temp_min" validate:"required"`
	TempMax   *float64 `json:"temp_max" validate:"required"`
	Pressure  *int     `json:"pressure" validate:"required"`
	Humidity  *int     `json:"humidity" validate:"required,gte=0,lte=100"`
	SeaLevel  *int     `json:"sea_level"`
	GrndLevel *int     `json:"grnd_level"`
}

type OWMWind struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *float64 `json:"deg" validate:"required"`
	Gust  *float64 `json:"gust"`
}

type OWMClouds struct {
	All *int `json:"all" validate:"required,gte=0,lte=100"`
}

type OWMWeatherEntry struct {
	ID          int     `json:"id"`
	Main        *string `json:"main" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Icon        *string `json:"icon" validate:"required"`
}

// OpenWeatherMapError is the body OpenWeatherMap sends alongside non-2xx statuses.
// cod is a string for some errors and a number for others.
type OpenWeatherMapError struct {
	Cod     interface{} `json:"cod"`
	Message string      `json:"message"`
}
