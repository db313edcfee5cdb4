package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/fakhrymubarak/weather-pro/internal/derive"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

// palette holds the three gradient stops for each theme.
var palette = map[derive.ThemeTag][3]string{
	derive.ThemeClearDay:     {"#60a5fa", "#22d3ee", "#2dd4bf"},
	derive.ThemeNight:        {"#312e81", "#581c87", "#831843"},
	derive.ThemeClouds:       {"#4b5563", "#374151", "#1f2937"},
	derive.ThemeRain:         {"#1e40af", "#3730a3", "#6b21a8"},
	derive.ThemeSnow:         {"#bfdbfe", "#93c5fd", "#60a5fa"},
	derive.ThemeThunderstorm: {"#581c87", "#312e81", "#111827"},
}

var bandColors = map[derive.TemperatureBand]string{
	derive.BandHot:  "#f87171",
	derive.BandWarm: "#facc15",
	derive.BandMild: "#4ade80",
	derive.BandCold: "#60a5fa",
}

var iconGlyphs = map[derive.IconTag]string{
	derive.IconSun:       "☀",
	derive.IconCloud:     "☁",
	derive.IconCloudRain: "🌧",
	derive.IconCloudSnow: "🌨",
	derive.IconZap:       "⚡",
}

// Gradient returns the CSS gradient stops for a theme.
func Gradient(theme derive.ThemeTag) [3]string {
	if g, ok := palette[theme]; ok {
		return g
	}
	return palette[derive.DefaultTheme]
}

var pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"gradient":  Gradient,
	"bandColor": func(b derive.TemperatureBand) string { return bandColors[b] },
	"glyph":     func(i derive.IconTag) string { return iconGlyphs[i] },
}).ParseFS(templateFS, "templates/page.html.tmpl"))

// WriteHTML renders the full page for v.
func WriteHTML(w io.Writer, v View) error {
	return pageTemplate.Execute(w, v)
}
