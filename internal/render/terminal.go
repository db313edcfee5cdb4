package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/fakhrymubarak/weather-pro/internal/derive"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBold    = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	clearScreen = "\x1b[H\x1b[2J"
	labelWidth  = 16
)

var bandANSI = map[derive.TemperatureBand]string{
	derive.BandHot:  "\x1b[91m",
	derive.BandWarm: "\x1b[93m",
	derive.BandMild: "\x1b[92m",
	derive.BandCold: "\x1b[94m",
}

// Terminal draws views as a plain-text card.
type Terminal struct {
	out   io.Writer
	color bool
}

// NewTerminal writes to f, with ANSI colour only when f is a terminal.
func NewTerminal(f *os.File) *Terminal {
	fd := f.Fd()
	return &Terminal{
		out:   colorable.NewColorable(f),
		color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// NewPlainTerminal writes uncoloured output to w.
func NewPlainTerminal(w io.Writer) *Terminal {
	return &Terminal{out: w}
}

// Redraw clears the screen before drawing, for watch mode.
func (t *Terminal) Redraw(v View) error {
	if t.color {
		if _, err := io.WriteString(t.out, clearScreen); err != nil {
			return err
		}
	}
	return t.Draw(v)
}

// Draw writes one card for v.
func (t *Terminal) Draw(v View) error {
	var b strings.Builder

	header := "Weather Pro · " + v.Clock
	if v.Date != "" {
		header += " · " + v.Date
	}
	b.WriteString(t.style(ansiBold, header))
	b.WriteString("\n\n")

	switch {
	case v.Status == "loading":
		fmt.Fprintf(&b, "Fetching weather data for %s...\n", v.City)
	case v.Error != nil:
		b.WriteString(t.style(ansiRed, "Oops! Something went wrong"))
		b.WriteString("\n")
		b.WriteString(v.Error.Message)
		b.WriteString("\n")
	case v.Weather != nil:
		t.writeWeather(&b, v.Weather)
	default:
		b.WriteString("No weather loaded.\n")
	}

	b.WriteString("\n")
	b.WriteString(t.style(ansiDim, "Powered by OpenWeatherMap API"))
	b.WriteString("\n")

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Terminal) writeWeather(b *strings.Builder, w *WeatherView) {
	fmt.Fprintf(b, "%s, %s  (%s)\n", w.Name, w.Country, w.Coordinates)
	temp := fmt.Sprintf("%s %d°", iconGlyphs[w.Icon], w.TempC)
	fmt.Fprintf(b, "%s  feels like %d°  %s\n", t.style(bandANSI[w.Band], temp), w.FeelsLikeC, w.Description)
	fmt.Fprintf(b, "Max: %d°  Min: %d°\n\n", w.MaxC, w.MinC)

	wind := w.WindSpeedMs + " m/s " + w.WindCompass
	if w.GustMs != "" {
		wind += " · Gust: " + w.GustMs + " m/s"
	}

	rows := [][2]string{
		{"Sunrise", w.Sunrise},
		{"Sunset", w.Sunset},
		{"Humidity", strconv.Itoa(w.HumidityPct) + "%"},
		{"Wind", wind},
		{"Pressure", strconv.Itoa(w.PressureHpa) + " hPa"},
		{"Visibility", w.VisibilityKm + " km"},
		{"Cloud Coverage", strconv.Itoa(w.CloudPct) + "% · " + w.CloudLabel},
	}
	if w.GroundLevelHpa != nil {
		rows = append(rows, [2]string{"Ground Level", strconv.Itoa(*w.GroundLevelHpa) + " hPa"})
	}
	if w.SeaLevelHpa != nil {
		rows = append(rows, [2]string{"Sea Level", strconv.Itoa(*w.SeaLevelHpa) + " hPa"})
	}
	rows = append(rows, [2]string{"Last Updated", w.LastUpdated})

	for _, r := range rows {
		b.WriteString(runewidth.FillRight(r[0], labelWidth))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
}

func (t *Terminal) style(code, s string) string {
	if !t.color || code == "" {
		return s
	}
	return code + s + ansiReset
}
