package derive

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Locale selects display layouts. Only the two below are supported.
type Locale string

const (
	LocaleEnIN Locale = "en-IN"
	LocaleEnUS Locale = "en-US"
)

type layouts struct {
	time  string
	clock string
	date  string
}

var localeLayouts = map[Locale]layouts{
	LocaleEnIN: {time: "03:04 pm", clock: "03:04:05 pm", date: "Monday, 2 January 2006"},
	LocaleEnUS: {time: "03:04 PM", clock: "03:04:05 PM", date: "Monday, January 2, 2006"},
}

func layoutsFor(locale Locale) layouts {
	if l, ok := localeLayouts[locale]; ok {
		return l
	}
	return localeLayouts[LocaleEnIN]
}

func inZone(epochSeconds int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(epochSeconds, 0).In(loc)
}

// FormatLocalTime renders hour and minute of a UTC epoch timestamp in loc.
func FormatLocalTime(epochSeconds int64, loc *time.Location, locale Locale) string {
	return inZone(epochSeconds, loc).Format(layoutsFor(locale).time)
}

// FormatLocalDate renders the long weekday, day, month and year of a timestamp in loc.
func FormatLocalDate(epochSeconds int64, loc *time.Location, locale Locale) string {
	return inZone(epochSeconds, loc).Format(layoutsFor(locale).date)
}

// FormatClock renders a wall-clock instant with seconds.
func FormatClock(t time.Time, locale Locale) string {
	return t.Format(layoutsFor(locale).clock)
}

// OffsetZone builds a fixed zone from a provider UTC offset.
func OffsetZone(offsetSeconds int) *time.Location {
	return time.FixedZone("", offsetSeconds)
}

// Capitalize upper-cases the first letter of every word.
func Capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
