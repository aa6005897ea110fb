// Package env contains the canonical environment record shared across layers.
package env

import (
	"fmt"
	"math"
	"strings"
)

// Bounds for a valid environment record.
const (
	TemperatureMin = -20.0
	TemperatureMax = 50.0
	HumidityMin    = 0.0
	HumidityMax    = 100.0
)

// Defaults applied when no preference is active or inference fails.
const (
	DefaultTemperature = 22.0
	DefaultHumidity    = 50.0
	DefaultLightColor  = "#FFD9A0"
	DefaultMusic       = "Clair de Lune"
)

// Environment is the canonical tuple describing the desired ambient state.
// Only the normalizer constructs these; downstream consumers never see a
// partially populated record.
type Environment struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	LightColor  string  `json:"lightColor"`  // "#RRGGBB"
	Music       string  `json:"music"`       // catalog id or title
}

// Default returns the process-wide default environment.
func Default() Environment {
	return Environment{
		Temperature: DefaultTemperature,
		Humidity:    DefaultHumidity,
		LightColor:  DefaultLightColor,
		Music:       DefaultMusic,
	}
}

// Valid reports whether e satisfies every record invariant.
func (e Environment) Valid() bool {
	if math.IsNaN(e.Temperature) || math.IsInf(e.Temperature, 0) {
		return false
	}
	if math.IsNaN(e.Humidity) || math.IsInf(e.Humidity, 0) {
		return false
	}
	if e.Temperature < TemperatureMin || e.Temperature > TemperatureMax {
		return false
	}
	if e.Humidity < HumidityMin || e.Humidity > HumidityMax {
		return false
	}
	if _, _, _, ok := ParseHexColor(e.LightColor); !ok {
		return false
	}
	return e.Music != ""
}

// ClampTemperature clamps t into the valid temperature range.
func ClampTemperature(t float64) float64 {
	return clamp(t, TemperatureMin, TemperatureMax)
}

// ClampHumidity clamps h into the valid humidity range.
func ClampHumidity(h float64) float64 {
	return clamp(h, HumidityMin, HumidityMax)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// ParseHexColor decodes "#RRGGBB" into channel values. ok is false for any
// malformed input, including shorthand and alpha forms.
func ParseHexColor(s string) (r, g, b int, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	var vals [3]int
	for i := 0; i < 3; i++ {
		hi, okHi := hexDigit(s[1+i*2])
		lo, okLo := hexDigit(s[2+i*2])
		if !okHi || !okLo {
			return 0, 0, 0, false
		}
		vals[i] = hi<<4 | lo
	}
	return vals[0], vals[1], vals[2], true
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// EncodeHexColor re-encodes channel values as "#RRGGBB", clamping each
// channel to [0,255].
func EncodeHexColor(r, g, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", clampChannel(r), clampChannel(g), clampChannel(b))
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Catalog lists the installation's music tracks. MatchMusic resolves free
// text against it.
var Catalog = []string{
	"Clair de Lune",
	"Gymnopedie No.1",
	"Nocturne Op.9 No.2",
	"Arabesque No.1",
	"The Girl with the Flaxen Hair",
	"Spiegel im Spiegel",
	"Metamorphosis Two",
	"Une Barque sur l'Ocean",
}

// MatchMusic resolves a free-text music identifier to a catalog entry.
// Exact matches win; otherwise the first case-insensitive substring match
// in catalog order; otherwise fallback.
func MatchMusic(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, track := range Catalog {
		if strings.EqualFold(track, s) {
			return track
		}
	}
	lower := strings.ToLower(s)
	for _, track := range Catalog {
		if strings.Contains(strings.ToLower(track), lower) || strings.Contains(lower, strings.ToLower(track)) {
			return track
		}
	}
	return fallback
}
