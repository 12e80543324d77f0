package forecast

import (
	"fmt"
	"strings"
)

// Theme selects the icon set.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Variant is the time-of-day flavour of an icon.
type Variant string

const (
	VariantDay      Variant = "day"
	VariantNight    Variant = "night"
	VariantTwilight Variant = "twilight"
	VariantNone     Variant = "none"
)

// Letter returns the file-name suffix used by the icon and background sets.
func (v Variant) Letter() string {
	switch v {
	case VariantDay:
		return "d"
	case VariantNight:
		return "n"
	case VariantTwilight:
		return "m"
	default:
		return ""
	}
}

const (
	defaultFamily  = "01"
	FallbackSymbol = "clearsky_day"

	dayStartHour = 6
	dayEndHour   = 20
)

// familyCodes maps MET condition names to the two-digit icon family.
var familyCodes = map[string]string{
	"clearsky":                    "01",
	"fair":                        "02",
	"partlycloudy":                "03",
	"cloudy":                      "04",
	"rainshowers":                 "05",
	"rainshowersandthunder":       "06",
	"sleetshowers":                "07",
	"snowshowers":                 "08",
	"rain":                        "09",
	"heavyrain":                   "10",
	"heavyrainandthunder":         "11",
	"sleet":                       "12",
	"snow":                        "13",
	"snowandthunder":              "14",
	"fog":                         "15",
	"sleetshowersandthunder":      "20",
	"snowshowersandthunder":       "21",
	"rainandthunder":              "22",
	"sleetandthunder":             "23",
	"lightrainshowersandthunder":  "24",
	"heavyrainshowersandthunder":  "25",
	"lightsleetshowersandthunder": "26",
	"heavysleetshowersandthunder": "27",
	"lightsnowshowersandthunder":  "28",
	"heavysnowshowersandthunder":  "29",
	"lightrainandthunder":         "30",
	"lightsleetandthunder":        "31",
	"heavysleetandthunder":        "32",
	"lightsnowandthunder":         "33",
	"heavysnowandthunder":         "34",
	"lightrainshowers":            "40",
	"heavyrainshowers":            "41",
	"lightsleetshowers":           "42",
	"heavysleetshowers":           "43",
	"lightsnowshowers":            "44",
	"heavysnowshowers":            "45",
	"lightrain":                   "46",
	"lightsleet":                  "47",
	"heavysleet":                  "48",
	"lightsnow":                   "49",
	"heavysnow":                   "50",
}

// Families whose artwork differs between day, night and polar twilight.
var variantFamilies = map[string]bool{
	"01": true, "02": true, "03": true, "05": true, "06": true, "07": true, "08": true,
	"24": true, "25": true, "26": true, "27": true, "28": true, "29": true,
	"40": true, "41": true, "42": true, "43": true, "44": true, "45": true,
}

// Icon identifies a weather icon.
type Icon struct {
	Family  string
	Variant Variant
	Theme   Theme
}

// Path returns the asset path relative to the icon root, e.g. "darkmode/01n.svg".
func (i Icon) Path() string {
	theme := "lightmode"
	if i.Theme == ThemeDark {
		theme = "darkmode"
	}
	return fmt.Sprintf("%s/%s%s.svg", theme, i.Family, i.Variant.Letter())
}

// SplitSymbol separates "rain_night" into ("rain", "night"). The split is on
// the last underscore; a bare condition returns an empty suffix.
func SplitSymbol(symbolCode string) (condition, suffix string) {
	idx := strings.LastIndex(symbolCode, "_")
	if idx < 0 {
		return symbolCode, ""
	}
	return symbolCode[:idx], symbolCode[idx+1:]
}

// Family returns the icon family for a symbol code, falling back to clear sky.
func Family(symbolCode string) string {
	condition, _ := SplitSymbol(symbolCode)
	if code, ok := familyCodes[condition]; ok {
		return code
	}
	return defaultFamily
}

// HasVariants reports whether the family has day/night/twilight artwork.
func HasVariants(family string) bool {
	return variantFamilies[family]
}

// IsDaytime is the clock heuristic used when a symbol carries no suffix.
func IsDaytime(hour int) bool {
	return hour >= dayStartHour && hour < dayEndHour
}

// ResolveIcon maps a symbol code to an icon. currentHour is only consulted
// when the symbol has no time-of-day suffix.
func ResolveIcon(symbolCode string, theme Theme, currentHour int) Icon {
	_, suffix := SplitSymbol(symbolCode)
	family := Family(symbolCode)

	icon := Icon{Family: family, Variant: VariantNone, Theme: theme}
	if !HasVariants(family) {
		return icon
	}

	switch {
	case suffix == "night":
		icon.Variant = VariantNight
	case suffix == "polartwilight":
		icon.Variant = VariantTwilight
	case suffix != "":
		icon.Variant = VariantDay
	case IsDaytime(currentHour):
		icon.Variant = VariantDay
	default:
		icon.Variant = VariantNight
	}
	return icon
}
