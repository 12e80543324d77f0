package forecast

import "math"

const (
	windChillMaxTemp = 10.0
	windChillMinKmh  = 4.8
	heatIndexMinTemp = 27.0
)

// Unit is a temperature display unit.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func MsToKmh(ms float64) float64 {
	return ms * 3.6
}

// DisplayTemperature converts to the requested unit and rounds to whole degrees.
func DisplayTemperature(c float64, unit Unit) int {
	if unit == Fahrenheit {
		return int(math.Round(CelsiusToFahrenheit(c)))
	}
	return int(math.Round(c))
}

// FeelsLike returns the apparent temperature in °C. Wind chill applies at or
// below 10°C with wind above 4.8 km/h and is checked first; the Rothfusz heat
// index applies from 27°C. Anything else is the air temperature.
func FeelsLike(tempC, windSpeedMs, humidityPct float64) float64 {
	windKmh := MsToKmh(windSpeedMs)

	if tempC <= windChillMaxTemp && windKmh > windChillMinKmh {
		w := math.Pow(windKmh, 0.16)
		return 13.12 + 0.6215*tempC - 11.37*w + 0.3965*tempC*w
	}

	if tempC >= heatIndexMinTemp {
		t, rh := tempC, humidityPct
		return -8.78469475556 +
			1.61139411*t +
			2.33854883889*rh -
			0.14611605*t*rh -
			0.012308094*t*t -
			0.0164248277778*rh*rh +
			0.002211732*t*t*rh +
			0.00072546*t*rh*rh -
			0.000003582*t*t*rh*rh
	}

	return tempC
}
