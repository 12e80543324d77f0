package forecast

import (
	"math"
	"testing"
)

func TestCelsiusToFahrenheit(t *testing.T) {
	tests := []struct {
		c, want float64
	}{
		{0, 32},
		{100, 212},
		{-40, -40},
		{37, 98.6},
	}
	for _, tt := range tests {
		if got := CelsiusToFahrenheit(tt.c); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CelsiusToFahrenheit(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestDisplayTemperature(t *testing.T) {
	if got := DisplayTemperature(21.6, Celsius); got != 22 {
		t.Errorf("DisplayTemperature(21.6, C) = %d, want 22", got)
	}
	if got := DisplayTemperature(21.6, Fahrenheit); got != 71 {
		t.Errorf("DisplayTemperature(21.6, F) = %d, want 71", got)
	}
	if got := DisplayTemperature(-0.4, Celsius); got != 0 {
		t.Errorf("DisplayTemperature(-0.4, C) = %d, want 0", got)
	}
}

func TestFeelsLike(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		windMs   float64
		humidity float64
		want     float64
		tol      float64
	}{
		// 13.12 + 0.6215*5 - 11.37*10^0.16 + 0.3965*5*10^0.16
		{"wind chill at 5C and 10 km/h", 5, 10 / 3.6, 80, 2.66, 0.01},
		{"calm at freezing is unchanged", 0, 0, 80, 0, 0},
		{"light breeze below threshold is unchanged", 8, 1, 80, 8, 0},
		{"gap band is unchanged", 15, 20, 50, 15, 0},
		{"just above wind chill band", 10.5, 10, 50, 10.5, 0},
		{"just below heat index band", 26.9, 0, 90, 26.9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FeelsLike(tt.temp, tt.windMs, tt.humidity)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("FeelsLike(%v, %v, %v) = %v, want %v", tt.temp, tt.windMs, tt.humidity, got, tt.want)
			}
		})
	}
}

func TestFeelsLike_WindChillBelowAir(t *testing.T) {
	got := FeelsLike(-5, 8, 60)
	if got >= -5 {
		t.Errorf("FeelsLike(-5, 8, 60) = %v, want below -5", got)
	}
}

func TestFeelsLike_HeatIndex(t *testing.T) {
	got := FeelsLike(30, 0, 70)
	if got <= 30 {
		t.Errorf("FeelsLike(30, 0, 70) = %v, want above 30", got)
	}
	// Wind must not matter above the wind chill band.
	if windy := FeelsLike(30, 15, 70); windy != got {
		t.Errorf("FeelsLike(30, 15, 70) = %v, want %v", windy, got)
	}
	if math.Abs(got-35.0) > 1.0 {
		t.Errorf("FeelsLike(30, 0, 70) = %v, want about 35", got)
	}
}
