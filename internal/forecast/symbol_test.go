package forecast

import "testing"

func TestResolveIcon(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		hour        int
		wantFamily  string
		wantVariant Variant
	}{
		{"explicit night", "clearsky_night", 12, "01", VariantNight},
		{"explicit day", "fair_day", 23, "02", VariantDay},
		{"polar twilight", "partlycloudy_polartwilight", 12, "03", VariantTwilight},
		{"no suffix at 14", "clearsky", 14, "01", VariantDay},
		{"no suffix at 22", "clearsky", 22, "01", VariantNight},
		{"no suffix at 6", "rainshowers", 6, "05", VariantDay},
		{"no suffix at 20", "rainshowers", 20, "05", VariantNight},
		{"no suffix at 5", "lightsnowshowers", 5, "44", VariantNight},
		{"fog ignores day suffix", "fog_day", 12, "15", VariantNone},
		{"fog ignores night suffix", "fog_night", 12, "15", VariantNone},
		{"cloudy has no variants", "cloudy", 2, "04", VariantNone},
		{"heavy snow", "heavysnow", 12, "50", VariantNone},
		{"thunder showers have variants", "heavysleetshowersandthunder_night", 12, "27", VariantNight},
		{"unknown condition falls back to clear sky", "meteorshower_day", 12, "01", VariantDay},
		{"unknown suffix counts as day", "fair_dusk", 23, "02", VariantDay},
		{"empty symbol", "", 12, "01", VariantDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIcon(tt.symbol, ThemeLight, tt.hour)
			if got.Family != tt.wantFamily {
				t.Errorf("ResolveIcon(%q).Family = %q, want %q", tt.symbol, got.Family, tt.wantFamily)
			}
			if got.Variant != tt.wantVariant {
				t.Errorf("ResolveIcon(%q).Variant = %q, want %q", tt.symbol, got.Variant, tt.wantVariant)
			}
		})
	}
}

func TestResolveIcon_ThemeDoesNotChangeVariant(t *testing.T) {
	light := ResolveIcon("rain_night", ThemeLight, 12)
	dark := ResolveIcon("rain_night", ThemeDark, 12)
	if light.Family != dark.Family || light.Variant != dark.Variant {
		t.Errorf("theme changed resolution: light=%+v dark=%+v", light, dark)
	}
}

func TestResolveIcon_Deterministic(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		a := ResolveIcon("partlycloudy", ThemeDark, hour)
		b := ResolveIcon("partlycloudy", ThemeDark, hour)
		if a != b {
			t.Fatalf("hour %d: %+v != %+v", hour, a, b)
		}
	}
}

func TestSplitSymbol(t *testing.T) {
	tests := []struct {
		symbol        string
		wantCondition string
		wantSuffix    string
	}{
		{"clearsky_day", "clearsky", "day"},
		{"clearsky", "clearsky", ""},
		{"a_b_night", "a_b", "night"},
		{"fog_", "fog", ""},
	}
	for _, tt := range tests {
		c, s := SplitSymbol(tt.symbol)
		if c != tt.wantCondition || s != tt.wantSuffix {
			t.Errorf("SplitSymbol(%q) = (%q, %q), want (%q, %q)", tt.symbol, c, s, tt.wantCondition, tt.wantSuffix)
		}
	}
}

func TestFamilyTableIsComplete(t *testing.T) {
	if len(familyCodes) != 41 {
		t.Errorf("len(familyCodes) = %d, want 41", len(familyCodes))
	}
	for family := range variantFamilies {
		found := false
		for _, code := range familyCodes {
			if code == family {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("variant family %s has no condition", family)
		}
	}
}

func TestIconPath(t *testing.T) {
	tests := []struct {
		icon Icon
		want string
	}{
		{Icon{Family: "01", Variant: VariantDay, Theme: ThemeLight}, "lightmode/01d.svg"},
		{Icon{Family: "03", Variant: VariantTwilight, Theme: ThemeDark}, "darkmode/03m.svg"},
		{Icon{Family: "15", Variant: VariantNone, Theme: ThemeDark}, "darkmode/15.svg"},
	}
	for _, tt := range tests {
		if got := tt.icon.Path(); got != tt.want {
			t.Errorf("%+v.Path() = %q, want %q", tt.icon, got, tt.want)
		}
	}
}
