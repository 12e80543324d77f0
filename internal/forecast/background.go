package forecast

import "fmt"

const (
	PlaceholderBackground = "placeholder"
	backgroundRoot        = "/assets/heroBackgrounds"
)

// SelectBackground picks the hero background key for a temperature and
// symbol. A missing temperature or symbol yields the placeholder.
func SelectBackground(temperature *float64, symbolCode string, theme Theme, currentHour int) string {
	if temperature == nil || symbolCode == "" {
		return PlaceholderBackground
	}

	folder := "minus"
	if *temperature >= 0 {
		folder = "plus"
	}

	icon := ResolveIcon(symbolCode, theme, currentHour)
	return fmt.Sprintf("%s/%s%s", folder, icon.Family, icon.Variant.Letter())
}

// BackgroundPath returns the asset path for a background key.
func BackgroundPath(key string) string {
	if key == PlaceholderBackground {
		return backgroundRoot + "/placeholder.jpg"
	}
	return fmt.Sprintf("%s/%s.webp", backgroundRoot, key)
}
