// Package location resolves the coordinates a forecast is fetched for.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/vaervarsel/internal/models"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location information is unavailable")
	ErrTimeout          = errors.New("location request timed out")
)

// Static always returns the configured coordinates.
type Static struct {
	coords models.Coordinates
}

func NewStatic(lat, lon float64) (*Static, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates %v,%v out of range: %w", lat, lon, ErrUnavailable)
	}
	return &Static{coords: models.Coordinates{Latitude: lat, Longitude: lon}}, nil
}

func (s *Static) Coordinates(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return s.coords, nil
}
