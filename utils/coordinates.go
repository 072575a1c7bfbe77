package utils

import (
	"errors"
	"fmt"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidateCoordinate checks that a project site lies on the globe.
func ValidateCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %.6f is out of valid range [-90, 90]", ErrInvalidCoordinate, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %.6f is out of valid range [-180, 180]", ErrInvalidCoordinate, lng)
	}
	return nil
}
