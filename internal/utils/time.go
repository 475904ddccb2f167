package utils

import (
	"fmt"
	"time"

	"ms-gallery/internal/models"
)

// ParseEventDate parses a calendar date (YYYY-MM-DD) as midnight UTC.
func ParseEventDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(models.EventDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrValidation)
	}
	return date, nil
}
