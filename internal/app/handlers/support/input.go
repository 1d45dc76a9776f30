package support

import (
	"errors"
	"fmt"
	"strings"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// ErrInvalidInput marks request data rejected before reaching the domain.
var ErrInvalidInput = errors.New("invalid input")

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func PropertyID(raw string) (property.ID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", Invalid("property id is required")
	}
	return property.ID(id), nil
}

// StayRange parses YYYY-MM-DD bounds into a range of at least one night.
func StayRange(checkIn, checkOut string) (daterange.DateRange, error) {
	dr, err := daterange.Parse(strings.TrimSpace(checkIn), strings.TrimSpace(checkOut))
	if err != nil {
		return daterange.DateRange{}, Invalid("%v", err)
	}
	return dr, nil
}

func Month(raw string) (daterange.YearMonth, error) {
	ym, err := daterange.ParseYearMonth(strings.TrimSpace(raw))
	if err != nil {
		return daterange.YearMonth{}, Invalid("%v", err)
	}
	return ym, nil
}
