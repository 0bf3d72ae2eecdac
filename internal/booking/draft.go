package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Draft holds the customer and schedule fields of a booking form.
type Draft struct {
	Name   string
	Phone  string
	Date   string // YYYY-MM-DD
	Time   string // HH:MM, 24h
	People int
	Note   string
}

var (
	ErrZeroQuantity       = errors.New("selected dish has quantity 0; remove it or set a quantity")
	ErrFractionalQuantity = errors.New("selected dish has a fractional quantity; set a whole number")
)

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateForCreate checks a new booking. Name and phone are required here
// only; the edit form does not show them.
func (d Draft) ValidateForCreate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &FieldError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(d.Phone) == "" {
		return &FieldError{Field: "phone", Reason: "required"}
	}
	return d.ValidateForUpdate()
}

func (d Draft) ValidateForUpdate() error {
	if _, err := time.Parse(time.DateOnly, NormalizeDate(d.Date)); err != nil {
		return &FieldError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	if _, err := time.Parse("15:04", d.Time); err != nil {
		return &FieldError{Field: "time", Reason: "expected HH:MM"}
	}
	if d.People <= 0 {
		return &FieldError{Field: "people", Reason: "must be greater than 0"}
	}
	return nil
}

// NormalizeDate trims a stored timestamp such as 2025-06-01T00:00:00.000Z
// down to its date part.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i == len(time.DateOnly) {
		return s[:i]
	}
	return s
}

// ValidateLines rejects zero-quantity and fractional lines at save time. The editor lets a
// typed 0 stand so the user can keep typing; it cannot be submitted.
func ValidateLines(lines []LineItem) error {
	for _, l := range lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w (dish %s)", ErrZeroQuantity, l.Dish.Key())
		}
		if !l.Whole() {
			return fmt.Errorf("%w (dish %s: %s)", ErrFractionalQuantity, l.Dish.Key(), l.QuantityDecimal())
		}
	}
	return nil
}
