package booking

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAlreadySelected = errors.New("dish already selected")
	ErrNotSelected     = errors.New("dish not selected")
	ErrInvalidQuantity = errors.New("quantity must be a whole number >= 0")
	ErrMissingDishID   = errors.New("menu item has no id")
)

// Selection is the in-memory list of dishes a booking form is editing.
// Insertion order is kept for display; it does not affect the total.
type Selection struct {
	lines []LineItem
}

// NewSelection starts a selection from existing lines, e.g. a booking being
// edited. The lines are copied.
func NewSelection(lines ...LineItem) *Selection {
	s := &Selection{lines: make([]LineItem, 0, len(lines))}
	s.lines = append(s.lines, lines...)
	return s
}

func (s *Selection) index(id string) int {
	for i, l := range s.lines {
		if l.Dish.Key() == id {
			return i
		}
	}
	return -1
}

// Add appends item with quantity 1. Adding a dish that is already selected
// is rejected; it never bumps the quantity.
func (s *Selection) Add(item MenuItem) error {
	if item.ID == "" {
		return ErrMissingDishID
	}
	if s.index(item.ID) >= 0 {
		return ErrAlreadySelected
	}
	it := item
	s.lines = append(s.lines, LineItem{Dish: DishRef{ID: it.ID, Item: &it}, Quantity: 1})
	return nil
}

// Remove deletes the whole line. It reports false if id was not selected.
func (s *Selection) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return true
}

// Toggle adds item when absent and removes it when present, like tapping a
// dish card on the create form. It reports whether the dish is now selected.
func (s *Selection) Toggle(item MenuItem) (bool, error) {
	if s.Remove(item.ID) {
		return false, nil
	}
	if err := s.Add(item); err != nil {
		return false, err
	}
	return true, nil
}

// SetQuantity applies a typed quantity. Non-numeric or negative input leaves
// the line untouched. Zero is accepted and keeps the line.
func (s *Selection) SetQuantity(id, text string) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotSelected
	}
	q, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || q < 0 {
		return ErrInvalidQuantity
	}
	s.lines[i].Quantity = q
	s.lines[i].exact = nil
	return nil
}

// Step adds delta to the quantity, never going below 1.
func (s *Selection) Step(id string, delta int) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotSelected
	}
	q := s.lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	s.lines[i].Quantity = q
	s.lines[i].exact = nil
	return nil
}

func (s *Selection) Quantity(id string) (int, bool) {
	i := s.index(id)
	if i < 0 {
		return 0, false
	}
	return s.lines[i].Quantity, true
}

func (s *Selection) Len() int { return len(s.lines) }

// Lines returns a copy of the current lines.
func (s *Selection) Lines() []LineItem {
	out := make([]LineItem, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Selection) Total() decimal.Decimal { return Total(s.lines) }

// Payload is the selectedDishes array sent to the backend.
func (s *Selection) Payload() []SelectedDish {
	out := make([]SelectedDish, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, SelectedDish{DishID: l.Dish.Key(), Quantity: l.Quantity})
	}
	return out
}
