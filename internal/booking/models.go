package booking

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Price    Price  `json:"price"`
	Image    string `json:"image,omitempty"`
}

// DishRef is the dishId of a selected dish. Freshly picked dishes carry the
// whole menu item; bookings coming back from some endpoints carry only the id.
type DishRef struct {
	ID   string
	Item *MenuItem
}

// Key is the menu item identifier, whichever form the reference has.
func (r DishRef) Key() string {
	if r.Item != nil && r.Item.ID != "" {
		return r.Item.ID
	}
	return r.ID
}

func (r *DishRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = DishRef{}
	case len(b) > 0 && b[0] == '{':
		var it MenuItem
		if err := json.Unmarshal(b, &it); err != nil {
			return err
		}
		*r = DishRef{ID: it.ID, Item: &it}
	default:
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = DishRef{ID: id}
	}
	return nil
}

// MarshalJSON writes the bare identifier; the backend only accepts ids.
func (r DishRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Key())
}

type LineItem struct {
	Dish     DishRef `json:"dishId"`
	Price    Price   `json:"price"`
	Quantity int     `json:"quantity"`

	// exact holds a stored quantity that is not a whole number; Quantity
	// then carries its integer part.
	exact *decimal.Decimal
}

// UnmarshalJSON accepts the quantity as a number or a numeric string.
// A missing or unparsable quantity decodes as 0.
func (l *LineItem) UnmarshalJSON(b []byte) error {
	var aux struct {
		Dish     DishRef         `json:"dishId"`
		Price    Price           `json:"price"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*l = LineItem{Dish: aux.Dish, Price: aux.Price}

	if len(aux.Quantity) == 0 {
		return nil
	}
	var raw Price
	if err := json.Unmarshal(aux.Quantity, &raw); err != nil {
		return nil
	}
	q, ok := raw.Decimal()
	if !ok {
		return nil
	}
	l.Quantity = int(q.IntPart())
	if !q.IsInteger() {
		l.exact = &q
	}
	return nil
}

func (l LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dish     DishRef     `json:"dishId"`
		Price    Price       `json:"price"`
		Quantity json.Number `json:"quantity"`
	}{l.Dish, l.Price, json.Number(l.QuantityDecimal().String())})
}

// QuantityDecimal is the exact quantity, fractional when the backend stored one.
func (l LineItem) QuantityDecimal() decimal.Decimal {
	if l.exact != nil {
		return *l.exact
	}
	return decimal.NewFromInt(int64(l.Quantity))
}

// Whole reports whether the quantity is a whole number.
func (l LineItem) Whole() bool { return l.exact == nil }

// UnitPrice checks the line's own price first and falls back to the
// referenced menu item.
func (l LineItem) UnitPrice() Price {
	if l.Price.IsSet() {
		return l.Price
	}
	if l.Dish.Item != nil {
		return l.Dish.Item.Price
	}
	return Price{}
}

// Name is the dish name when the reference is populated.
func (l LineItem) Name() string {
	if l.Dish.Item != nil {
		return l.Dish.Item.Name
	}
	return ""
}

type Booking struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	People         int        `json:"people"`
	Note           string     `json:"note"`
	SelectedDishes []LineItem `json:"selectedDishes"`
	IsPaid         bool       `json:"isPaid"`
	TotalAmount    Price      `json:"totalAmount"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Draft is the editable, non-dish part of a booking.
func (b Booking) Draft() Draft {
	return Draft{
		Name:   b.Name,
		Phone:  b.Phone,
		Date:   b.Date,
		Time:   b.Time,
		People: b.People,
		Note:   b.Note,
	}
}

// Selection returns an independent, mutable copy of the booking's dishes.
func (b Booking) Selection() *Selection {
	return NewSelection(b.SelectedDishes...)
}

func (b Booking) Status() PaymentStatus {
	if b.IsPaid {
		return StatusPaid
	}
	return StatusUnpaid
}

// SelectedDish is the wire shape of a line in create/update requests.
type SelectedDish struct {
	DishID   string `json:"dishId"`
	Quantity int    `json:"quantity"`
}

// Submission is the body of POST /bookings and PUT /bookings/{id}.
type Submission struct {
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	People         int            `json:"people"`
	Note           string         `json:"note"`
	SelectedDishes []SelectedDish `json:"selectedDishes"`
	TotalAmount    Price          `json:"totalAmount"`
}

func NewSubmission(d Draft, sel *Selection) Submission {
	return Submission{
		Name:           d.Name,
		Phone:          d.Phone,
		Date:           d.Date,
		Time:           d.Time,
		People:         d.People,
		Note:           d.Note,
		SelectedDishes: sel.Payload(),
		TotalAmount:    PriceOf(sel.Total()),
	}
}
