package booking

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{StatusUnpaid, StatusPaid, true},
		{StatusPaid, StatusPaid, false},
		{StatusPaid, StatusUnpaid, false},
		{StatusUnpaid, StatusUnpaid, false},
		{"", StatusPaid, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDraftValidation(t *testing.T) {
	ok := Draft{Name: "Minh", Phone: "0912345678", Date: "2025-06-01", Time: "18:45", People: 4}

	tests := []struct {
		name      string
		mutate    func(*Draft)
		field     string
		forCreate bool
	}{
		{"valid create", func(d *Draft) {}, "", true},
		{"valid update without contact", func(d *Draft) { d.Name, d.Phone = "", "" }, "", false},
		{"stored timestamp date", func(d *Draft) { d.Date = "2025-06-01T00:00:00.000Z" }, "", false},
		{"missing name", func(d *Draft) { d.Name = " " }, "name", true},
		{"missing phone", func(d *Draft) { d.Phone = "" }, "phone", true},
		{"bad date", func(d *Draft) { d.Date = "01/06/2025" }, "date", false},
		{"bad time", func(d *Draft) { d.Time = "7pm" }, "time", false},
		{"no people", func(d *Draft) { d.People = 0 }, "people", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ok
			tt.mutate(&d)
			var err error
			if tt.forCreate {
				err = d.ValidateForCreate()
			} else {
				err = d.ValidateForUpdate()
			}
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "want FieldError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidateLines(t *testing.T) {
	assert.NoError(t, ValidateLines(nil))
	assert.NoError(t, ValidateLines([]LineItem{{Dish: DishRef{ID: "a"}, Quantity: 1}}))
	assert.ErrorIs(t, ValidateLines([]LineItem{{Dish: DishRef{ID: "a"}, Quantity: 0}}), ErrZeroQuantity)

	var l LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"dishId":"a","quantity":2.5}`), &l))
	assert.ErrorIs(t, ValidateLines([]LineItem{l}), ErrFractionalQuantity)
}

func TestHistoryJSON_LenientQuantities(t *testing.T) {
	raw := `[{
		"_id": "b1",
		"selectedDishes": [
			{"dishId": "a", "price": 10000, "quantity": 2},
			{"dishId": "b", "price": 10000, "quantity": "3"},
			{"dishId": "c", "price": 10000, "quantity": 2.5},
			{"dishId": "d", "price": 10000, "quantity": "lots"},
			{"dishId": "e", "price": 10000, "quantity": null},
			{"dishId": "f", "price": 10000}
		],
		"createdAt": "2025-05-30T08:00:00.000Z"
	}]`
	var bs []Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &bs))
	require.Len(t, bs, 1)

	lines := bs[0].SelectedDishes
	require.Len(t, lines, 6)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 3, lines[1].Quantity)
	assert.True(t, lines[1].Whole())
	assert.Equal(t, 2, lines[2].Quantity)
	assert.False(t, lines[2].Whole())
	assert.Equal(t, "2.5", lines[2].QuantityDecimal().String())
	for _, l := range lines[3:] {
		assert.Equal(t, 0, l.Quantity, l.Dish.Key())
	}
	// 20000 + 30000 + 25000
	assert.Equal(t, "75000", Total(lines).String())

	out, err := json.Marshal(lines[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"dishId":"c","price":10000,"quantity":2.5}`, string(out))
}

func TestSelection_EditClearsFractionalQuantity(t *testing.T) {
	var l LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"dishId":"a","price":1000,"quantity":1.5}`), &l))
	s := NewSelection(l)
	assert.Equal(t, "1500", s.Total().String())
	assert.ErrorIs(t, ValidateLines(s.Lines()), ErrFractionalQuantity)

	require.NoError(t, s.SetQuantity("a", "2"))
	assert.NoError(t, ValidateLines(s.Lines()))
	assert.Equal(t, "2000", s.Total().String())

	s = NewSelection(l)
	require.NoError(t, s.Step("a", 1))
	q, _ := s.Quantity("a")
	assert.Equal(t, 2, q)
	assert.NoError(t, ValidateLines(s.Lines()))
}

func TestNormalizeHistory(t *testing.T) {
	older := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	in := []Booking{
		{ID: "old", CreatedAt: older, TotalAmount: PriceInt(999)},
		{ID: "new", CreatedAt: newer, SelectedDishes: []LineItem{
			{Dish: DishRef{ID: "x", Item: &MenuItem{ID: "x", Price: PriceInt(15000)}}, Quantity: 2},
		}},
		{ID: "text", CreatedAt: older.Add(time.Hour), TotalAmount: PriceText("5"), SelectedDishes: []LineItem{
			{Price: PriceInt(7), Quantity: 3},
		}},
	}

	out := NormalizeHistory(in)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"new", "text", "old"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "30000", out[0].TotalAmount.String())
	assert.Equal(t, "21", out[1].TotalAmount.String(), "textual server total is recomputed")
	assert.Equal(t, "999", out[2].TotalAmount.String(), "numeric server total wins")
	assert.Equal(t, "old", in[0].ID, "input order untouched")
}

func TestFilterMenu(t *testing.T) {
	items := []MenuItem{pho, traDa, cheBap, {ID: "banh", Category: "Bữa Sáng"}}

	assert.Len(t, FilterMenu(items, CategoryAll), 4)
	breakfast := FilterMenu(items, "bữa sáng")
	require.Len(t, breakfast, 2)
	assert.Equal(t, "pho", breakfast[0].ID)
	assert.Empty(t, FilterMenu(items, "Bữa Tối"))
	assert.Equal(t, []string{"Bữa Sáng", "Đồ Uống", "Tráng Miệng"}, Categories(items))
}

func TestFormatVND(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0 đ"},
		{"950", "950 đ"},
		{"130000", "130.000 đ"},
		{"1234567", "1.234.567 đ"},
		{"1234.5", "1.234,5 đ"},
		{"-20000", "-20.000 đ"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVND(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestBookingJSON(t *testing.T) {
	raw := `{
		"_id": "665f",
		"name": "Lan",
		"phone": "0901",
		"date": "2025-06-01",
		"time": "19:00",
		"people": 3,
		"selectedDishes": [{"dishId": {"_id": "pho", "name": "Phở", "price": 50000}, "quantity": 2}],
		"isPaid": false,
		"totalAmount": 100000,
		"createdAt": "2025-05-30T08:00:00.000Z"
	}`
	var b Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, StatusUnpaid, b.Status())
	assert.True(t, b.TotalAmount.IsNumber())
	assert.Equal(t, 2025, b.CreatedAt.Year())

	sub := NewSubmission(b.Draft(), b.Selection())
	out, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Lan", "phone": "0901", "date": "2025-06-01", "time": "19:00", "people": 3, "note": "",
		"selectedDishes": [{"dishId": "pho", "quantity": 2}],
		"totalAmount": 100000
	}`, string(out))
}

func TestPriceJSON(t *testing.T) {
	var v struct {
		A Price `json:"a"`
		B Price `json:"b"`
		C Price `json:"c"`
		D Price `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "300", "c": null, "d": true}`), &v))

	assert.True(t, v.A.IsNumber())
	assert.False(t, v.B.IsNumber())
	d, ok := v.B.Decimal()
	assert.True(t, ok)
	assert.Equal(t, "300", d.String())
	assert.False(t, v.C.IsSet())
	_, ok = v.D.Decimal()
	assert.False(t, ok)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 12.5, "b": 300, "c": null, "d": "true"}`, string(out))
}

func TestAttachMenu(t *testing.T) {
	menu := []MenuItem{{ID: "pho", Name: "Phở", Price: PriceInt(50000)}}
	lines := []LineItem{
		{Dish: DishRef{ID: "pho"}, Quantity: 2},
		{Dish: DishRef{ID: "gone"}, Quantity: 1},
		{Dish: DishRef{ID: "pho"}, Price: PriceInt(40000), Quantity: 1},
	}

	got := AttachMenu(lines, menu)
	assert.Equal(t, "Phở", got[0].Name())
	assert.Nil(t, got[1].Dish.Item)
	assert.Nil(t, got[2].Dish.Item)
	assert.Nil(t, lines[0].Dish.Item, "input untouched")
	assert.Equal(t, "140000", Total(got).String())
}
