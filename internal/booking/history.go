package booking

import (
	"sort"
	"strings"
)

// NormalizeHistory prepares the booking history for display: the server's
// totalAmount is kept when it is a number, otherwise the total is computed
// from the lines. Newest bookings come first.
func NormalizeHistory(in []Booking) []Booking {
	out := make([]Booking, len(in))
	copy(out, in)
	for i := range out {
		if !out[i].TotalAmount.IsNumber() {
			out[i].TotalAmount = PriceOf(Total(out[i].SelectedDishes))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func FindBooking(bs []Booking, id string) (Booking, bool) {
	for _, b := range bs {
		if b.ID == id {
			return b, true
		}
	}
	return Booking{}, false
}

// CategoryAll selects every menu item.
const CategoryAll = ""

func FilterMenu(items []MenuItem, category string) []MenuItem {
	if strings.TrimSpace(category) == CategoryAll {
		return items
	}
	var out []MenuItem
	for _, it := range items {
		if strings.EqualFold(it.Category, category) {
			out = append(out, it)
		}
	}
	return out
}

// Categories lists distinct categories in first-seen order.
func Categories(items []MenuItem) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

func FindMenuItem(items []MenuItem, id string) (MenuItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return MenuItem{}, false
}

// AttachMenu returns lines with the menu item filled in where a line carries
// only a dish id. Lines already holding an item or their own price are kept.
func AttachMenu(lines []LineItem, menu []MenuItem) []LineItem {
	out := make([]LineItem, len(lines))
	copy(out, lines)
	for i, l := range out {
		if l.Dish.Item != nil || l.Price.IsSet() {
			continue
		}
		if it, ok := FindMenuItem(menu, l.Dish.ID); ok {
			out[i].Dish.Item = &it
		}
	}
	return out
}
