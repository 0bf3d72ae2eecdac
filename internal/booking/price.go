package booking

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a monetary amount as the backend sends it: sometimes a JSON
// number, sometimes a numeric string. The raw form is kept so unparsable
// values survive a round trip.
type Price struct {
	raw    string
	text   bool
	loaded bool
}

// PriceOf builds a canonical (numeric) price.
func PriceOf(d decimal.Decimal) Price {
	return Price{raw: d.String(), loaded: true}
}

// PriceInt is PriceOf for whole minor units.
func PriceInt(v int64) Price { return PriceOf(decimal.NewFromInt(v)) }

// PriceText builds a price from its textual form, e.g. "30000".
func PriceText(s string) Price {
	return Price{raw: s, text: true, loaded: true}
}

// IsSet reports whether the field was present and not null.
func (p Price) IsSet() bool { return p.loaded }

// IsNumber reports whether the value arrived as a JSON number.
func (p Price) IsNumber() bool {
	if !p.loaded || p.text {
		return false
	}
	_, ok := p.Decimal()
	return ok
}

// Decimal resolves the price. Text is parsed as a decimal number; anything
// that does not parse reports ok == false.
func (p Price) Decimal() (decimal.Decimal, bool) {
	if !p.loaded {
		return decimal.Zero, false
	}
	s := strings.TrimSpace(p.raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (p Price) String() string { return p.raw }

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = Price{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceText(s)
	default:
		// numbers land here; booleans and objects are kept raw and never resolve
		*p = Price{raw: string(b), loaded: true}
	}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.loaded {
		return []byte("null"), nil
	}
	if d, ok := p.Decimal(); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(p.raw)
}
