package booking

type PaymentStatus string

const (
	StatusUnpaid PaymentStatus = "UNPAID"
	StatusPaid   PaymentStatus = "PAID"
)

// paid is terminal: no edits, no deletes, no second payment
var validNext = map[PaymentStatus]map[PaymentStatus]bool{
	StatusUnpaid: {StatusPaid: true},
	StatusPaid:   {},
}

func CanTransition(from, to PaymentStatus) bool {
	return validNext[from][to]
}
