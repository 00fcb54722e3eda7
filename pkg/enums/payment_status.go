package enums

import "fmt"

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var paymentStatusSet = map[PaymentStatus]struct{}{
	PaymentStatusPending:  {},
	PaymentStatusPaid:     {},
	PaymentStatusFailed:   {},
	PaymentStatusRefunded: {},
}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool {
	_, ok := paymentStatusSet[p]
	return ok
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	p := PaymentStatus(value)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return p, nil
}

// NextPaymentStatus returns the payment status an order carries after moving to
// status. Only cash on delivery settles through the order lifecycle; card
// payments keep whatever the payment provider reported.
func NextPaymentStatus(method PaymentMethod, status OrderStatus, current PaymentStatus) PaymentStatus {
	if method == PaymentMethodCashOnDelivery && status.MarksCashCollected() {
		return PaymentStatusPaid
	}
	return current
}
