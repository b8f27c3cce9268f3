package enums

import "fmt"

// PaymentOption selects the online payment path at checkout submission:
// the e-wallet gateway redirect or the manual QR reference flow.
type PaymentOption string

const (
	PaymentOptionGCash  PaymentOption = "gcash"
	PaymentOptionQRCode PaymentOption = "qr_code"
)

var validPaymentOptions = []PaymentOption{
	PaymentOptionGCash,
	PaymentOptionQRCode,
}

// String implements fmt.Stringer.
func (p PaymentOption) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOption.
func (p PaymentOption) IsValid() bool {
	for _, candidate := range validPaymentOptions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOption converts raw input into a PaymentOption.
func ParsePaymentOption(value string) (PaymentOption, error) {
	for _, candidate := range validPaymentOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment option %q", value)
}
