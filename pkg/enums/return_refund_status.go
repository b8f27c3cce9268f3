package enums

import "fmt"

// ReturnRefundStatus tracks the post-delivery return workflow of an order.
type ReturnRefundStatus string

const (
	ReturnRefundStatusNone      ReturnRefundStatus = "none"
	ReturnRefundStatusRequested ReturnRefundStatus = "requested"
	ReturnRefundStatusApproved  ReturnRefundStatus = "approved"
	ReturnRefundStatusRejected  ReturnRefundStatus = "rejected"
	ReturnRefundStatusRefunded  ReturnRefundStatus = "refunded"
)

var validReturnRefundStatuses = []ReturnRefundStatus{
	ReturnRefundStatusNone,
	ReturnRefundStatusRequested,
	ReturnRefundStatusApproved,
	ReturnRefundStatusRejected,
	ReturnRefundStatusRefunded,
}

// String implements fmt.Stringer.
func (r ReturnRefundStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnRefundStatus.
func (r ReturnRefundStatus) IsValid() bool {
	for _, candidate := range validReturnRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnRefundStatus converts raw input into a ReturnRefundStatus.
func ParseReturnRefundStatus(value string) (ReturnRefundStatus, error) {
	for _, candidate := range validReturnRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return refund status %q", value)
}
