package common

const (
	PaymentStatusInitialized = "INITIALIZED"
	PaymentStatusDeposited   = "DEPOSITED"
	PaymentStatusReleased    = "RELEASED"
	PaymentStatusRefunded    = "REFUNDED"

	EventTypePaymentInitialized   = "PaymentInitialized"
	EventTypeDeposited            = "Deposited"
	EventTypeReleased             = "Released"
	EventTypeRefunded             = "Refunded"
	EventTypePaused               = "Paused"
	EventTypeUnpaused             = "Unpaused"
	EventTypeEmergencyWithdrawn   = "EmergencyWithdrawn"
	EventTypeOwnershipTransferred = "OwnershipTransferred"

	// pubsub topic that receives every ledger event
	EventTopicAll = "all"

	NullAddress = "0x0000000000000000000000000000000000000000"
)

var PaymentStatuses = []string{
	PaymentStatusInitialized,
	PaymentStatusDeposited,
	PaymentStatusReleased,
	PaymentStatusRefunded,
}
