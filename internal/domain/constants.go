package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusFailed     = "FAILED"
)

const (
	TxTypeDeposit    = "DEPOSIT"
	TxTypePurchase   = "PURCHASE"
	TxTypeWithdrawal = "WITHDRAWAL"
	TxTypeRefund     = "REFUND"
)

const (
	TxStatusPending = "PENDING"
	TxStatusSuccess = "SUCCESS"
	TxStatusFailed  = "FAILED"
)

const (
	EmailStatusSent    = "SENT"
	EmailStatusFailed  = "FAILED"
	EmailStatusPending = "PENDING"
)

const (
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// Payment purposes carried in gateway metadata under "type".
const (
	PurposePurchase      = "purchase"
	PurposeWalletFunding = "wallet_funding"
)

// GuestBuyer marks an intent created without an authenticated user.
const GuestBuyer = "guest"

// Card types sold by the store.
var CardTypes = []string{"WAEC", "NECO", "NABTEB", "JAMB"}

func IsCardType(t string) bool {
	for _, c := range CardTypes {
		if c == t {
			return true
		}
	}
	return false
}
