package access

import "time"

// Config drives reading pass verification. An empty Secret disables the gate.
// CheckoutSecret is shared with the checkout backend that reports settled
// charges; an empty value disables issuing.
type Config struct {
	Secret         string
	CheckoutSecret string
	Issuer         string
	TTL            time.Duration
}

// Pass is the verified proof that a wallet paid for a reading.
type Pass struct {
	Wallet    string    `json:"wallet"`
	ChargeID  string    `json:"chargeId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueRequest describes a settled checkout.
type IssueRequest struct {
	Wallet   string `json:"wallet"`
	ChargeID string `json:"chargeId"`
}

// IssuedPass is a signed pass ready to hand to the client.
type IssuedPass struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Error codes.
const (
	CodeUnauthorized = "unauthorized"
	CodeInvalidPass  = "invalid_pass"
	CodeInvalidInput = "invalid_input"
	CodeAccessError  = "access_error"

	// CodeIssuingDisabled marks a pass request while no checkout secret is set.
	CodeIssuingDisabled = "issuing_disabled"
)
