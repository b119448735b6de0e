package push

// MulticastResult reports the per-token outcome of a multicast send. A
// partial failure is not an error: callers inspect the counts.
type MulticastResult struct {
	SuccessCount int
	FailureCount int

	// FailedTokens lists the tokens the gateway could not deliver to
	FailedTokens []string
}

// Gateway defines the interface for sending push notifications. Delivery is
// best-effort; no implementation guarantees more than handing the message to
// the upstream service.
type Gateway interface {
	// SendToToken sends a notification to a single device token
	SendToToken(token, title, body string, data map[string]string) error

	// SendToMany sends a notification to many device tokens in one call,
	// isolating per-token failures in the result
	SendToMany(tokens []string, title, body string, data map[string]string) (*MulticastResult, error)

	// GetName returns the name of the gateway implementation
	GetName() string
}
