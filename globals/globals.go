package globals

// Context keys
type ContextKey string

const (
	UsernameKey ContextKey = "username"
	ClaimsKey   ContextKey = "claims"
)
