package types

const (
	ContextUserKey    = "user"
	ContextSessionKey = "session_id"

	SessionCookieName = "token"
	StateCookieName   = "oauth2_state"
)
