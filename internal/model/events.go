package model

// AuthEventRecorder counts authentication outcomes such as a failed login.
type AuthEventRecorder interface {
	AuthEvent(event, outcome string)
}

// Authentication event names.
const (
	EventRegister      = "register"
	EventLogin         = "login"
	EventLoginExternal = "login_external"
	EventRefresh       = "refresh"
	EventAuthenticate  = "authenticate"
)

// Authentication event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLimited = "rate_limited"
)
