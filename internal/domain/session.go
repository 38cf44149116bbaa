package domain

// State is the lifecycle stage of the console session.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateRestoring     State = "RESTORING"
	StateAuthenticated State = "AUTHENTICATED"
	StateAnonymous     State = "ANONYMOUS"
)

// Settled reports whether restoration has completed.
func (s State) Settled() bool {
	return s == StateAuthenticated || s == StateAnonymous
}
