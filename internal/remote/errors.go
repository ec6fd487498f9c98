package remote

import "errors"

// Session errors
var (
	ErrNoActiveSession         = errors.New("no active SSH connection")
	ErrNoAuthMethodProvided    = errors.New("no valid authentication method provided")
	ErrFailedToCreateAuth      = errors.New("failed to create auth")
	ErrFailedToCreateSSHClient = errors.New("failed to create SSH client")
	ErrFailedToTestConnection  = errors.New("failed to test SSH connection")
)

// FaultKind classifies session failures so callers can react to the kind of
// fault instead of string-matching messages. Display strings are produced
// only at the action boundary.
type FaultKind int

const (
	KindConnection FaultKind = iota
	KindKeyNotFound
	KindLiveness
	KindCommand
	KindNoSession
)

type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return f.Err.Error()
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// KindOf returns the fault kind of err, or KindConnection when err carries
// no fault information.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindConnection
}
