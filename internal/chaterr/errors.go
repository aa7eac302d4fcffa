package chaterr

import (
	"errors"
	"fmt"
)

// Errors returned across the engine boundary. Match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
	ErrBusy            = errors.New("busy")
	ErrPartialCreate   = errors.New("partial create")
	ErrInvalid         = errors.New("invalid")
)

// Unavailable wraps a transport failure so that it matches ErrUnavailable
// while keeping the original cause reachable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Invalid builds an ErrInvalid with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// CreateStep names a step of the server creation sequence.
type CreateStep string

const (
	StepServer     CreateStep = "server"
	StepMembership CreateStep = "membership"
	StepChannels   CreateStep = "channels"
)

// PartialCreateError reports a server creation that stopped after the
// server record was written. ServerID is always set.
type PartialCreateError struct {
	ServerID int64
	Step     CreateStep
	Err      error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("server %d partially created, %s step failed: %v", e.ServerID, e.Step, e.Err)
}

func (e *PartialCreateError) Is(target error) bool {
	return target == ErrPartialCreate
}

func (e *PartialCreateError) Unwrap() error {
	return e.Err
}
