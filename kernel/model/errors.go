package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedResourceKind is returned when no adapter is registered for a kind.
	ErrUnsupportedResourceKind = errors.New("unsupported resource kind")

	// ErrNoSuchPage is returned by next/prev when there is no page in that direction.
	ErrNoSuchPage = errors.New("no such page")
)

// UnsupportedKind wraps ErrUnsupportedResourceKind with the offending kind.
func UnsupportedKind(kind ResourceKind) error {
	return errors.Wrapf(ErrUnsupportedResourceKind, "kind [%s]", kind)
}

// FetchFailedError reports a transport or authorization failure of a list call.
type FetchFailedError struct {
	Kind  ResourceKind
	Cause error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetching [%s] failed: %v", e.Kind, e.Cause)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Cause
}
