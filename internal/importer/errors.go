package importer

import (
	"errors"
	"fmt"
)

var ErrInvalidRequest = errors.New("invalid import request")

// IdentityResolutionError reports a reference to a remote resource that no
// earlier step of the import has mapped.
type IdentityResolutionError struct {
	Kind       string
	ExternalID string
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("no %s has been imported for remote id %s", e.Kind, e.ExternalID)
}

// EventImportError is the terminal error of ImportEvents. It names the
// remote event whose import was rolled back.
type EventImportError struct {
	EventID int64
	Err     error
}

func (e *EventImportError) Error() string {
	return fmt.Sprintf("import of event %d failed: %v", e.EventID, e.Err)
}

func (e *EventImportError) Unwrap() error {
	return e.Err
}
