package rbac

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates malformed input, such as an empty code or name.
	ErrValidation = errors.New("rbac: validation failed")
	// ErrConflict indicates a uniqueness violation on a code or name.
	ErrConflict = errors.New("rbac: conflict")
	// ErrNotFound indicates a reference to a nonexistent permission or role.
	ErrNotFound = errors.New("rbac: not found")
)

// PartialTransferError reports a transfer that revoked permission codes from
// the source role but failed before granting all of them to the destination.
// The stores share no transaction, so the workflow does not roll back; it
// enumerates the inconsistent codes instead so the caller can repair with
// explicit grant/revoke calls. Blind retries risk double-granting and are
// deliberately not performed.
type PartialTransferError struct {
	SourceRoleID int64
	DestRoleID   int64
	Ungranted    []string
	Err          error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf(
		"rbac: transfer from role %d to role %d incomplete, revoked but not granted: %s: %v",
		e.SourceRoleID, e.DestRoleID, strings.Join(e.Ungranted, ", "), e.Err,
	)
}

func (e *PartialTransferError) Unwrap() error { return e.Err }
