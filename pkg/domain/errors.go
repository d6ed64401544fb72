package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced entity does not exist.
type ErrNotFound struct {
	Entity EntityKind
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotApplicableError signals that a rate-law template cannot be instantiated
// for a reaction. Generation recovers by trying the next template.
type NotApplicableError struct {
	Template string
	Reaction string
	Reason   string
}

func (e NotApplicableError) Error() string {
	return fmt.Sprintf("template %s not applicable to reaction %s: %s", e.Template, e.Reaction, e.Reason)
}

// UnresolvableUnitError signals that no unit could be derived for a quantity.
// The affected reaction fails; the batch continues.
type UnresolvableUnitError struct {
	Entity EntityKind
	ID     string
	Unit   string
}

func (e UnresolvableUnitError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("cannot derive unit for %s %s", e.Entity, e.ID)
	}
	return fmt.Sprintf("cannot resolve unit %q of %s %s", e.Unit, e.Entity, e.ID)
}

// IdentifierExhaustionError is raised when no free numeric suffix was found
// for a base identifier within the search bound. It indicates a bug in
// identifier allocation rather than bad input.
type IdentifierExhaustionError struct {
	Base     string
	Attempts int
}

func (e IdentifierExhaustionError) Error() string {
	return fmt.Sprintf("no unique identifier for %q after %d attempts", e.Base, e.Attempts)
}

// ExtractionError aborts a batch before any generation happens because the
// working copy could not be built.
type ExtractionError struct {
	Entity EntityKind
	ID     string
	Reason string
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract submodel: %s %s: %s", e.Entity, e.ID, e.Reason)
}

// ReportClosedError is returned when a report was already committed or discarded.
type ReportClosedError struct {
	ReportID string
	State    ReportState
}

func (e ReportClosedError) Error() string {
	return fmt.Sprintf("generation report %s already %s", e.ReportID, e.State)
}

// ErrReportUnknown is returned for reports the service does not track, for
// example after they were evicted from the pending set.
var ErrReportUnknown = errors.New("generation report unknown or expired")

// IsNotApplicable reports whether err wraps a NotApplicableError.
func IsNotApplicable(err error) bool {
	var target NotApplicableError
	return errors.As(err, &target)
}

// IsUnresolvableUnit reports whether err wraps an UnresolvableUnitError.
func IsUnresolvableUnit(err error) bool {
	var target UnresolvableUnitError
	return errors.As(err, &target)
}

// PersistenceError reports that a committed transaction could not be written
// to durable storage. The in-memory state is left as it was before the
// transaction, so the operation can be retried.
type PersistenceError struct {
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persist models: %v", e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe PersistenceError
	return errors.As(err, &pe)
}
