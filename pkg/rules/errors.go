package rules

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRequirement   = errors.New("unknown requirement")
	ErrNoAcceptableForms    = errors.New("evidence has no acceptable forms")
	ErrUnknownFinalDocument = errors.New("unknown final document")
	ErrRequirementCycle     = errors.New("requirement cycle detected")
	ErrUnknownPersona       = errors.New("unknown persona")
	ErrDuplicateDepartment  = errors.New("department staffed by more than one persona")
	ErrUnstaffedDepartment  = errors.New("department has no persona")
	ErrUnknownReference     = errors.New("unknown reference")
	ErrAmbiguousID          = errors.New("id used for both evidence and document")
	ErrEmptyCondition       = errors.New("loop has no condition")
)

// ConfigError describes a broken game configuration. Err is one of the
// sentinel errors above, so callers can use errors.Is.
type ConfigError struct {
	Section string
	ID      string
	Err     error
	Detail  string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s", e.Section)
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(section, id string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Section: section, ID: id, Err: err, Detail: fmt.Sprintf(format, args...)}
}
