// Package tryerrors contains the categorised errors returned while turning a selection query into a
// try task configuration. Callers look for the error types defined in this file (using errors.As,
// so wrapping with github.com/pkg/errors is fine) to tell which stage failed.
//
// Problems found while loading a file that can each be reported independently (e.g., several bad
// entries in one coverage manifest) are collected into a multierror.Error from package
// github.com/hashicorp/go-multierror and returned wrapped in an ErrGraphLoad.
package tryerrors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrParse represents a malformed query. Token is the raw offending token as the user typed it.
type ErrParse struct {
	// The raw token that could not be parsed
	Token string
	// The query the token belongs to
	Query string
	// Optional message explaining what is wrong with the token
	Message string
}

func (err *ErrParse) Error() (s string) {
	if err.Token == "" && err.Message != "" {
		return fmt.Sprintf("invalid query; %s", err.Message)
	}
	if err.Query != "" {
		s = fmt.Sprintf("invalid token %q in query %q", err.Token, err.Query)
	} else {
		s = fmt.Sprintf("invalid token %q", err.Token)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrNoMatch is returned when none of the supplied queries selects a task.
type ErrNoMatch struct {
	Queries []string
}

func (err *ErrNoMatch) Error() string {
	if len(err.Queries) == 0 {
		return "no tasks matched"
	}
	quoted := make([]string, len(err.Queries))
	for i, q := range err.Queries {
		quoted[i] = fmt.Sprintf("%q", q)
	}
	return fmt.Sprintf("no tasks matched queries %s", strings.Join(quoted, ", "))
}

// ErrGraphLoad is returned when the task graph or a coverage manifest cannot be loaded.
type ErrGraphLoad struct {
	Source string // File or location being loaded
	Err    error
}

func (err *ErrGraphLoad) Error() string {
	if err.Source == "" {
		return fmt.Sprintf("error loading task graph: %s", err.Err)
	}
	return fmt.Sprintf("error loading %s: %s", err.Source, err.Err)
}

func (err *ErrGraphLoad) Unwrap() error {
	return err.Err
}

// ErrInvalidArgument is a generic error to be returned on invalid command-line or configuration input.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "rebuild"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", fmt.Sprint(err.Value), err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", fmt.Sprint(err.Value), err.Name, err.Message)
	}
}

const (
	ExitOK        = 0
	ExitUnknown   = 1
	ExitInvalid   = 2
	ExitNoMatch   = 3
	ExitGraphLoad = 4
)

// ExitCodeFromError maps error types to process exit codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitOK
	}
	{
		var e *ErrParse
		if errors.As(err, &e) {
			return ExitInvalid
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return ExitInvalid
		}
	}
	{
		var e *ErrNoMatch
		if errors.As(err, &e) {
			return ExitNoMatch
		}
	}
	{
		var e *ErrGraphLoad
		if errors.As(err, &e) {
			return ExitGraphLoad
		}
	}
	return ExitUnknown
}
