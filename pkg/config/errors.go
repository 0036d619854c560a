// Package config parses Klipper-style printer configuration files and
// provides typed, validated access to sections and options.
package config

import "fmt"

// Error reports a configuration problem with section/option context.
type Error struct {
	Section string
	Option  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("Option '%s' in section '%s': %s", e.Option, e.Section, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("Section '%s': %s", e.Section, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrMissingSection returns an error for a missing section.
func ErrMissingSection(section string) *Error {
	return &Error{Section: section, Message: "section not found"}
}

// ErrMissingOption returns an error for a required but missing option.
func ErrMissingOption(section, option string) *Error {
	return &Error{Section: section, Option: option, Message: "must be specified"}
}

// ErrInvalidValue returns an error for a value that failed to parse.
func ErrInvalidValue(section, option, value, expected string) *Error {
	return &Error{
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("invalid value '%s', expected %s", value, expected),
	}
}

// ErrOutOfRange returns an error for a value outside the allowed range.
func ErrOutOfRange(section, option string, value float64, constraint string) *Error {
	return &Error{
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("value %v %s", value, constraint),
	}
}
