package controller

import (
	"errors"
	"fmt"

	"github.com/joperezr/SmartHomePi/internal/mqtt"
)

var (
	// ErrMissingConnectionString is returned by New before any connection
	// attempt when no credential was configured.
	ErrMissingConnectionString = errors.New("controller: connection string is required")

	// ErrTimeout matches invocations the device did not answer in time.
	ErrTimeout = mqtt.ErrTimeout

	// ErrClosed matches calls made after Close, or cut short by it.
	ErrClosed = mqtt.ErrClosed
)

// InitError wraps a failure to reach the broker.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "controller: unable to initialize: " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the device answered with anything but 200.
type StatusError struct {
	Method string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s returned status %d", e.Method, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Method, e.Status, e.Body)
}

// StatusCode extracts the remote status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
