package simulator

import "fmt"

// SimError is the error type for rejected configurations and driver misuse.
// Simulation outcomes (faults, blocking, deadlock) are never errors; they are
// reported as data.
type SimError struct {
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("paging simulation error: %s", e.Message)
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return SimError{Message: fmt.Sprintf("invalid config: %s", msg)}
}
