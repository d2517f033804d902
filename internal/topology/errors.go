package topology

import "fmt"

// InvalidConfigError reports a network or subnet address block that does not
// parse as CIDR notation. Generate returns it before deriving any resource.
type InvalidConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid CIDR for %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}
