package notifiers

import "fmt"

// ConfigError reports an unsupported or misconfigured notifier kind. Raised at
// construction time, never during delivery.
type ConfigError struct {
	Kind   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notifier %q: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("notifier %q: %s", e.Kind, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a failed delivery.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
