package providers

import "fmt"

// ProviderError is a typed error from an external provider (telemetry API,
// messaging gateway, voice gateway). Channel- and driver-level callers
// record these and continue; they are never fatal to a whole run.
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
