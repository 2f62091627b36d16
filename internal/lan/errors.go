package lan

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Sentinel errors, matchable with errors.Is on any *BulbError of that type
var (
	// ErrTimeout means the bulb did not answer before the context deadline
	ErrTimeout = errors.New("lan: request timed out")

	// ErrUnknownDevice means no bulb with that ID has answered discovery
	ErrUnknownDevice = errors.New("lan: unknown device")

	// ErrClosed means the client has been closed
	ErrClosed = errors.New("lan: client closed")
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTimeout indicates the bulb did not answer in time
	ErrTypeTimeout ErrorType = iota
	// ErrTypeUnknownDevice indicates the ID is not a known peer
	ErrTypeUnknownDevice
	// ErrTypeUnexpectedResponse indicates the bulb answered with a different message type
	ErrTypeUnexpectedResponse
	// ErrTypeDecode indicates a malformed payload
	ErrTypeDecode
	// ErrTypeNetwork indicates a socket-level failure
	ErrTypeNetwork
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeUnknownDevice:
		return "Unknown Device"
	case ErrTypeUnexpectedResponse:
		return "Unexpected Response"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeNetwork:
		return "Network Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// BulbError represents an error that occurred while talking to one bulb
type BulbError struct {
	Type      ErrorType // Category of error
	DeviceID  string    // Bulb MAC
	Request   string    // Request message name (e.g. "LightGet")
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether asking again may succeed
}

// Error implements the error interface
func (e *BulbError) Error() string {
	msg := fmt.Sprintf("%s: %s to %s", e.Type, e.Request, e.DeviceID)
	if e.Err != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *BulbError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by error type
func (e *BulbError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Type == ErrTypeTimeout
	case ErrUnknownDevice:
		return e.Type == ErrTypeUnknownDevice
	}
	return false
}

func newTimeoutError(id, request string, err error) *BulbError {
	return &BulbError{Type: ErrTypeTimeout, DeviceID: id, Request: request, Err: err, Retryable: true}
}

func newUnknownDeviceError(id, request string) *BulbError {
	return &BulbError{Type: ErrTypeUnknownDevice, DeviceID: id, Request: request}
}

func newUnexpectedResponseError(id, request string, got string) *BulbError {
	return &BulbError{
		Type:     ErrTypeUnexpectedResponse,
		DeviceID: id,
		Request:  request,
		Err:      fmt.Errorf("got %s", got),
	}
}

func newDecodeError(id, request string, err error) *BulbError {
	return &BulbError{Type: ErrTypeDecode, DeviceID: id, Request: request, Err: err}
}

func newNetworkError(id, request string, err error) *BulbError {
	return &BulbError{Type: ErrTypeNetwork, DeviceID: id, Request: request, Err: err, Retryable: true}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var bulbErr *BulbError
	if errors.As(err, &bulbErr) {
		return bulbErr.Retryable
	}
	return false
}

// BindError is returned by Listen when the UDP socket cannot be bound.
// It is fatal for the exporter.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind udp %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// GetTroubleshootingHint returns user-friendly advice for startup errors
func GetTroubleshootingHint(err error) string {
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		return ""
	}

	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		return strings.Join([]string{
			"The LIFX UDP port is already in use.",
			"Troubleshooting:",
			"  • Another LIFX client (or a second exporter) may be running",
			"  • Use --discovery-port to bind a different port",
		}, "\n")
	case errors.Is(err, syscall.EACCES):
		return strings.Join([]string{
			"Permission denied binding the UDP port.",
			"Troubleshooting:",
			"  • Ports below 1024 need elevated privileges",
		}, "\n")
	default:
		return "Check that the listen address is valid for this host."
	}
}
