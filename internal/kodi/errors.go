package kodi

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by calls made after the connection to Kodi has gone away
	ErrClosed = errors.New("kodi session closed")
	// ErrAlreadySubscribed is returned when a session's notifications are subscribed to more than once
	ErrAlreadySubscribed = errors.New("kodi session notifications already subscribed")
)

// ConnectError is returned when a session could not be established, either because the transport failed or
// because the handshake was rejected.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to kodi at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned by Probe when Kodi answers with anything but 200 OK
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d from %s", e.StatusCode, e.URL)
}

// ErrorKind separates the two ways a call can fail once a reply has arrived
type ErrorKind int

const (
	// KindDecode means the reply did not match the expected result shape
	KindDecode ErrorKind = iota
	// KindRemote means Kodi returned a JSON-RPC error object
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// RemoteError is a JSON-RPC error object as returned by Kodi
type RemoteError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// ProtocolError is returned by a call when the reply arrived but could not be used
type ProtocolError struct {
	Method string
	Kind   ErrorKind
	// Remote is set for KindRemote
	Remote *RemoteError
	// Raw is the undecodable result for KindDecode
	Raw json.RawMessage
	Err error
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case KindRemote:
		return fmt.Sprintf("%s failed: %v", e.Method, e.Remote)
	default:
		return fmt.Sprintf("%s: cannot decode result: %v", e.Method, e.Err)
	}
}

func (e *ProtocolError) Unwrap() error {
	if e.Kind == KindRemote {
		return e.Remote
	}
	return e.Err
}

// IsDecode reports whether err is a ProtocolError caused by an unexpected result shape
func IsDecode(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Kind == KindDecode
}

// IsRemote reports whether err is a ProtocolError carrying an error object from Kodi
func IsRemote(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Kind == KindRemote
}
