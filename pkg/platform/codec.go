// Package platform bridges the observer registry to native visibility
// watchers. It carries watcher lifecycle calls (create, destroy, watch,
// unwatch) to the native side over a method channel and fans inbound change
// batches out to the registry a watcher was created for.
package platform

import (
	"encoding/json"
	"errors"
)

// MessageCodec encodes and decodes messages for platform channel communication.
type MessageCodec interface {
	// Encode converts a Go value to bytes for transmission to native code.
	Encode(value any) ([]byte, error)

	// Decode converts bytes received from native code to a Go value.
	Decode(data []byte) (any, error)
}

// JsonCodec implements MessageCodec using JSON encoding.
// JSON prioritizes interoperability and minimal native dependencies.
type JsonCodec struct{}

// Encode serializes the value to JSON bytes.
func (c JsonCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Decode deserializes JSON bytes to a Go value.
func (c JsonCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Standard errors for platform channel operations.
var (
	// ErrPlatformUnavailable indicates no native bridge has been installed.
	ErrPlatformUnavailable = errors.New("platform bridge not available")

	// ErrChannelNotRegistered is returned when an event arrives for an
	// unregistered channel.
	ErrChannelNotRegistered = errors.New("event channel not registered")

	// ErrClosed indicates the channel was closed during normal shutdown.
	ErrClosed = errors.New("channel closed")
)

// DefaultCodec is the codec used by platform channels.
var DefaultCodec MessageCodec = JsonCodec{}
