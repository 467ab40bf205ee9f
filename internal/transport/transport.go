// SPDX-License-Identifier: MIT
//
// Package transport carries analysis events out of the engine. The engine
// only sees the Transport interface; the mode in the config selects the
// concrete implementation.
package transport

import (
	"fmt"

	"earshot/internal/config"
)

// Transport sends analysis events to a consumer. Implementations must be
// safe for concurrent use and must not block the caller on slow consumers.
type Transport interface {
	Send(event any) error
	Close() error
}

// New builds the transport selected by cfg.Mode.
func New(cfg config.TransportConfig) (Transport, error) {
	switch cfg.Mode {
	case "log", "":
		return NewLoggingTransport(), nil
	case "ws":
		return NewWebSocketTransport(cfg.WSListen), nil
	case "udp":
		return NewUDPTransport(cfg.UDPTarget)
	default:
		return nil, fmt.Errorf("unknown transport mode %q", cfg.Mode)
	}
}
