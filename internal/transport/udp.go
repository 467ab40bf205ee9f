// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	applog "earshot/internal/log"
)

// UDPTransport sends each event as one JSON datagram to a fixed target.
// Fire and forget; a missing listener is not an error.
type UDPTransport struct {
	conn   *net.UDPConn
	mu     sync.Mutex
	closed bool
}

// NewUDPTransport dials the target address, e.g. "127.0.0.1:9090".
func NewUDPTransport(targetAddress string) (*UDPTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", targetAddress, err)
	}

	applog.Infof("Transport: UDP events to %s", conn.RemoteAddr())
	return &UDPTransport{conn: conn}, nil
}

func (ut *UDPTransport) Send(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ut.mu.Lock()
	defer ut.mu.Unlock()
	if ut.closed {
		return fmt.Errorf("UDP transport is closed")
	}
	if _, err := ut.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

func (ut *UDPTransport) Close() error {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	if ut.closed {
		return nil
	}
	ut.closed = true
	return ut.conn.Close()
}

var _ Transport = (*UDPTransport)(nil)
