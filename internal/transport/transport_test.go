// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"earshot/internal/config"
)

func TestNewSelectsModeFromConfig(t *testing.T) {
	t.Run("DefaultIsLogging", func(t *testing.T) {
		tr, err := New(config.TransportConfig{Mode: ""})
		if err != nil {
			t.Fatal(err)
		}
		defer tr.Close()
		assert.IsType(t, &LoggingTransport{}, tr)
	})

	t.Run("UnknownMode", func(t *testing.T) {
		_, err := New(config.TransportConfig{Mode: "carrier-pigeon"})
		assert.Error(t, err)
	})

	t.Run("BadUDPTarget", func(t *testing.T) {
		_, err := New(config.TransportConfig{Mode: "udp", UDPTarget: "not an address"})
		assert.Error(t, err)
	})
}

func TestLoggingTransportNeverFails(t *testing.T) {
	lt := NewLoggingTransport()
	assert := assert.New(t)
	assert.NoError(lt.Send(map[string]string{"type": "beat"}))
	assert.NoError(lt.Send(nil))
	assert.NoError(lt.Close())
}

func TestUDPTransportDeliversJSON(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	ut, err := NewUDPTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ut.Close()

	event := map[string]any{"type": "beat", "band": "kick"}
	if err := ut.Send(event); err != nil {
		t.Fatal(err)
	}

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf[:n], &got); err != nil {
		t.Fatal(err)
	}
	assert := assert.New(t)
	assert.Equal(got["type"], "beat")
	assert.Equal(got["band"], "kick")
}

func TestUDPTransportSendAfterClose(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	ut, err := NewUDPTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}

	assert := assert.New(t)
	assert.NoError(ut.Close())
	assert.NoError(ut.Close())
	assert.Error(ut.Send(map[string]string{"type": "beat"}))
}

func TestUDPTransportRejectsUnmarshalableEvent(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	ut, err := NewUDPTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer ut.Close()

	assert.Error(t, ut.Send(make(chan int)))
}
