// SPDX-License-Identifier: MIT
package transport

import (
	applog "earshot/internal/log"
)

// LoggingTransport writes events to the application log. It is the default
// mode and the fallback when no consumer is listening.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the event at debug level. It never fails.
func (lt *LoggingTransport) Send(event any) error {
	applog.Debugf("Transport: event %+v", event)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
