// SPDX-License-Identifier: MIT
package transport

import applog "timbre/internal/log"

// LoggingTransport implements the Transport interface by logging a summary of
// each payload.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debug("transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	switch d := data.(type) {
	case *Frame:
		applog.Infof("transport: spectrum K=%d N=%d value=%s peak bin %d (%.2f Hz)",
			d.Length, d.Samples, d.Value, d.PeakBin, d.PeakHz)
	default:
		applog.Infof("transport: received %T", data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debug("transport: logging transport closed")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
