// Package certstream maintains a persistent connection to a CertStream
// compatible WebSocket server and turns certificate updates into per-domain
// work items for downstream analysis.
package certstream

import (
	"context"
	"time"
)

// Default certstream websocket URL
const DefaultWebSocketURL = "ws://127.0.0.1:8080"

// envelope is the decoded shape of one CertStream frame. The leaf certificate
// stays weakly typed on purpose: the upstream schema drifts between server
// versions (SAN as string or list, dates as epoch or ISO strings), so every
// consumer goes through the normalized view in normalize.go instead.
type envelope struct {
	MessageType string `json:"message_type"`
	Data        struct {
		Seen     interface{}            `json:"seen"`
		LeafCert map[string]interface{} `json:"leaf_cert"`
	} `json:"data"`
}

// WorkItem is one domain taken from one certificate update. A certificate
// carrying N names expands into N work items. Domain has any leading
// wildcard label already stripped.
type WorkItem struct {
	Domain   string
	Issuer   string
	SeenAt   string
	LeafCert map[string]interface{}
}

// Config holds the configuration for the certificate monitor
type Config struct {
	WebSocketURL        string          // URL of the CertStream service
	QueueSize           int             // Capacity of the work item channel
	ReconnectTimeout    time.Duration   // Base time to wait before reconnecting after a failure
	MaxReconnectTimeout time.Duration   // Maximum reconnection timeout
	Debug               bool            // Enable debug logging
	Context             context.Context // Context to control the monitor
}

// Option is a function that configures a Config
type Option func(*Config)

// WithWebSocketURL sets the WebSocket URL for the CertStream service
func WithWebSocketURL(url string) Option {
	return func(c *Config) {
		c.WebSocketURL = url
	}
}

// WithQueueSize sets the capacity of the work item channel
func WithQueueSize(size int) Option {
	return func(c *Config) {
		c.QueueSize = size
	}
}

// WithReconnectTimeout sets the base reconnection timeout
func WithReconnectTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReconnectTimeout = timeout
	}
}

// WithMaxReconnectTimeout sets the maximum reconnection timeout
func WithMaxReconnectTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.MaxReconnectTimeout = timeout
	}
}

// WithDebug enables debug logging
func WithDebug(debug bool) Option {
	return func(c *Config) {
		c.Debug = debug
	}
}

// WithContext sets the context for the monitor
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}
