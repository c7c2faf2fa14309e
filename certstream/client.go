package certstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Monitor is the certstream client that monitors certificate transparency logs
type Monitor struct {
	config    Config
	items     chan WorkItem
	stopChan  chan struct{}
	logger    Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

var errStopped = fmt.Errorf("monitor stopped")

// New creates a new certificate monitor with the given options
func New(options ...Option) *Monitor {
	config := Config{
		WebSocketURL:        DefaultWebSocketURL,
		QueueSize:           4096,
		ReconnectTimeout:    time.Second,
		MaxReconnectTimeout: 60 * time.Second,
		Debug:               false,
		Context:             context.Background(),
	}

	for _, option := range options {
		option(&config)
	}

	if config.QueueSize < 1 {
		config.QueueSize = 4096
	}

	return &Monitor{
		config:   config,
		items:    make(chan WorkItem, config.QueueSize),
		stopChan: make(chan struct{}),
		logger:   NewDefaultLogger(config.Debug),
	}
}

// SetLogger sets a custom logger for the monitor
func (m *Monitor) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// Items returns the channel of per-domain work items. The channel is closed
// after Stop, once the reader goroutine has exited.
func (m *Monitor) Items() <-chan WorkItem {
	return m.items
}

// Start starts the certificate monitoring process
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.monitor()
}

// Stop stops the certificate monitoring process and closes the item channel
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	close(m.stopChan)
	m.wg.Wait()
	m.isRunning = false
}

// monitor is the internal monitoring loop. It reconnects forever with
// exponential backoff: 1s base, doubled per failure, capped at 60s, reset to
// the base on every successful connect.
func (m *Monitor) monitor() {
	defer m.wg.Done()
	defer close(m.items)

	ctx, cancel := context.WithCancel(m.config.Context)
	defer cancel()

	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	backoff := m.config.ReconnectTimeout
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		default:
		}

		connected, err := m.connectAndProcess(ctx)
		if connected {
			backoff = m.config.ReconnectTimeout
		}
		if err == errStopped || ctx.Err() != nil {
			return
		}
		if err != nil {
			m.logger.Error("Connection failed: %v", err)
		}

		m.logger.Info("Reconnecting in %v...", backoff)
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.stopChan:
			timer.Stop()
			return
		}

		backoff *= 2
		if backoff > m.config.MaxReconnectTimeout {
			backoff = m.config.MaxReconnectTimeout
		}
	}
}

// connectAndProcess establishes the websocket connection and processes
// incoming certificates until the connection drops or the monitor stops.
// The returned bool reports whether the dial itself succeeded.
func (m *Monitor) connectAndProcess(ctx context.Context) (bool, error) {
	m.logger.Debug("Connecting to %s", m.config.WebSocketURL)

	conn, _, err := websocket.Dial(ctx, m.config.WebSocketURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close(websocket.StatusAbnormalClosure, "")

	// Large enough for certificate messages carrying full chains
	conn.SetReadLimit(100 * 1024 * 1024)

	m.logger.Info("Connected to CertStream service")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go m.pingLoop(pingCtx, conn)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return true, errStopped
		case <-m.stopChan:
			conn.Close(websocket.StatusNormalClosure, "")
			return true, errStopped
		default:
			_, data, err := conn.Read(ctx)
			if err != nil {
				return true, err
			}
			if err := m.handleMessage(ctx, data); err != nil {
				return true, err
			}
		}
	}
}

// pingLoop sends periodic pings to keep the connection alive
func (m *Monitor) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				m.logger.Debug("Ping failed: %v", err)
				return
			}
		}
	}
}

// handleMessage parses one frame and enqueues its work items. Enqueueing
// blocks when the channel is full, which is what pushes backpressure from
// slow workers back onto the websocket reader.
func (m *Monitor) handleMessage(ctx context.Context, data []byte) error {
	items, err := ParseMessage(data)
	if err != nil {
		m.logger.Error("Skipping malformed message: %v", err)
		return nil
	}

	for _, item := range items {
		select {
		case m.items <- item:
		case <-ctx.Done():
			return errStopped
		case <-m.stopChan:
			return errStopped
		}
	}
	return nil
}

// ParseMessage decodes a CertStream frame into work items. Messages other
// than certificate updates yield an empty slice and no error.
func ParseMessage(data []byte) ([]WorkItem, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	if env.MessageType != "certificate_update" {
		return nil, nil
	}

	leaf := env.Data.LeafCert
	issuer := issuerOrg(leaf)
	seenAt := normalizeSeen(env.Data.Seen)

	var items []WorkItem
	for _, domain := range allDomains(leaf) {
		domain = strings.TrimPrefix(domain, "*.")
		if domain == "" {
			continue
		}
		items = append(items, WorkItem{
			Domain:   domain,
			Issuer:   issuer,
			SeenAt:   seenAt,
			LeafCert: leaf,
		})
	}
	return items, nil
}

// allDomains extracts leaf_cert.all_domains, tolerating absent or oddly
// typed entries.
func allDomains(leaf map[string]interface{}) []string {
	if leaf == nil {
		return nil
	}
	raw, ok := leaf["all_domains"].([]interface{})
	if !ok {
		return nil
	}
	var domains []string
	for _, entry := range raw {
		if s, ok := entry.(string); ok && s != "" {
			domains = append(domains, s)
		}
	}
	return domains
}

// issuerOrg extracts leaf_cert.issuer.O, defaulting to "Unknown".
func issuerOrg(leaf map[string]interface{}) string {
	if leaf != nil {
		if issuer, ok := leaf["issuer"].(map[string]interface{}); ok {
			if o, ok := issuer["O"].(string); ok && o != "" {
				return o
			}
		}
	}
	return "Unknown"
}

// normalizeSeen renders the "seen" field as an ISO-8601 timestamp. Upstream
// servers send either an epoch number or a preformatted string.
func normalizeSeen(seen interface{}) string {
	switch v := seen.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		sec := int64(v)
		return time.Unix(sec, 0).UTC().Format("2006-01-02T15:04:05")
	}
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}
