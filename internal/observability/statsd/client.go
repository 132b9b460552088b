// Package statsd emits pipeline metrics over the StatsD line protocol with
// DogStatsD-style tags. Sinks are optional everywhere they are accepted, so
// a nil sink simply drops the metric.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DialTimeout bounds the initial UDP dial.
const DialTimeout = 5 * time.Second

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes how to connect to a StatsD-compatible sink.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

// Client emits metrics over UDP using the StatsD line protocol.
// It is safe for concurrent use.
type Client struct {
	prefix string
	base   []tagPair
	logger *slog.Logger

	mu      sync.Mutex
	enabled bool
	conn    net.Conn
}

var _ Sink = (*Client)(nil)

// tagPair is one rendered key:value tag. Tags are merged and sorted once
// per emission so identical metrics always serialize identically.
type tagPair struct {
	key   string
	value string
}

// NewClient dials the configured StatsD endpoint unless disabled. A
// disabled client is still usable; every emission is a no-op.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := &Client{
		prefix: cleanName(cfg.Prefix),
		base:   mergeTags(nil, cfg.GlobalTags),
		logger: logger,
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), DialTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	client.conn = conn
	client.enabled = true

	return client, nil
}

// Enabled reports whether the client actively emits metrics.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.conn != nil
}

// Count increments a counter metric.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.emit(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge records the current value for a gauge metric.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.emit(name, trimFloat(value), "g", tags)
}

// Timing records a timing metric in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, trimFloat(ms), "ms", tags)
}

// Close releases the underlying UDP connection if one was established.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) emit(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}

	metric := cleanName(name)
	if metric == "" {
		return
	}

	var line strings.Builder
	if c.prefix != "" {
		line.WriteString(c.prefix)
		line.WriteByte('.')
	}
	line.WriteString(metric)
	line.WriteByte(':')
	line.WriteString(value)
	line.WriteByte('|')
	line.WriteString(kind)
	writeTags(&line, mergeTags(c.base, tags))

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line.String())); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

// cleanName trims a metric name or prefix and maps characters the line
// protocol cannot carry to underscores.
func cleanName(name string) string {
	n := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', ':', '|', '#', ',':
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(name))
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	return strings.Trim(n, ".")
}

// mergeTags overlays local tags on the base set and returns the result
// sorted by key. Local values win on key collision; blank keys are dropped.
func mergeTags(base []tagPair, local map[string]string) []tagPair {
	merged := make([]tagPair, 0, len(base)+len(local))
	merged = append(merged, base...)

	for k, v := range local {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		value := strings.TrimSpace(v)
		replaced := false
		for i := range merged {
			if merged[i].key == key {
				merged[i].value = value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, tagPair{key: key, value: value})
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].key < merged[j].key })
	return merged
}

func writeTags(line *strings.Builder, tags []tagPair) {
	if len(tags) == 0 {
		return
	}
	line.WriteString("|#")
	for i, tag := range tags {
		if i > 0 {
			line.WriteByte(',')
		}
		line.WriteString(tag.key)
		line.WriteByte(':')
		line.WriteString(tag.value)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
