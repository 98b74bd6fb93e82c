package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

const (
	DefaultCollectionPrefix = "mevzuat_"
	DefaultHost             = "localhost"
	DefaultPort             = 6334 // gRPC, not the 6333 REST port
	DefaultTimeout          = 30 * time.Second
)

var ErrClosed = errors.New("qdrant client is closed")

// ClientConfig locates the Qdrant server. CollectionPrefix keeps statute
// collections apart from others on a shared server; it is added to every
// collection name given to the client and removed from names it returns.
type ClientConfig struct {
	Host             string
	Port             int
	APIKey           string
	UseTLS           bool
	CollectionPrefix string
	Timeout          time.Duration // per call
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:             DefaultHost,
		Port:             DefaultPort,
		CollectionPrefix: DefaultCollectionPrefix,
		Timeout:          DefaultTimeout,
	}
}

// Client is safe for concurrent use. Calls after Close return ErrClosed.
type Client struct {
	client *qdrant.Client
	config ClientConfig
	mu     sync.RWMutex
	closed bool
}

// NewClient does not contact the server; use ServerVersion to check that it
// is reachable.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client for %s: %w", cfg.address(), err)
	}
	return &Client{client: client, config: cfg}, nil
}

func (cfg ClientConfig) address() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// Address returns the host:port the client talks to.
func (c *Client) Address() string {
	return c.config.address()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// ServerVersion asks the server for its version.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return "", ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reply, err := c.client.HealthCheck(ctx)
	if err != nil {
		return "", fmt.Errorf("qdrant at %s unreachable: %w", c.Address(), err)
	}
	if reply.GetVersion() == "" {
		return "", fmt.Errorf("qdrant at %s sent an empty health reply", c.Address())
	}
	return reply.GetVersion(), nil
}

func (c *Client) collectionName(name string) string {
	return c.config.CollectionPrefix + name
}
