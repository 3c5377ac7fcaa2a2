// bingo/config.go
package bingo

import "time"

// Service endpoints. Overridable per client for tests.
const (
	DefaultBaseURL   = "https://bingosync.com"
	DefaultSocketURL = "wss://sockets.bingosync.com/broadcast"
)

// Timing defaults for the handshake wait.
const (
	DefaultPollInterval   = 25 * time.Millisecond
	DefaultConnectTimeout = 30 * time.Second
)

// Config carries the knobs of a client. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// BaseURL is the HTTP root of the room service.
	BaseURL string `json:"base_url"`

	// SocketURL is the broadcast endpoint for the persistent connection.
	SocketURL string `json:"socket_url"`

	// PollInterval is how often the connect call re-checks whether the
	// handshake event has arrived.
	PollInterval time.Duration `json:"poll_interval"`

	// ConnectTimeout bounds the whole wait for the handshake event. A
	// connect that misses it tears down and reports failure.
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		SocketURL:      DefaultSocketURL,
		PollInterval:   DefaultPollInterval,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// withDefaults fills any zero field so a partially filled Config still
// behaves.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.SocketURL == "" {
		c.SocketURL = DefaultSocketURL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	return c
}
